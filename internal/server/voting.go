package server

import "log"

// majorityThreshold is the vote count that triggers immediate resolution:
// a strict majority of non-eliminated players.
func majorityThreshold(alive int) int {
	return alive/2 + 1
}

// SubmitVote upserts the caller's vote for the current round. Reaching the
// majority threshold resolves the round inside the same store mutation, so
// concurrent votes cannot double-resolve. Everything persistence and logging
// need afterwards is captured into locals under the mutex; the session must
// not be re-read once it is released.
func (s *Server) SubmitVote(sessionID, userID string, targetID int, reason string) (*Session, error) {
	reason, err := validateReason(reason)
	if err != nil {
		return nil, err
	}
	var (
		entry         *VoteEntry
		round         *Round
		roundNumber   int
		voterID       int
		expired       bool
		resolved      bool
		needNextRound bool
		endedNow      bool
	)
	sess, err := s.store.UpdateSession(sessionID, func(sess *Session) error {
		voter, ok := findLivePlayerByUser(sess, userID)
		if !ok {
			return errNotInSession
		}
		if voter.Eliminated {
			return errPlayerEliminated
		}
		round = currentRound(sess)
		if round == nil {
			return errRoundNotFound
		}
		roundNumber = round.Number
		if voter.ID == targetID {
			return errSelfVote
		}
		if round.State != roundVoting {
			return errVotingNotActive
		}
		if roundExpired(round, timeNowUTC()) {
			// The late vote does not count, but it settles the round with
			// the votes already in so an expired round cannot wedge the
			// session.
			expired = true
			resolved, needNextRound = maybeResolveRound(sess, round)
			endedNow = sess.State == sessionEnded
			return nil
		}
		target, ok := findPlayerByID(sess, targetID)
		if !ok || target.Departed {
			return errTargetNotFound
		}
		if target.Eliminated {
			return errTargetEliminated
		}
		entry = upsertVote(round, voter.ID, targetID, reason)
		voterID = voter.ID
		if len(round.Votes) >= majorityThreshold(alivePlayerCount(sess)) {
			resolved, needNextRound = maybeResolveRound(sess, round)
			endedNow = sess.State == sessionEnded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		if resolved {
			s.finishResolvedRound(sess, round, endedNow, needNextRound)
		}
		s.broadcastSession(sessionID)
		return nil, errTimeExpired
	}
	s.persistVote(sess, round, entry)
	s.persistEvent(sess, "vote_submitted", EventPayload{
		SessionID:   sess.ID,
		PlayerID:    voterID,
		RoundNumber: roundNumber,
	})
	if resolved {
		s.finishResolvedRound(sess, round, endedNow, needNextRound)
	}
	s.broadcastSession(sessionID)
	return sess, nil
}

func upsertVote(round *Round, voterID, targetID int, reason string) *VoteEntry {
	for i := range round.Votes {
		if round.Votes[i].VoterID == voterID {
			round.Votes[i].TargetID = targetID
			round.Votes[i].Reason = reason
			return &round.Votes[i]
		}
	}
	round.Votes = append(round.Votes, VoteEntry{
		VoterID:   voterID,
		TargetID:  targetID,
		Reason:    reason,
		CreatedAt: timeNowUTC(),
	})
	return &round.Votes[len(round.Votes)-1]
}

// tallyVotes groups the vote multiset by target and returns the sole
// maximum, or tied=true when more than one target shares it. The result
// depends only on the multiset, never on submission order.
func tallyVotes(votes []VoteEntry) (targetID int, tied bool) {
	counts := make(map[int]int, len(votes))
	for _, vote := range votes {
		counts[vote.TargetID]++
	}
	best, bestCount, atMax := 0, 0, 0
	for target, count := range counts {
		switch {
		case count > bestCount:
			best, bestCount, atMax = target, count, 1
		case count == bestCount:
			atMax++
		}
	}
	if bestCount == 0 || atMax > 1 {
		return 0, atMax > 1
	}
	return best, false
}

// maybeResolveRound resolves a voting round: the sole max-vote target is
// eliminated (a tie eliminates no one), the round ends, scores update and
// the session's end conditions are evaluated. Caller holds the store mutex.
func maybeResolveRound(sess *Session, round *Round) (resolved, needNextRound bool) {
	if round.State != roundVoting {
		return false, false
	}
	targetID, tied := tallyVotes(round.Votes)
	round.State = roundEnded
	if !tied && targetID != 0 {
		if target, ok := findPlayerByID(sess, targetID); ok {
			target.Eliminated = true
			round.EliminatedPlayerID = targetID
			round.ImpostorEliminated = target.IsImpostor
			if target.IsImpostor {
				awardImpostorCatchPoints(sess, round)
			}
		}
	}
	awardSurvivalPoints(sess)
	needNextRound = evaluateEndConditions(sess)
	return true, needNextRound
}

// awardImpostorCatchPoints pays every crew member whose vote landed on an
// impostor in the resolved round.
func awardImpostorCatchPoints(sess *Session, round *Round) {
	for _, vote := range round.Votes {
		voter, ok := findPlayerByID(sess, vote.VoterID)
		if !ok || voter.IsImpostor {
			continue
		}
		target, ok := findPlayerByID(sess, vote.TargetID)
		if ok && target.IsImpostor {
			voter.Score += 100
		}
	}
}

// awardSurvivalPoints pays impostors still alive after a round resolves.
func awardSurvivalPoints(sess *Session) {
	for i := range sess.Players {
		p := &sess.Players[i]
		if p.IsImpostor && playerAlive(p) {
			p.Score += 150
		}
	}
}

// finishResolvedRound persists the outcome of a resolution and, when the
// session continues, creates the next round outside the store mutex. The
// round pointer and the ended flag were captured by the caller while it
// still held the mutex.
func (s *Server) finishResolvedRound(sess *Session, round *Round, ended, needNextRound bool) {
	if round != nil {
		s.persistRoundState(sess, round)
		s.persistEliminations(sess)
		s.persistEvent(sess, "round_resolved", EventPayload{
			SessionID:   sess.ID,
			RoundNumber: round.Number,
			PlayerID:    round.EliminatedPlayerID,
			Impostor:    round.ImpostorEliminated,
		})
		log.Printf("round resolved session_id=%s round=%d eliminated=%d impostor=%t",
			sess.ID, round.Number, round.EliminatedPlayerID, round.ImpostorEliminated)
	}
	if ended {
		s.persistSessionState(sess)
		s.persistEvent(sess, "session_ended", EventPayload{SessionID: sess.ID})
		log.Printf("session ended session_id=%s", sess.ID)
		return
	}
	if needNextRound {
		s.persistSessionState(sess)
		if _, err := s.CreateCurrentRound(sess.ID); err != nil {
			log.Printf("next round creation failed session_id=%s err=%v", sess.ID, err)
		}
	}
}

func lastRound(sess *Session) *Round {
	if len(sess.Rounds) == 0 {
		return nil
	}
	return &sess.Rounds[len(sess.Rounds)-1]
}
