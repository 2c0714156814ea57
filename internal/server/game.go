package server

import (
	"log"
	"math/rand"
)

// StartSession moves a lobby to active: impostor roles are drawn, the round
// counter starts at 1 and round 1 is created. A round-creation failure does
// not roll the start back; the session stays active and the returned warning
// tells the caller to retry round creation.
func (s *Server) StartSession(sessionID, requesterUserID string) (*Session, string, error) {
	var impostors, playerTotal int
	sess, err := s.store.UpdateSession(sessionID, func(sess *Session) error {
		if sess.State != sessionLobby {
			return errNotInLobby
		}
		if sess.HostUserID != requesterUserID {
			return errNotHost
		}
		if !canStart(sess) {
			return errCannotStart
		}
		assignImpostors(sess, s.store.rng)
		sess.State = sessionActive
		sess.RoundNumber = 1
		sess.StartedAt = timeNowUTC()
		impostors = impostorCount(sess)
		playerTotal = currentPlayerCount(sess)
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	if err := s.persistSessionState(sess); err != nil {
		log.Printf("persist session start failed session_id=%s err=%v", sess.ID, err)
	}
	s.persistEvent(sess, "session_started", EventPayload{
		SessionID: sess.ID,
		Count:     impostors,
	})
	log.Printf("session started session_id=%s players=%d impostors=%d",
		sess.ID, playerTotal, impostors)

	warning := ""
	if _, err := s.CreateCurrentRound(sessionID); err != nil {
		warning = "session started but the first round could not be created; retry round creation"
		log.Printf("round creation failed session_id=%s err=%v", sess.ID, err)
	}
	s.broadcastSession(sessionID)
	return sess, warning, nil
}

// assignImpostors clears all impostor flags and marks a fresh draw among
// non-departed players. The configured count is honored, clamped to
// [1, min(3, n/2)]; zero means draw the count at random. Caller holds the
// store mutex.
func assignImpostors(sess *Session, rng *rand.Rand) {
	candidates := make([]*Player, 0, len(sess.Players))
	for i := range sess.Players {
		sess.Players[i].IsImpostor = false
		if !sess.Players[i].Departed {
			candidates = append(candidates, &sess.Players[i])
		}
	}
	if len(candidates) == 0 {
		return
	}
	maxImpostors := len(candidates) / 2
	if maxImpostors > maxImpostorCap {
		maxImpostors = maxImpostorCap
	}
	if maxImpostors < 1 {
		maxImpostors = 1
	}
	count := sess.ImpostorCount
	if count <= 0 {
		count = 1 + rng.Intn(maxImpostors)
	}
	if count > maxImpostors {
		count = maxImpostors
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for i := 0; i < count; i++ {
		candidates[i].IsImpostor = true
	}
}

func impostorCount(sess *Session) int {
	count := 0
	for i := range sess.Players {
		if sess.Players[i].IsImpostor && !sess.Players[i].Departed {
			count++
		}
	}
	return count
}

func aliveImpostorCount(sess *Session) int {
	count := 0
	for i := range sess.Players {
		p := &sess.Players[i]
		if p.IsImpostor && playerAlive(p) {
			count++
		}
	}
	return count
}

func aliveCrewCount(sess *Session) int {
	count := 0
	for i := range sess.Players {
		p := &sess.Players[i]
		if !p.IsImpostor && playerAlive(p) {
			count++
		}
	}
	return count
}

// endSession is terminal; nothing transitions out of ended. Caller holds the
// store mutex.
func endSession(sess *Session) {
	if sess.State == sessionEnded {
		return
	}
	sess.State = sessionEnded
	sess.EndedAt = timeNowUTC()
}

// evaluateEndConditions runs after a round resolves. The session ends when
// no impostor is left alive, when impostors reach parity with the crew, or
// when the round budget is spent. Otherwise the counter advances and the
// caller must create the next round. Caller holds the store mutex.
func evaluateEndConditions(sess *Session) (needNextRound bool) {
	impostors := aliveImpostorCount(sess)
	crew := aliveCrewCount(sess)
	switch {
	case impostors == 0:
		endSession(sess)
	case impostors >= crew:
		endSession(sess)
	case sess.RoundNumber+1 <= sess.MaxRounds:
		sess.RoundNumber++
		needNextRound = true
	default:
		endSession(sess)
	}
	return needNextRound
}

// Leave removes the caller from the session. Departures mid-round can be
// the missing answer or vote, so the same thresholds that fire on
// submissions are re-checked here.
func (s *Server) Leave(sessionID, userID string) (*Session, error) {
	var (
		left          *Player
		round         *Round
		roundNumber   int
		answersClosed bool
		resolved      bool
		needNextRound bool
		endedNow      bool
	)
	sess, err := s.store.UpdateSession(sessionID, func(sess *Session) error {
		player, err := leavePlayer(sess, userID)
		if err != nil {
			return err
		}
		left = player
		if sess.State == sessionActive {
			round = currentRound(sess)
			if round != nil {
				roundNumber = round.Number
				switch round.State {
				case roundActive:
					answersClosed = maybeCloseAnswers(round, sess)
				case roundVoting:
					if len(round.Votes) >= majorityThreshold(alivePlayerCount(sess)) {
						resolved, needNextRound = maybeResolveRound(sess, round)
					}
				}
			}
		}
		endedNow = sess.State == sessionEnded
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.persistPlayerState(sess, left)
	s.persistEvent(sess, "player_left", EventPayload{
		SessionID:  sess.ID,
		PlayerID:   left.ID,
		PlayerName: left.Name,
	})
	if answersClosed {
		s.persistRoundState(sess, round)
		s.persistEvent(sess, "voting_opened", EventPayload{
			SessionID:   sess.ID,
			RoundNumber: roundNumber,
		})
	}
	if resolved {
		s.finishResolvedRound(sess, round, endedNow, needNextRound)
	}
	if endedNow && !resolved {
		s.persistSessionState(sess)
		s.persistEvent(sess, "session_ended", EventPayload{SessionID: sess.ID})
	}
	s.broadcastSession(sessionID)
	return sess, nil
}

// SetReady flips the caller's lobby ready flag.
func (s *Server) SetReady(sessionID, userID string, ready bool) (*Session, error) {
	var player *Player
	sess, err := s.store.UpdateSession(sessionID, func(sess *Session) error {
		if err := setReady(sess, userID, ready); err != nil {
			return err
		}
		player, _ = findLivePlayerByUser(sess, userID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if player != nil {
		s.persistPlayerState(sess, player)
		s.persistEvent(sess, "player_ready", EventPayload{
			SessionID: sess.ID,
			PlayerID:  player.ID,
			Ready:     ready,
		})
	}
	s.broadcastSession(sessionID)
	return sess, nil
}
