package server

import (
	"log"
	"time"
)

// CreateCurrentRound creates the round matching the session's round counter.
// It is also the repair path after a degraded start: calling it again for a
// counter whose round already exists is rejected, so retries are safe. The
// prompt is fetched before the store mutex is taken; content selection never
// runs under the lock.
func (s *Server) CreateCurrentRound(sessionID string) (*Session, error) {
	sess, ok := s.store.GetSession(sessionID)
	if !ok {
		return nil, errSessionNotFound
	}
	prompt := s.randomActivePrompt(sess.PromptKind)
	if prompt == nil {
		log.Printf("no active prompt available session_id=%s kind=%s", sessionID, sess.PromptKind)
	}

	var created *Round
	sess, err := s.store.UpdateSession(sessionID, func(sess *Session) error {
		if sess.State != sessionActive {
			return errSessionNotActive
		}
		if round := currentRound(sess); round != nil &&
			round.Number == sess.RoundNumber && round.State != roundEnded {
			return errRoundAlreadyOpen
		}
		if round := currentRound(sess); round != nil && round.Number >= sess.RoundNumber {
			return errRoundAlreadyOpen
		}
		if aliveImpostorCount(sess) == 0 {
			return errNoImpostorAlive
		}
		round := Round{
			Number:           sess.RoundNumber,
			State:            roundActive,
			Prompt:           prompt,
			ImpostorPlayerID: firstAliveImpostorID(sess),
			TimeLimitSeconds: sess.RoundSeconds,
		}
		if round.TimeLimitSeconds > 0 {
			round.TimerStartedAt = timeNowUTC()
		}
		sess.Rounds = append(sess.Rounds, round)
		created = currentRound(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistRound(sess, created); err != nil {
		log.Printf("persist round failed session_id=%s round=%d err=%v", sess.ID, created.Number, err)
	}
	s.persistEvent(sess, "round_created", EventPayload{
		SessionID:   sess.ID,
		RoundNumber: created.Number,
	})
	log.Printf("round created session_id=%s round=%d", sess.ID, created.Number)
	s.broadcastSession(sessionID)
	return sess, nil
}

func firstAliveImpostorID(sess *Session) int {
	for i := range sess.Players {
		p := &sess.Players[i]
		if p.IsImpostor && playerAlive(p) {
			return p.ID
		}
	}
	return 0
}

// SubmitAnswer upserts the caller's answer for the current round. When every
// non-eliminated player has answered, the round moves to voting inside the
// same store mutation, so two racing submissions cannot both observe the
// threshold unmet and neither, nor both, fire the transition twice.
func (s *Server) SubmitAnswer(sessionID, userID, text string) (*Session, error) {
	text, err := validateAnswer(text)
	if err != nil {
		return nil, err
	}
	var (
		entry       *AnswerEntry
		round       *Round
		roundNumber int
		playerID    int
		expired     bool
		advanced    bool
	)
	sess, err := s.store.UpdateSession(sessionID, func(sess *Session) error {
		player, ok := findLivePlayerByUser(sess, userID)
		if !ok {
			return errNotInSession
		}
		if player.Eliminated {
			return errPlayerEliminated
		}
		round = currentRound(sess)
		if round == nil {
			return errRoundNotFound
		}
		roundNumber = round.Number
		if round.State != roundActive {
			return errRoundNotActive
		}
		if roundExpired(round, timeNowUTC()) {
			// Too late to answer, but the expiry still moves the round
			// along with whatever answers are on record.
			expired = true
			round.State = roundVoting
			if round.TimeLimitSeconds > 0 {
				round.TimerStartedAt = timeNowUTC()
			}
			return nil
		}
		playerID = player.ID
		entry = upsertAnswer(round, player.ID, text)
		advanced = maybeCloseAnswers(round, sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		s.persistRoundState(sess, round)
		s.persistEvent(sess, "voting_opened", EventPayload{
			SessionID:   sess.ID,
			RoundNumber: roundNumber,
		})
		log.Printf("voting opened session_id=%s round=%d", sess.ID, roundNumber)
		s.broadcastSession(sessionID)
		return nil, errTimeExpired
	}
	s.persistAnswer(sess, round, entry)
	s.persistEvent(sess, "answer_submitted", EventPayload{
		SessionID:   sess.ID,
		PlayerID:    playerID,
		RoundNumber: roundNumber,
	})
	if advanced {
		s.persistRoundState(sess, round)
		s.persistEvent(sess, "voting_opened", EventPayload{
			SessionID:   sess.ID,
			RoundNumber: roundNumber,
		})
		log.Printf("voting opened session_id=%s round=%d", sess.ID, roundNumber)
	}
	s.broadcastSession(sessionID)
	return sess, nil
}

func upsertAnswer(round *Round, playerID int, text string) *AnswerEntry {
	now := timeNowUTC()
	for i := range round.Answers {
		if round.Answers[i].PlayerID == playerID {
			round.Answers[i].Text = text
			round.Answers[i].Normalized = normalizeText(text)
			round.Answers[i].Edited = true
			round.Answers[i].UpdatedAt = now
			return &round.Answers[i]
		}
	}
	round.Answers = append(round.Answers, AnswerEntry{
		PlayerID:   playerID,
		Text:       text,
		Normalized: normalizeText(text),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	return &round.Answers[len(round.Answers)-1]
}

// maybeCloseAnswers fires the answer-threshold transition: once every alive
// player has an answer on record, voting opens. Timed rounds get a fresh
// window for the voting phase. Caller holds the store mutex.
func maybeCloseAnswers(round *Round, sess *Session) bool {
	if round.State != roundActive {
		return false
	}
	alive := alivePlayerCount(sess)
	if alive == 0 {
		return false
	}
	answered := 0
	for i := range round.Answers {
		player, ok := findPlayerByID(sess, round.Answers[i].PlayerID)
		if ok && playerAlive(player) {
			answered++
		}
	}
	if answered < alive {
		return false
	}
	round.State = roundVoting
	if round.TimeLimitSeconds > 0 {
		round.TimerStartedAt = timeNowUTC()
	}
	return true
}

func roundExpired(round *Round, now time.Time) bool {
	if round.TimeLimitSeconds <= 0 || round.TimerStartedAt.IsZero() {
		return false
	}
	deadline := round.TimerStartedAt.Add(time.Duration(round.TimeLimitSeconds) * time.Second)
	return now.After(deadline)
}

// CloseAnswers lets the host pause answering before everyone has submitted.
// Review is a holding state; votes are not accepted until voting opens.
func (s *Server) CloseAnswers(sessionID, requesterUserID string) (*Session, error) {
	var round *Round
	var roundNumber int
	sess, err := s.store.UpdateSession(sessionID, func(sess *Session) error {
		if sess.HostUserID != requesterUserID {
			return errNotHost
		}
		round = currentRound(sess)
		if round == nil {
			return errRoundNotFound
		}
		if round.State != roundActive {
			return errRoundNotActive
		}
		round.State = roundReview
		roundNumber = round.Number
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.persistRoundState(sess, round)
	s.persistEvent(sess, "answers_closed", EventPayload{
		SessionID:   sess.ID,
		RoundNumber: roundNumber,
	})
	s.broadcastSession(sessionID)
	return sess, nil
}

// OpenVoting moves a reviewed round into voting.
func (s *Server) OpenVoting(sessionID, requesterUserID string) (*Session, error) {
	var round *Round
	var roundNumber int
	sess, err := s.store.UpdateSession(sessionID, func(sess *Session) error {
		if sess.HostUserID != requesterUserID {
			return errNotHost
		}
		round = currentRound(sess)
		if round == nil {
			return errRoundNotFound
		}
		if round.State != roundReview {
			return errRoundNotInReview
		}
		round.State = roundVoting
		if round.TimeLimitSeconds > 0 {
			round.TimerStartedAt = timeNowUTC()
		}
		roundNumber = round.Number
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.persistRoundState(sess, round)
	s.persistEvent(sess, "voting_opened", EventPayload{
		SessionID:   sess.ID,
		RoundNumber: roundNumber,
	})
	s.broadcastSession(sessionID)
	return sess, nil
}
