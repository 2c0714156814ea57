package server

import "log"

// SubmitImpostorGuess lets an impostor who was just voted out take one shot
// at naming the true prompt. A correct guess is worth 300 points. The guess
// is recorded on the round for the reveal; it never reopens the round.
func (s *Server) SubmitImpostorGuess(sessionID, userID, text string) (*Session, bool, error) {
	text, err := validateAnswer(text)
	if err != nil {
		return nil, false, err
	}
	var correct bool
	var round *Round
	sess, err := s.store.UpdateSession(sessionID, func(sess *Session) error {
		player, ok := findLivePlayerByUser(sess, userID)
		if !ok {
			return errNotInSession
		}
		round = lastRound(sess)
		if round == nil || round.State != roundEnded {
			return errGuessNotAllowed
		}
		if !player.IsImpostor || !player.Eliminated || round.EliminatedPlayerID != player.ID {
			return errGuessNotAllowed
		}
		if round.GuessSubmitted {
			return errGuessNotAllowed
		}
		round.GuessSubmitted = true
		round.GuessText = text
		if round.Prompt != nil && normalizeText(text) == normalizeText(round.Prompt.TrueText) {
			round.GuessCorrect = true
			player.Score += 300
		}
		correct = round.GuessCorrect
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	s.persistRoundState(sess, round)
	s.persistEliminations(sess)
	s.persistEvent(sess, "impostor_guess", EventPayload{
		SessionID: sess.ID,
		Correct:   correct,
	})
	log.Printf("impostor guess session_id=%s correct=%t", sess.ID, correct)
	s.broadcastSession(sessionID)
	return sess, correct, nil
}
