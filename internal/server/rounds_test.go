package server

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCreateRoundRejectsDuplicate(t *testing.T) {
	srv := newGameServer(t, 20)
	sess := buildStartedSession(t, srv, SessionOptions{ImpostorCount: 1}, "Ana", "Ben", "Cara")
	if _, err := srv.CreateCurrentRound(sess.ID); err != errRoundAlreadyOpen {
		t.Fatalf("expected errRoundAlreadyOpen, got %v", err)
	}
}

func TestCreateRoundNeedsActiveSession(t *testing.T) {
	srv := newGameServer(t, 21)
	sess := buildLobby(t, srv, SessionOptions{}, "Ana", "Ben")
	if _, err := srv.CreateCurrentRound(sess.ID); err != errSessionNotActive {
		t.Fatalf("expected errSessionNotActive, got %v", err)
	}
}

func TestSubmitAnswerUpsertKeepsLatestText(t *testing.T) {
	srv := newGameServer(t, 22)
	sess := buildStartedSession(t, srv, SessionOptions{ImpostorCount: 1}, "Ana", "Ben", "Cara")

	if _, err := srv.SubmitAnswer(sess.ID, userFor("Ana"), "First Thought"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	round := currentRound(sess)
	if len(round.Answers) != 1 || round.Answers[0].Edited {
		t.Fatalf("first answer should not be marked edited: %+v", round.Answers)
	}
	if _, err := srv.SubmitAnswer(sess.ID, userFor("Ana"), "  Second Thought  "); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if len(round.Answers) != 1 {
		t.Fatalf("resubmission must overwrite, got %d answers", len(round.Answers))
	}
	answer := round.Answers[0]
	if answer.Text != "Second Thought" {
		t.Fatalf("expected trimmed latest text, got %q", answer.Text)
	}
	if answer.Normalized != "second thought" {
		t.Fatalf("expected case-folded normalized form, got %q", answer.Normalized)
	}
	if !answer.Edited {
		t.Fatal("overwritten answer must carry the edited flag")
	}
}

func TestAnswerValidation(t *testing.T) {
	srv := newGameServer(t, 23)
	sess := buildStartedSession(t, srv, SessionOptions{ImpostorCount: 1}, "Ana", "Ben", "Cara")

	cases := []string{
		"",
		"   ",
		strings.Repeat("x", maxAnswerLength+1),
		"bell\x07char",
	}
	for _, text := range cases {
		if _, err := srv.SubmitAnswer(sess.ID, userFor("Ana"), text); err == nil {
			t.Fatalf("expected rejection for %q", text)
		}
	}
	if _, err := srv.SubmitAnswer(sess.ID, "user-stranger", "fine"); err != errNotInSession {
		t.Fatalf("stranger answer: expected errNotInSession, got %v", err)
	}
}

func TestAnswerThresholdOpensVoting(t *testing.T) {
	srv := newGameServer(t, 24)
	names := []string{"Ana", "Ben", "Cara", "Dan"}
	sess := buildStartedSession(t, srv, SessionOptions{ImpostorCount: 1}, names...)

	for i, name := range names {
		if _, err := srv.SubmitAnswer(sess.ID, userFor(name), "answer"); err != nil {
			t.Fatalf("answer %s: %v", name, err)
		}
		round := currentRound(sess)
		if i < len(names)-1 && round.State != roundActive {
			t.Fatalf("voting opened after only %d answers", i+1)
		}
	}
	if got := currentRound(sess).State; got != roundVoting {
		t.Fatalf("expected voting after the final answer, got %s", got)
	}
	if _, err := srv.SubmitAnswer(sess.ID, userFor("Ana"), "too late"); err != errRoundNotActive {
		t.Fatalf("answer after voting opened: expected errRoundNotActive, got %v", err)
	}
}

// Racing submissions must produce exactly one round transition and never a
// second round.
func TestConcurrentAnswersSingleTransition(t *testing.T) {
	srv := newGameServer(t, 25)
	names := []string{"Ana", "Ben", "Cara", "Dan"}
	sess := buildStartedSession(t, srv, SessionOptions{ImpostorCount: 1}, names...)

	var wg sync.WaitGroup
	for _, name := range names {
		for rep := 0; rep < 3; rep++ {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				// Late submissions may find voting already open.
				if _, err := srv.SubmitAnswer(sess.ID, userFor(name), "answer from "+name); err != nil && err != errRoundNotActive {
					t.Errorf("answer %s: %v", name, err)
				}
			}(name)
		}
	}
	wg.Wait()

	sess, _ = srv.store.GetSession(sess.ID)
	if len(sess.Rounds) != 1 {
		t.Fatalf("expected a single round, got %d", len(sess.Rounds))
	}
	if got := currentRound(sess).State; got != roundVoting {
		t.Fatalf("expected voting, got %s", got)
	}
	if got := len(currentRound(sess).Answers); got != len(names) {
		t.Fatalf("expected %d answer entries, got %d", len(names), got)
	}
}

func TestEliminatedPlayerCannotAnswer(t *testing.T) {
	srv := newGameServer(t, 26)
	names := []string{"Ana", "Ben", "Cara", "Dan", "Eve"}
	sess := buildStartedSession(t, srv, SessionOptions{ImpostorCount: 1}, names...)
	submitAllAnswers(t, srv, sess, names)

	crew := crewNames(sess, names)
	target := playerByName(t, sess, crew[0])
	for _, name := range names {
		if name == crew[0] {
			continue
		}
		if _, err := srv.SubmitVote(sess.ID, userFor(name), target.ID, ""); err != nil {
			t.Fatalf("vote %s: %v", name, err)
		}
		// Resolution appends the next round, so check the round voted on.
		if sess.Rounds[0].State == roundEnded {
			break
		}
	}
	if !target.Eliminated {
		t.Fatal("target not eliminated")
	}
	if sess.State != sessionActive {
		t.Fatalf("session should continue, state=%s", sess.State)
	}
	if _, err := srv.SubmitAnswer(sess.ID, userFor(crew[0]), "ghost answer"); err != errPlayerEliminated {
		t.Fatalf("eliminated answer: expected errPlayerEliminated, got %v", err)
	}
}

// A submission after the answer window closes is rejected, but the expiry
// still opens voting with the answers already on record.
func TestExpiredAnswerPhaseOpensVoting(t *testing.T) {
	srv := newGameServer(t, 27)
	sess := buildStartedSession(t, srv, SessionOptions{ImpostorCount: 1, RoundSeconds: 30}, "Ana", "Ben", "Cara")

	if _, err := srv.SubmitAnswer(sess.ID, userFor("Ana"), "in time"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := srv.store.UpdateSession(sess.ID, func(sess *Session) error {
		currentRound(sess).TimerStartedAt = timeNowUTC().Add(-time.Minute)
		return nil
	}); err != nil {
		t.Fatalf("rewind timer: %v", err)
	}
	if _, err := srv.SubmitAnswer(sess.ID, userFor("Ben"), "late"); err != errTimeExpired {
		t.Fatalf("expected errTimeExpired, got %v", err)
	}
	round := currentRound(sess)
	if round.State != roundVoting {
		t.Fatalf("expired round should open voting, got %s", round.State)
	}
	if len(round.Answers) != 1 {
		t.Fatalf("late answer must not be recorded, got %d answers", len(round.Answers))
	}
	if roundExpired(round, timeNowUTC()) {
		t.Fatal("voting phase should start a fresh timer window")
	}
}

// A vote after the voting window closes does not count, but the expiry
// resolves the round with the votes already cast.
func TestExpiredVotingRoundResolvesWithCastVotes(t *testing.T) {
	srv := newGameServer(t, 29)
	names := []string{"Ana", "Ben", "Cara", "Dan"}
	sess := buildStartedSession(t, srv, SessionOptions{ImpostorCount: 1, RoundSeconds: 30}, names...)
	submitAllAnswers(t, srv, sess, names)

	crew := crewNames(sess, names)
	impostor := playerByName(t, sess, impostorNames(sess, names)[0])
	if _, err := srv.SubmitVote(sess.ID, userFor(crew[0]), impostor.ID, ""); err != nil {
		t.Fatalf("vote %s: %v", crew[0], err)
	}
	if _, err := srv.store.UpdateSession(sess.ID, func(sess *Session) error {
		currentRound(sess).TimerStartedAt = timeNowUTC().Add(-time.Minute)
		return nil
	}); err != nil {
		t.Fatalf("rewind timer: %v", err)
	}
	if _, err := srv.SubmitVote(sess.ID, userFor(crew[1]), impostor.ID, ""); err != errTimeExpired {
		t.Fatalf("expected errTimeExpired, got %v", err)
	}
	round := &sess.Rounds[0]
	if round.State != roundEnded {
		t.Fatalf("expired voting round should resolve, got %s", round.State)
	}
	if len(round.Votes) != 1 {
		t.Fatalf("late vote must not be recorded, got %d votes", len(round.Votes))
	}
	if !impostor.Eliminated {
		t.Fatal("sole-max target of the cast votes should be eliminated")
	}
	if sess.State != sessionEnded {
		t.Fatalf("expected session to end with no impostor left, got %s", sess.State)
	}
}

func TestHostReviewFlow(t *testing.T) {
	srv := newGameServer(t, 28)
	names := []string{"Ana", "Ben", "Cara"}
	sess := buildStartedSession(t, srv, SessionOptions{ImpostorCount: 1}, names...)

	if _, err := srv.CloseAnswers(sess.ID, userFor("Ben")); err != errNotHost {
		t.Fatalf("non-host close: expected errNotHost, got %v", err)
	}
	if _, err := srv.CloseAnswers(sess.ID, userFor("Ana")); err != nil {
		t.Fatalf("close answers: %v", err)
	}
	if got := currentRound(sess).State; got != roundReview {
		t.Fatalf("expected review, got %s", got)
	}
	target := playerByName(t, sess, "Cara")
	if _, err := srv.SubmitVote(sess.ID, userFor("Ben"), target.ID, ""); err != errVotingNotActive {
		t.Fatalf("vote during review: expected errVotingNotActive, got %v", err)
	}
	if _, err := srv.OpenVoting(sess.ID, userFor("Ana")); err != nil {
		t.Fatalf("open voting: %v", err)
	}
	if got := currentRound(sess).State; got != roundVoting {
		t.Fatalf("expected voting, got %s", got)
	}
	if _, err := srv.OpenVoting(sess.ID, userFor("Ana")); err != errRoundNotInReview {
		t.Fatalf("reopen voting: expected errRoundNotInReview, got %v", err)
	}
}
