package server

import (
	"math/rand"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"undercover/internal/config"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func newGameServer(t *testing.T, seed int64) *Server {
	t.Helper()
	srv := New(nil, config.Default())
	srv.store.SetRand(rand.New(rand.NewSource(seed)))
	return srv
}

func userFor(name string) string {
	return "user-" + name
}

// buildLobby creates a session hosted by the first name and joins the rest.
func buildLobby(t *testing.T, srv *Server, opts SessionOptions, names ...string) *Session {
	t.Helper()
	if len(names) == 0 {
		t.Fatal("buildLobby needs at least a host")
	}
	if opts.PromptKind == "" {
		opts.PromptKind = promptKindQuestion
	}
	if opts.MaxPlayers == 0 {
		opts.MaxPlayers = 8
	}
	if opts.MaxRounds == 0 {
		opts.MaxRounds = 5
	}
	sess, err := srv.store.CreateSession(userFor(names[0]), names[0], opts)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, name := range names[1:] {
		if _, _, err := srv.store.JoinSession(sess.JoinCode, userFor(name), name); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
	}
	return sess
}

// buildStartedSession readies everyone and starts the session.
func buildStartedSession(t *testing.T, srv *Server, opts SessionOptions, names ...string) *Session {
	t.Helper()
	sess := buildLobby(t, srv, opts, names...)
	for _, name := range names {
		if _, err := srv.SetReady(sess.ID, userFor(name), true); err != nil {
			t.Fatalf("ready %s: %v", name, err)
		}
	}
	sess, warning, err := srv.StartSession(sess.ID, userFor(names[0]))
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if warning != "" {
		t.Fatalf("unexpected start warning: %s", warning)
	}
	return sess
}

func playerByName(t *testing.T, sess *Session, name string) *Player {
	t.Helper()
	for i := range sess.Players {
		if sess.Players[i].Name == name {
			return &sess.Players[i]
		}
	}
	t.Fatalf("player %s not found", name)
	return nil
}

func crewNames(sess *Session, names []string) []string {
	crew := make([]string, 0, len(names))
	for _, name := range names {
		for i := range sess.Players {
			if sess.Players[i].Name == name && !sess.Players[i].IsImpostor {
				crew = append(crew, name)
			}
		}
	}
	return crew
}

func impostorNames(sess *Session, names []string) []string {
	impostors := make([]string, 0, len(names))
	for _, name := range names {
		for i := range sess.Players {
			if sess.Players[i].Name == name && sess.Players[i].IsImpostor {
				impostors = append(impostors, name)
			}
		}
	}
	return impostors
}

// submitAllAnswers pushes the round into voting by answering for everyone.
func submitAllAnswers(t *testing.T, srv *Server, sess *Session, names []string) {
	t.Helper()
	for _, name := range names {
		player := playerByName(t, sess, name)
		if player.Departed || player.Eliminated {
			continue
		}
		if _, err := srv.SubmitAnswer(sess.ID, userFor(name), "answer from "+name); err != nil {
			t.Fatalf("answer %s: %v", name, err)
		}
	}
}
