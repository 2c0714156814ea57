package server

import (
	"net/http"

	"undercover/internal/config"

	"gorm.io/gorm"
)

type Server struct {
	store *Store
	db    *gorm.DB
	ws    *wsHub
	cfg   config.Config
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	store := NewStore()
	store.SetCodePolicy(cfg.CodeLength, cfg.CodeAttempts)
	return &Server{
		store: store,
		db:    conn,
		ws:    newWSHub(),
		cfg:   cfg,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("POST /api/sessions/join", s.handleJoinSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("GET /api/sessions/{id}/qr", s.handleSessionQR)
	mux.HandleFunc("GET /api/sessions/{id}/events", s.handleSessionEvents)
	mux.HandleFunc("POST /api/sessions/{id}/ready", s.handleReady)
	mux.HandleFunc("POST /api/sessions/{id}/leave", s.handleLeave)
	mux.HandleFunc("POST /api/sessions/{id}/start", s.handleStart)
	mux.HandleFunc("POST /api/sessions/{id}/rounds", s.handleCreateRound)
	mux.HandleFunc("POST /api/sessions/{id}/answers", s.handleSubmitAnswer)
	mux.HandleFunc("POST /api/sessions/{id}/answers/close", s.handleCloseAnswers)
	mux.HandleFunc("POST /api/sessions/{id}/voting", s.handleOpenVoting)
	mux.HandleFunc("POST /api/sessions/{id}/votes", s.handleSubmitVote)
	mux.HandleFunc("POST /api/sessions/{id}/guess", s.handleImpostorGuess)
	mux.HandleFunc("POST /api/prompts/{kind}/{id}/rating", s.handleRatePrompt)
	mux.HandleFunc("GET /ws/sessions/{id}", s.handleWebsocket)
	return mux
}
