package server

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

type createSessionRequest struct {
	Name          string `json:"name"`
	PromptKind    string `json:"prompt_kind"`
	MaxPlayers    int    `json:"max_players"`
	ImpostorCount int    `json:"impostor_count"`
	MaxRounds     int    `json:"max_rounds"`
	RoundSeconds  int    `json:"round_seconds"`
	PrivateCode   string `json:"private_code"`
}

type joinSessionRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type readyRequest struct {
	Ready bool `json:"ready"`
}

type answerRequest struct {
	Text string `json:"text"`
}

type voteRequest struct {
	TargetID int    `json:"target_id"`
	Reason   string `json:"reason"`
}

type guessRequest struct {
	Text string `json:"text"`
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := validatePromptKind(req.PromptKind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxPlayers, err := validateMaxPlayers(req.MaxPlayers, s.cfg.MaxPlayers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxRounds := req.MaxRounds
	if maxRounds <= 0 {
		maxRounds = s.cfg.MaxRounds
	}
	roundSeconds := req.RoundSeconds
	if roundSeconds < 0 {
		roundSeconds = s.cfg.RoundSeconds
	}

	userID := viewerID(w, r)
	sess, err := s.store.CreateSession(userID, name, SessionOptions{
		PromptKind:    kind,
		MaxPlayers:    maxPlayers,
		ImpostorCount: req.ImpostorCount,
		MaxRounds:     maxRounds,
		RoundSeconds:  roundSeconds,
		PrivateCode:   strings.TrimSpace(req.PrivateCode),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.persistSession(sess); err != nil {
		log.Printf("persist session failed session_id=%s err=%v", sess.ID, err)
	}
	if host, ok := findLivePlayerByUser(sess, userID); ok {
		if err := s.persistPlayer(sess, host); err != nil {
			log.Printf("persist host failed session_id=%s err=%v", sess.ID, err)
		}
	}
	log.Printf("session created session_id=%s join_code=%s kind=%s", sess.ID, sess.JoinCode, kind)
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"join_code":  sess.JoinCode,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	summaries := s.store.ListSessionSummaries()
	list := make([]map[string]any, 0, len(summaries))
	for _, summary := range summaries {
		list = append(list, map[string]any{
			"session_id":  summary.ID,
			"join_code":   summary.JoinCode,
			"state":       summary.State,
			"prompt_kind": summary.PromptKind,
			"players":     summary.Players,
			"max_players": summary.MaxPlayers,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	var req joinSessionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID := viewerID(w, r)
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	sess, player, err := s.store.JoinSession(code, userID, name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.persistPlayer(sess, player); err != nil {
		log.Printf("persist player failed session_id=%s err=%v", sess.ID, err)
	}
	log.Printf("player joined session_id=%s player_id=%d", sess.ID, player.ID)
	s.broadcastSession(sess.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"player_id":  player.ID,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID := viewerID(w, r)
	snapshot, ok := s.SnapshotForViewer(r.PathValue("id"), userID)
	if !ok {
		writeError(w, http.StatusNotFound, errSessionNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleSessionQR(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.GetSession(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errSessionNotFound.Error())
		return
	}
	url := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/join/" + sess.JoinCode
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.GetSession(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errSessionNotFound.Error())
		return
	}
	events, err := s.ListEvents(sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	list := make([]map[string]any, 0, len(events))
	for _, event := range events {
		list = append(list, map[string]any{
			"type":       event.Type,
			"payload":    event.Payload,
			"created_at": event.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": list})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	var req readyRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := viewerID(w, r)
	sess, err := s.SetReady(r.PathValue("id"), userID, req.Ready)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotForSessionViewer(s, sess.ID, userID))
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	userID := viewerID(w, r)
	sess, err := s.Leave(r.PathValue("id"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotForSessionViewer(s, sess.ID, userID))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	userID := viewerID(w, r)
	sess, warning, err := s.StartSession(r.PathValue("id"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	payload := snapshotForSessionViewer(s, sess.ID, userID)
	if warning != "" {
		payload["warning"] = warning
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCreateRound(w http.ResponseWriter, r *http.Request) {
	userID := viewerID(w, r)
	sess, err := s.CreateCurrentRound(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotForSessionViewer(s, sess.ID, userID))
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := viewerID(w, r)
	sess, err := s.SubmitAnswer(r.PathValue("id"), userID, req.Text)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotForSessionViewer(s, sess.ID, userID))
}

func (s *Server) handleCloseAnswers(w http.ResponseWriter, r *http.Request) {
	userID := viewerID(w, r)
	sess, err := s.CloseAnswers(r.PathValue("id"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotForSessionViewer(s, sess.ID, userID))
}

func (s *Server) handleOpenVoting(w http.ResponseWriter, r *http.Request) {
	userID := viewerID(w, r)
	sess, err := s.OpenVoting(r.PathValue("id"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotForSessionViewer(s, sess.ID, userID))
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := viewerID(w, r)
	sess, err := s.SubmitVote(r.PathValue("id"), userID, req.TargetID, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotForSessionViewer(s, sess.ID, userID))
}

func (s *Server) handleImpostorGuess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := viewerID(w, r)
	sess, correct, err := s.SubmitImpostorGuess(r.PathValue("id"), userID, req.Text)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	payload := snapshotForSessionViewer(s, sess.ID, userID)
	payload["guess_correct"] = correct
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleRatePrompt(w http.ResponseWriter, r *http.Request) {
	var req ratingRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	kind := r.PathValue("kind")
	if kind != promptKindQuestion && kind != promptKindWord {
		writeError(w, http.StatusBadRequest, errUnknownPromptKind.Error())
		return
	}
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prompt id")
		return
	}
	if err := s.RatePrompt(kind, uint(id), req.Rating); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// snapshotForSessionViewer is the common success payload: the caller's
// fresh view of the session.
func snapshotForSessionViewer(s *Server, sessionID, userID string) map[string]any {
	snapshot, ok := s.SnapshotForViewer(sessionID, userID)
	if !ok {
		return map[string]any{"session_id": sessionID}
	}
	return snapshot
}
