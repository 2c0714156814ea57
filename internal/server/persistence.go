package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"undercover/internal/db"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

// Persistence is write-through: the in-memory store is authoritative and a
// nil DB disables every function here. Failures are logged by callers, not
// surfaced to players.

func (s *Server) persistSession(sess *Session) error {
	if s.db == nil {
		return nil
	}
	record := db.Session{
		JoinCode:      sess.JoinCode,
		PrivateCode:   sess.PrivateCode,
		HostUserID:    sess.HostUserID,
		State:         sess.State,
		PromptKind:    sess.PromptKind,
		MaxPlayers:    sess.MaxPlayers,
		ImpostorCount: sess.ImpostorCount,
		MaxRounds:     sess.MaxRounds,
		RoundSeconds:  sess.RoundSeconds,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	sess.DBID = record.ID
	newID := fmt.Sprintf("session-%d", record.ID)
	if sess.ID != newID {
		s.store.UpdateSessionID(sess, newID)
	}
	return s.persistEvent(sess, "session_created", EventPayload{
		SessionID: sess.ID,
		JoinCode:  sess.JoinCode,
	})
}

func (s *Server) persistSessionState(sess *Session) error {
	if s.db == nil {
		return nil
	}
	if err := s.ensureSessionDBID(sess); err != nil {
		return err
	}
	if sess.DBID == 0 {
		return errSessionNotFound
	}
	updates := map[string]any{
		"state":        sess.State,
		"round_number": sess.RoundNumber,
	}
	if !sess.StartedAt.IsZero() {
		updates["started_at"] = sess.StartedAt
	}
	if !sess.EndedAt.IsZero() {
		updates["ended_at"] = sess.EndedAt
	}
	return s.db.Model(&db.Session{}).Where("id = ?", sess.DBID).Updates(updates).Error
}

func (s *Server) persistPlayer(sess *Session, player *Player) error {
	if s.db == nil {
		return nil
	}
	if player.DBID != 0 {
		return nil
	}
	if err := s.ensureSessionDBID(sess); err != nil {
		return err
	}
	if sess.DBID == 0 {
		return errSessionNotFound
	}
	record := db.Player{
		SessionID: sess.DBID,
		UserID:    player.UserID,
		Name:      player.Name,
		IsHost:    player.IsHost,
		JoinedAt:  player.JoinedAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}
	player.DBID = record.ID
	return s.persistEvent(sess, "player_joined", EventPayload{
		SessionID:  sess.ID,
		PlayerID:   player.ID,
		PlayerName: player.Name,
	})
}

func (s *Server) persistPlayerState(sess *Session, player *Player) error {
	if s.db == nil || player == nil {
		return nil
	}
	if player.DBID == 0 {
		if err := s.persistPlayer(sess, player); err != nil {
			return err
		}
	}
	if player.DBID == 0 {
		return errNotInSession
	}
	updates := map[string]any{
		"is_host":     player.IsHost,
		"is_impostor": player.IsImpostor,
		"ready":       player.Ready,
		"eliminated":  player.Eliminated,
		"score":       player.Score,
	}
	if player.Departed && !player.LeftAt.IsZero() {
		updates["left_at"] = player.LeftAt
	}
	return s.db.Model(&db.Player{}).Where("id = ?", player.DBID).Updates(updates).Error
}

// persistEliminations syncs every roster entry's sticky flags and score.
// Used after resolutions, which can touch several players at once.
func (s *Server) persistEliminations(sess *Session) {
	if s.db == nil {
		return
	}
	for i := range sess.Players {
		_ = s.persistPlayerState(sess, &sess.Players[i])
	}
}

func (s *Server) persistRound(sess *Session, round *Round) error {
	if s.db == nil || round == nil {
		return nil
	}
	if round.DBID != 0 {
		return nil
	}
	if err := s.ensureSessionDBID(sess); err != nil {
		return err
	}
	if sess.DBID == 0 {
		return errSessionNotFound
	}
	record := db.Round{
		SessionID:        sess.DBID,
		Number:           round.Number,
		State:            round.State,
		TimeLimitSeconds: round.TimeLimitSeconds,
	}
	if !round.TimerStartedAt.IsZero() {
		at := round.TimerStartedAt
		record.TimerStartedAt = &at
	}
	if round.Prompt != nil && round.Prompt.DBID != 0 {
		id := round.Prompt.DBID
		if round.Prompt.Kind == promptKindWord {
			record.WordPairID = &id
		} else {
			record.QuestionPairID = &id
		}
	}
	if impostor, ok := findPlayerByID(sess, round.ImpostorPlayerID); ok && impostor.DBID != 0 {
		id := impostor.DBID
		record.ImpostorPlayerID = &id
	}
	if err := s.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			var existing db.Round
			if lookupErr := s.db.Where("session_id = ? AND number = ?", sess.DBID, round.Number).
				First(&existing).Error; lookupErr == nil {
				round.DBID = existing.ID
				return nil
			}
		}
		return err
	}
	round.DBID = record.ID
	return nil
}

func (s *Server) persistRoundState(sess *Session, round *Round) error {
	if s.db == nil || round == nil {
		return nil
	}
	if round.DBID == 0 {
		if err := s.persistRound(sess, round); err != nil {
			return err
		}
	}
	if round.DBID == 0 {
		return errRoundNotFound
	}
	updates := map[string]any{
		"state":         round.State,
		"guess_text":    round.GuessText,
		"guess_correct": round.GuessCorrect,
	}
	return s.db.Model(&db.Round{}).Where("id = ?", round.DBID).Updates(updates).Error
}

// persistAnswer relies on the (round_id, player_id) unique index: the
// conflict clause turns the write into the same upsert the store performed
// in memory.
func (s *Server) persistAnswer(sess *Session, round *Round, entry *AnswerEntry) error {
	if s.db == nil || entry == nil {
		return nil
	}
	if round == nil {
		return errRoundNotFound
	}
	if round.DBID == 0 {
		if err := s.persistRound(sess, round); err != nil {
			return err
		}
	}
	player, ok := findPlayerByID(sess, entry.PlayerID)
	if !ok || player.DBID == 0 {
		return errNotInSession
	}
	record := db.Answer{
		RoundID:    round.DBID,
		PlayerID:   player.DBID,
		Text:       entry.Text,
		Normalized: entry.Normalized,
		Edited:     entry.Edited,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "round_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "normalized", "edited", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return err
	}
	entry.DBID = record.ID
	return nil
}

func (s *Server) persistVote(sess *Session, round *Round, entry *VoteEntry) error {
	if s.db == nil || entry == nil {
		return nil
	}
	if round == nil {
		return errRoundNotFound
	}
	if round.DBID == 0 {
		if err := s.persistRound(sess, round); err != nil {
			return err
		}
	}
	voter, ok := findPlayerByID(sess, entry.VoterID)
	if !ok || voter.DBID == 0 {
		return errNotInSession
	}
	target, ok := findPlayerByID(sess, entry.TargetID)
	if !ok || target.DBID == 0 {
		return errNotInSession
	}
	record := db.Vote{
		RoundID:  round.DBID,
		VoterID:  voter.DBID,
		TargetID: target.DBID,
		Reason:   entry.Reason,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "round_id"}, {Name: "voter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"target_id", "reason", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return err
	}
	entry.DBID = record.ID
	return nil
}

func (s *Server) persistEvent(sess *Session, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	if err := s.ensureSessionDBID(sess); err != nil {
		return err
	}
	if sess.DBID == 0 {
		return errSessionNotFound
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		SessionID: sess.DBID,
		RoundID:   s.resolveEventRoundID(sess),
		PlayerID:  s.resolveEventPlayerID(sess, payload),
		Type:      eventType,
		Payload:   datatypes.JSON(data),
	}
	return s.db.Create(&event).Error
}

func (s *Server) resolveEventRoundID(sess *Session) *uint {
	round := currentRound(sess)
	if round == nil || round.DBID == 0 {
		return nil
	}
	id := round.DBID
	return &id
}

func (s *Server) resolveEventPlayerID(sess *Session, payload EventPayload) *uint {
	if payload.PlayerID <= 0 {
		return nil
	}
	player, ok := findPlayerByID(sess, payload.PlayerID)
	if !ok || player.DBID == 0 {
		return nil
	}
	id := player.DBID
	return &id
}

func (s *Server) ensureSessionDBID(sess *Session) error {
	if s.db == nil || sess.DBID != 0 {
		return nil
	}
	var record db.Session
	if err := s.db.Where("join_code = ? AND state <> ?", sess.JoinCode, sessionEnded).
		First(&record).Error; err != nil {
		return nil
	}
	sess.DBID = record.ID
	return nil
}

// ListEvents returns the persisted audit trail for a session, oldest first.
func (s *Server) ListEvents(sess *Session) ([]db.Event, error) {
	if s.db == nil {
		return nil, nil
	}
	if err := s.ensureSessionDBID(sess); err != nil {
		return nil, err
	}
	if sess.DBID == 0 {
		return nil, nil
	}
	var events []db.Event
	if err := s.db.Where("session_id = ?", sess.DBID).Order("id asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteSessionCascade removes a session row and everything it owns.
// Players with recorded votes are protected by restrict rules, so rounds
// (and their answers/votes) go first.
func (s *Server) DeleteSessionCascade(sess *Session) error {
	if s.db == nil {
		return nil
	}
	if err := s.ensureSessionDBID(sess); err != nil {
		return err
	}
	if sess.DBID == 0 {
		return nil
	}
	return s.db.Select("Rounds", "Players", "Events").Delete(&db.Session{ID: sess.DBID}).Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
