package server

import "time"

// SnapshotForViewer locks the store and builds the viewer's session view.
func (s *Server) SnapshotForViewer(sessionID, viewerUserID string) (map[string]any, bool) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	sess, ok := s.store.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return snapshotForViewer(sess, viewerUserID), true
}

// snapshotForViewer builds the complete session view for one viewer.
// Impostor identity is redacted for everyone except the impostor themselves
// until the session ends; the round prompt is selected per viewer so the
// impostor only ever sees the decoy.
func snapshotForViewer(sess *Session, viewerUserID string) map[string]any {
	viewer, viewerInRoster := findLivePlayerByUser(sess, viewerUserID)
	revealAll := sess.State == sessionEnded

	players := make([]map[string]any, 0, len(sess.Players))
	for i := range sess.Players {
		p := &sess.Players[i]
		if p.Departed && sess.State == sessionLobby {
			continue
		}
		entry := map[string]any{
			"id":         p.ID,
			"name":       p.Name,
			"is_host":    p.IsHost,
			"ready":      p.Ready,
			"eliminated": p.Eliminated,
			"departed":   p.Departed,
			"score":      p.Score,
		}
		if revealAll || (viewerInRoster && viewer.ID == p.ID) {
			entry["is_impostor"] = p.IsImpostor
		}
		players = append(players, entry)
	}

	snapshot := map[string]any{
		"session_id":      sess.ID,
		"join_code":       sess.JoinCode,
		"state":           sess.State,
		"prompt_kind":     sess.PromptKind,
		"max_players":     sess.MaxPlayers,
		"max_rounds":      sess.MaxRounds,
		"round_number":    sess.RoundNumber,
		"current_players": currentPlayerCount(sess),
		"players":         players,
		"created_at":      formatSnapshotTime(sess.CreatedAt),
		"started_at":      formatSnapshotTime(sess.StartedAt),
		"ended_at":        formatSnapshotTime(sess.EndedAt),
		"can_join":        sess.State == sessionLobby && currentPlayerCount(sess) < sess.MaxPlayers,
	}

	if round := currentRound(sess); round != nil {
		snapshot["round"] = snapshotRound(sess, round, viewer, revealAll)
	}
	return snapshot
}

func snapshotRound(sess *Session, round *Round, viewer *Player, revealAll bool) map[string]any {
	answers := make([]map[string]any, 0, len(round.Answers))
	hasAnswered := false
	for _, answer := range round.Answers {
		if viewer != nil && answer.PlayerID == viewer.ID {
			hasAnswered = true
		}
		answers = append(answers, map[string]any{
			"player_id": answer.PlayerID,
			"text":      answer.Text,
			"edited":    answer.Edited,
		})
	}
	votes := make([]map[string]any, 0, len(round.Votes))
	hasVoted := false
	for _, vote := range round.Votes {
		if viewer != nil && vote.VoterID == viewer.ID {
			hasVoted = true
		}
		votes = append(votes, map[string]any{
			"voter_id":  vote.VoterID,
			"target_id": vote.TargetID,
			"reason":    vote.Reason,
		})
	}

	entry := map[string]any{
		"number":       round.Number,
		"state":        round.State,
		"answers":      answers,
		"votes":        votes,
		"has_answered": hasAnswered,
		"has_voted":    hasVoted,
	}
	if round.TimeLimitSeconds > 0 && !round.TimerStartedAt.IsZero() {
		entry["time_limit_seconds"] = round.TimeLimitSeconds
		entry["timer_expires_at"] = round.TimerStartedAt.
			Add(time.Duration(round.TimeLimitSeconds) * time.Second).Format(time.RFC3339)
	}
	if round.Prompt != nil {
		entry["prompt"] = viewerPromptText(round, viewer)
		entry["prompt_category"] = round.Prompt.Category
		if revealAll || round.State == roundEnded {
			entry["prompt_true"] = round.Prompt.TrueText
			entry["prompt_decoy"] = round.Prompt.DecoyText
		}
	}
	if round.State == roundEnded {
		entry["eliminated_player_id"] = round.EliminatedPlayerID
		entry["impostor_eliminated"] = round.ImpostorEliminated
		if round.GuessSubmitted {
			entry["impostor_guess"] = round.GuessText
			entry["impostor_guess_correct"] = round.GuessCorrect
		}
	}
	return entry
}

func viewerPromptText(round *Round, viewer *Player) string {
	if round.Prompt == nil {
		return ""
	}
	if viewer != nil && viewer.IsImpostor {
		return round.Prompt.DecoyText
	}
	return round.Prompt.TrueText
}

func formatSnapshotTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
