package server

import "testing"

func snapshotPlayers(t *testing.T, snapshot map[string]any) []map[string]any {
	t.Helper()
	players, ok := snapshot["players"].([]map[string]any)
	if !ok {
		t.Fatalf("snapshot players missing: %v", snapshot["players"])
	}
	return players
}

func snapshotRoundEntry(t *testing.T, snapshot map[string]any) map[string]any {
	t.Helper()
	round, ok := snapshot["round"].(map[string]any)
	if !ok {
		t.Fatalf("snapshot round missing: %v", snapshot["round"])
	}
	return round
}

func TestSnapshotRedactsRolesDuringPlay(t *testing.T) {
	srv := newGameServer(t, 40)
	names := []string{"Ana", "Ben", "Cara", "Dan"}
	sess := buildStartedSession(t, srv, SessionOptions{ImpostorCount: 1}, names...)
	crew := crewNames(sess, names)

	snapshot, ok := srv.SnapshotForViewer(sess.ID, userFor(crew[0]))
	if !ok {
		t.Fatal("snapshot not found")
	}
	self := playerByName(t, sess, crew[0])
	for _, entry := range snapshotPlayers(t, snapshot) {
		_, revealed := entry["is_impostor"]
		if entry["id"] == self.ID && !revealed {
			t.Fatal("viewer cannot see their own role")
		}
		if entry["id"] != self.ID && revealed {
			t.Fatalf("role leaked for player %v", entry["id"])
		}
	}
}

func TestSnapshotRevealsRolesAfterEnd(t *testing.T) {
	srv := newGameServer(t, 41)
	names := []string{"Ana", "Ben", "Cara", "Dan"}
	sess := buildStartedSession(t, srv, SessionOptions{ImpostorCount: 1}, names...)
	submitAllAnswers(t, srv, sess, names)
	impostor := playerByName(t, sess, impostorNames(sess, names)[0])
	for _, name := range crewNames(sess, names) {
		if _, err := srv.SubmitVote(sess.ID, userFor(name), impostor.ID, ""); err != nil {
			t.Fatalf("vote %s: %v", name, err)
		}
	}

	snapshot, _ := srv.SnapshotForViewer(sess.ID, userFor(crewNames(sess, names)[0]))
	if snapshot["state"] != sessionEnded {
		t.Fatalf("expected ended state, got %v", snapshot["state"])
	}
	revealedImpostors := 0
	for _, entry := range snapshotPlayers(t, snapshot) {
		role, revealed := entry["is_impostor"]
		if !revealed {
			t.Fatalf("role hidden after end for %v", entry["id"])
		}
		if role == true {
			revealedImpostors++
		}
	}
	if revealedImpostors != 1 {
		t.Fatalf("expected 1 revealed impostor, got %d", revealedImpostors)
	}
	round := snapshotRoundEntry(t, snapshot)
	if round["prompt_true"] == nil || round["prompt_decoy"] == nil {
		t.Fatal("both prompt texts must be revealed after the round ends")
	}
	if round["eliminated_player_id"] != impostor.ID || round["impostor_eliminated"] != true {
		t.Fatalf("elimination not surfaced: %v", round)
	}
}

func TestSnapshotShowsDecoyPromptToImpostor(t *testing.T) {
	srv := newGameServer(t, 42)
	names := []string{"Ana", "Ben", "Cara"}
	sess := buildStartedSession(t, srv, SessionOptions{ImpostorCount: 1}, names...)
	prompt := currentRound(sess).Prompt
	impostor := impostorNames(sess, names)[0]
	crew := crewNames(sess, names)[0]

	impostorView, _ := srv.SnapshotForViewer(sess.ID, userFor(impostor))
	if got := snapshotRoundEntry(t, impostorView)["prompt"]; got != prompt.DecoyText {
		t.Fatalf("impostor sees %q, want decoy %q", got, prompt.DecoyText)
	}
	crewView, _ := srv.SnapshotForViewer(sess.ID, userFor(crew))
	if got := snapshotRoundEntry(t, crewView)["prompt"]; got != prompt.TrueText {
		t.Fatalf("crew sees %q, want true prompt %q", got, prompt.TrueText)
	}
	for _, view := range []map[string]any{snapshotRoundEntry(t, impostorView), snapshotRoundEntry(t, crewView)} {
		if _, leaked := view["prompt_true"]; leaked {
			t.Fatal("true/decoy pair leaked before the round ended")
		}
	}
}

func TestSnapshotTracksViewerProgress(t *testing.T) {
	srv := newGameServer(t, 43)
	names := []string{"Ana", "Ben", "Cara"}
	sess := buildStartedSession(t, srv, SessionOptions{ImpostorCount: 1}, names...)

	if _, err := srv.SubmitAnswer(sess.ID, userFor("Ana"), "mine"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	anaView, _ := srv.SnapshotForViewer(sess.ID, userFor("Ana"))
	if snapshotRoundEntry(t, anaView)["has_answered"] != true {
		t.Fatal("answered viewer not flagged")
	}
	benView, _ := srv.SnapshotForViewer(sess.ID, userFor("Ben"))
	if snapshotRoundEntry(t, benView)["has_answered"] != false {
		t.Fatal("unanswered viewer flagged")
	}
}

func TestSnapshotHidesDepartedInLobby(t *testing.T) {
	srv := newGameServer(t, 44)
	sess := buildLobby(t, srv, SessionOptions{}, "Ana", "Ben", "Cara")
	if _, err := srv.Leave(sess.ID, userFor("Cara")); err != nil {
		t.Fatalf("leave: %v", err)
	}
	snapshot, _ := srv.SnapshotForViewer(sess.ID, userFor("Ana"))
	for _, entry := range snapshotPlayers(t, snapshot) {
		if entry["name"] == "Cara" {
			t.Fatal("departed player listed in a lobby snapshot")
		}
	}
	if snapshot["current_players"] != 2 {
		t.Fatalf("expected 2 current players, got %v", snapshot["current_players"])
	}
	if snapshot["can_join"] != true {
		t.Fatal("lobby with room should be joinable")
	}
}
