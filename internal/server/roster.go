package server

// JoinSession adds a user to the session with the given join code. Rejoining
// users who never left are rejected; the lookup and the insert share the
// store mutex so a full lobby cannot be oversubscribed by concurrent joins.
func (s *Store) JoinSession(code, userID, name string) (*Session, *Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sess *Session
	for _, candidate := range s.sessions {
		if candidate.State != sessionEnded && candidate.JoinCode == code {
			sess = candidate
			break
		}
	}
	if sess == nil {
		return nil, nil, errSessionNotFound
	}
	if sess.State != sessionLobby {
		return nil, nil, errSessionNotJoinable
	}
	if _, ok := findLivePlayerByUser(sess, userID); ok {
		return nil, nil, errAlreadyJoined
	}
	if currentPlayerCount(sess) >= sess.MaxPlayers {
		return nil, nil, errSessionFull
	}

	player := Player{
		ID:       s.nextPlayerID,
		UserID:   userID,
		Name:     name,
		JoinedAt: timeNowUTC(),
	}
	s.nextPlayerID++
	sess.Players = append(sess.Players, player)
	return sess, &sess.Players[len(sess.Players)-1], nil
}

// leavePlayer marks the user's roster entry departed. When the host leaves,
// the earliest-joined remaining player inherits the role; when nobody
// remains the session ends. Runs inside an UpdateSession closure.
func leavePlayer(sess *Session, userID string) (*Player, error) {
	if sess.State == sessionEnded {
		return nil, errSessionEnded
	}
	player, ok := findLivePlayerByUser(sess, userID)
	if !ok {
		return nil, errNotInSession
	}
	player.Departed = true
	player.Ready = false
	player.LeftAt = timeNowUTC()

	if player.IsHost {
		player.IsHost = false
		if next := earliestLivePlayer(sess); next != nil {
			next.IsHost = true
			sess.HostUserID = next.UserID
		} else {
			endSession(sess)
		}
	}
	return player, nil
}

func earliestLivePlayer(sess *Session) *Player {
	var best *Player
	for i := range sess.Players {
		p := &sess.Players[i]
		if p.Departed {
			continue
		}
		if best == nil || p.JoinedAt.Before(best.JoinedAt) ||
			(p.JoinedAt.Equal(best.JoinedAt) && p.ID < best.ID) {
			best = p
		}
	}
	return best
}

// setReady flips the lobby ready flag. Runs inside an UpdateSession closure.
func setReady(sess *Session, userID string, ready bool) error {
	if sess.State != sessionLobby {
		return errNotInLobby
	}
	player, ok := findLivePlayerByUser(sess, userID)
	if !ok {
		return errNotInSession
	}
	player.Ready = ready
	return nil
}

// canStart reports whether the lobby can transition to active: at least two
// players, every one of them ready.
func canStart(sess *Session) bool {
	if sess.State != sessionLobby {
		return false
	}
	count := 0
	for i := range sess.Players {
		p := &sess.Players[i]
		if p.Departed {
			continue
		}
		if !p.Ready {
			return false
		}
		count++
	}
	return count >= minPlayersToStart
}
