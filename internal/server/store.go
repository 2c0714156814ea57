package server

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Store is the authoritative in-memory state. Every mutation runs under one
// mutex, so all check-then-write sequences for a session are serialized.
type Store struct {
	mu           sync.Mutex
	rng          *rand.Rand
	nextID       int
	nextPlayerID int
	codeLength   int
	codeAttempts int
	sessions     map[string]*Session
}

func NewStore() *Store {
	return &Store{
		rng:          newRand(),
		nextID:       1,
		nextPlayerID: 1,
		codeLength:   codeLength,
		codeAttempts: codeMaxAttempts,
		sessions:     make(map[string]*Session),
	}
}

// SetCodePolicy overrides the join-code length and allocation attempt budget.
// Non-positive values keep the defaults.
func (s *Store) SetCodePolicy(length, attempts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if length > 0 {
		s.codeLength = length
	}
	if attempts > 0 {
		s.codeAttempts = attempts
	}
}

// SetRand swaps the randomness source. Tests use a seeded source to make
// impostor draws and join codes deterministic.
func (s *Store) SetRand(rng *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rng
}

type SessionOptions struct {
	PromptKind    string
	MaxPlayers    int
	ImpostorCount int
	MaxRounds     int
	RoundSeconds  int
	PrivateCode   string
}

func (s *Store) CreateSession(hostUserID, hostName string, opts SessionOptions) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.uniqueJoinCode()
	if err != nil {
		return nil, err
	}
	id := fmt.Sprintf("session-%d", s.nextID)
	s.nextID++
	now := timeNowUTC()
	sess := &Session{
		ID:            id,
		JoinCode:      code,
		PrivateCode:   opts.PrivateCode,
		HostUserID:    hostUserID,
		State:         sessionLobby,
		PromptKind:    opts.PromptKind,
		MaxPlayers:    opts.MaxPlayers,
		ImpostorCount: opts.ImpostorCount,
		MaxRounds:     opts.MaxRounds,
		RoundSeconds:  opts.RoundSeconds,
		CreatedAt:     now,
	}
	host := Player{
		ID:       s.nextPlayerID,
		UserID:   hostUserID,
		Name:     hostName,
		IsHost:   true,
		JoinedAt: now,
	}
	s.nextPlayerID++
	sess.Players = append(sess.Players, host)
	s.sessions[id] = sess
	return sess, nil
}

func (s *Store) GetSession(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// FindSessionByCode resolves a join code among non-ended sessions.
func (s *Store) FindSessionByCode(code string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, sess := range s.sessions {
		if sess.State != sessionEnded && sess.JoinCode == code {
			return sess, true
		}
	}
	return nil, false
}

// UpdateSession applies fn to the session under the store mutex. State
// observed inside fn cannot change before the write lands, which is what
// keeps threshold checks and auto-transitions single-shot.
func (s *Store) UpdateSession(id string, fn func(sess *Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) UpdateSessionID(sess *Session, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.ID == newID {
		return
	}
	delete(s.sessions, sess.ID)
	sess.ID = newID
	s.sessions[newID] = sess
}

func (s *Store) ListSessionSummaries() []SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, SessionSummary{
			ID:         sess.ID,
			JoinCode:   sess.JoinCode,
			State:      sess.State,
			PromptKind: sess.PromptKind,
			Players:    currentPlayerCount(sess),
			MaxPlayers: sess.MaxPlayers,
		})
	}
	sort.Slice(list, func(i, j int) bool {
		return sessionSortKey(list[i].ID) < sessionSortKey(list[j].ID)
	})
	return list
}

func sessionSortKey(id string) int {
	parts := strings.Split(id, "-")
	if len(parts) < 2 {
		return 0
	}
	value, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return value
}

// currentPlayerCount is the number of non-departed roster entries.
func currentPlayerCount(sess *Session) int {
	count := 0
	for i := range sess.Players {
		if !sess.Players[i].Departed {
			count++
		}
	}
	return count
}

// alivePlayerCount is the number of non-departed, non-eliminated players.
func alivePlayerCount(sess *Session) int {
	count := 0
	for i := range sess.Players {
		if playerAlive(&sess.Players[i]) {
			count++
		}
	}
	return count
}

func playerAlive(p *Player) bool {
	return !p.Departed && !p.Eliminated
}

// findLivePlayerByUser returns the user's non-departed roster entry.
func findLivePlayerByUser(sess *Session, userID string) (*Player, bool) {
	for i := range sess.Players {
		if sess.Players[i].UserID == userID && !sess.Players[i].Departed {
			return &sess.Players[i], true
		}
	}
	return nil, false
}

func findPlayerByID(sess *Session, playerID int) (*Player, bool) {
	for i := range sess.Players {
		if sess.Players[i].ID == playerID {
			return &sess.Players[i], true
		}
	}
	return nil, false
}

func currentRound(sess *Session) *Round {
	if len(sess.Rounds) == 0 {
		return nil
	}
	return &sess.Rounds[len(sess.Rounds)-1]
}
