package server

import "time"

const (
	sessionLobby  = "lobby"
	sessionActive = "active"
	sessionEnded  = "ended"
)

const (
	roundWaiting = "waiting"
	roundActive  = "active"
	roundReview  = "review"
	roundVoting  = "voting"
	roundEnded   = "ended"
)

const (
	promptKindQuestion = "question"
	promptKindWord     = "word"
)

const (
	minPlayersToStart = 2
	maxImpostorCap    = 3
)

type SessionSummary struct {
	ID         string
	JoinCode   string
	State      string
	PromptKind string
	Players    int
	MaxPlayers int
}

type Session struct {
	ID            string
	DBID          uint
	JoinCode      string
	PrivateCode   string
	HostUserID    string
	State         string
	PromptKind    string
	MaxPlayers    int
	ImpostorCount int
	MaxRounds     int
	RoundSeconds  int
	RoundNumber   int
	Players       []Player
	Rounds        []Round
	CreatedAt     time.Time
	StartedAt     time.Time
	EndedAt       time.Time
}

type Player struct {
	ID         int
	DBID       uint
	UserID     string
	Name       string
	IsHost     bool
	IsImpostor bool
	Ready      bool
	Eliminated bool
	Departed   bool
	Score      int
	JoinedAt   time.Time
	LeftAt     time.Time
}

type Round struct {
	Number             int
	DBID               uint
	State              string
	Prompt             *PromptPair
	ImpostorPlayerID   int
	TimeLimitSeconds   int
	TimerStartedAt     time.Time
	Answers            []AnswerEntry
	Votes              []VoteEntry
	EliminatedPlayerID int
	ImpostorEliminated bool
	GuessText          string
	GuessCorrect       bool
	GuessSubmitted     bool
}

// PromptPair is the (true, decoy) tuple assigned to a round. The crew sees
// TrueText, the impostor sees DecoyText.
type PromptPair struct {
	DBID       uint
	Kind       string
	TrueText   string
	DecoyText  string
	Category   string
	Difficulty int
}

type AnswerEntry struct {
	PlayerID   int
	DBID       uint
	Text       string
	Normalized string
	Edited     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type VoteEntry struct {
	VoterID   int
	TargetID  int
	DBID      uint
	Reason    string
	CreatedAt time.Time
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
