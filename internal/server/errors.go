package server

import "errors"

var (
	errSessionNotFound    = errors.New("session not found")
	errSessionFull        = errors.New("session full")
	errSessionNotJoinable = errors.New("session already started")
	errSessionEnded       = errors.New("session has ended")
	errAlreadyJoined      = errors.New("already joined")
	errNotInSession       = errors.New("player not in session")
	errTargetNotFound     = errors.New("target player not found")
	errNotInLobby         = errors.New("session is not in lobby")
	errNotHost            = errors.New("only the host can do this")
	errCannotStart        = errors.New("need at least two players, all ready")
	errSessionNotActive   = errors.New("session is not active")
	errRoundNotFound      = errors.New("round not started")
	errRoundNotActive     = errors.New("answers are closed")
	errRoundNotInReview   = errors.New("answers are still open")
	errVotingNotActive    = errors.New("voting is not open")
	errSelfVote           = errors.New("cannot vote for yourself")
	errTargetEliminated   = errors.New("target is already eliminated")
	errPlayerEliminated   = errors.New("eliminated players cannot act")
	errTimeExpired        = errors.New("time is up")
	errNoImpostorAlive    = errors.New("no impostor left alive")
	errRoundAlreadyOpen   = errors.New("round already in progress")
	errGuessNotAllowed    = errors.New("impostor guess not available")
	errCodesExhausted     = errors.New("could not allocate a unique join code")
	errUnknownPromptKind  = errors.New("unknown prompt kind")
	errPromptNotFound     = errors.New("prompt not found")
)
