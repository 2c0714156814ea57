package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeDomainError maps a domain error to its HTTP status. Anything outside
// the taxonomy is an internal failure.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, errSessionNotFound),
		errors.Is(err, errRoundNotFound),
		errors.Is(err, errTargetNotFound),
		errors.Is(err, errPromptNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNotHost),
		errors.Is(err, errNotInSession),
		errors.Is(err, errPlayerEliminated):
		return http.StatusForbidden
	case errors.Is(err, errNotInLobby),
		errors.Is(err, errSessionNotActive),
		errors.Is(err, errSessionNotJoinable),
		errors.Is(err, errSessionEnded),
		errors.Is(err, errCannotStart),
		errors.Is(err, errRoundNotActive),
		errors.Is(err, errRoundNotInReview),
		errors.Is(err, errRoundAlreadyOpen),
		errors.Is(err, errVotingNotActive),
		errors.Is(err, errGuessNotAllowed),
		errors.Is(err, errTimeExpired):
		return http.StatusConflict
	case errors.Is(err, errSessionFull),
		errors.Is(err, errAlreadyJoined),
		errors.Is(err, errSelfVote),
		errors.Is(err, errTargetEliminated):
		return http.StatusConflict
	case errors.Is(err, errUnknownPromptKind):
		return http.StatusBadRequest
	case errors.Is(err, errCodesExhausted):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
