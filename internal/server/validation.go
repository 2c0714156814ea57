package server

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	maxNameLength   = 20
	maxAnswerLength = 280
	maxReasonLength = 280
	minSessionSize  = 3
	maxSessionSize  = 10
)

func validateName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

func validateAnswer(text string) (string, error) {
	return validateText("answer", text, maxAnswerLength)
}

// validateReason allows empty input; a vote needs no justification.
func validateReason(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", nil
	}
	return validateText("reason", trimmed, maxReasonLength)
}

func validateText(field, text string, limit int) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", errors.New(field + " is required")
	}
	if len(trimmed) > limit {
		return "", fmt.Errorf("%s must be %d characters or fewer", field, limit)
	}
	if !isSafeText(trimmed) {
		return "", errors.New(field + " contains unsupported characters")
	}
	return trimmed, nil
}

func isSafeText(text string) bool {
	for _, r := range text {
		if r == '\n' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func validatePromptKind(kind string) (string, error) {
	switch kind {
	case promptKindQuestion, promptKindWord:
		return kind, nil
	case "":
		return promptKindQuestion, nil
	}
	return "", errUnknownPromptKind
}

func validateMaxPlayers(value, fallback int) (int, error) {
	if value == 0 {
		return fallback, nil
	}
	if value < minSessionSize || value > maxSessionSize {
		return 0, fmt.Errorf("max players must be between %d and %d", minSessionSize, maxSessionSize)
	}
	return value, nil
}

// normalizeText is the case-folded form stored next to every answer.
func normalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
