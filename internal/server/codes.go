package server

import "math/rand"

// codeAlphabet drops 0/O/1/I so codes read unambiguously off a screen.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength      = 6
	codeMaxAttempts = 10
)

func newJoinCode(rng *rand.Rand, length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = codeAlphabet[rng.Intn(len(codeAlphabet))]
	}
	return string(buf)
}

// uniqueJoinCode draws codes until one is unused among non-ended sessions.
// Caller must hold the store mutex so the check and the insert that follows
// are one atomic section. Exhausting the attempt budget means the alphabet
// and length are too small for the live session count.
func (s *Store) uniqueJoinCode() (string, error) {
	for attempt := 0; attempt < s.codeAttempts; attempt++ {
		code := newJoinCode(s.rng, s.codeLength)
		if !s.joinCodeInUse(code) {
			return code, nil
		}
	}
	return "", errCodesExhausted
}

func (s *Store) joinCodeInUse(code string) bool {
	for _, sess := range s.sessions {
		if sess.State != sessionEnded && sess.JoinCode == code {
			return true
		}
	}
	return false
}
