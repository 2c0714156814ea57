package server

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// newRand builds the randomness source used for join codes, impostor draws
// and prompt picks. Tests swap it for a seeded one via Store.SetRand.
func newRand() *rand.Rand {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(buf[:]))))
}
