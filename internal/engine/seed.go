package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"

	"github.com/m-mizutani/goerr/v2"
)

// NewSeed generates a session seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, goerr.Wrap(err, "failed to read random seed")
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// NewRand returns a deterministic generator for seed. The same seed always
// reproduces the same condition orders and stimulus sets.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
