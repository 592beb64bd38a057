package roster

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// Rand is the randomness the engine consumes. *math/rand.Rand satisfies it.
type Rand interface {
	Shuffle(n int, swap func(i, j int))
	Float64() float64
}

// NewRand returns a generator seeded with seed, or with a crypto/rand seed when seed is 0.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = newSeed()
	}
	return rand.New(rand.NewSource(seed)) //nolint:gosec // shuffling, not security
}

func newSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
