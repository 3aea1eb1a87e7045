package pacer

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"time"
)

// newSeededRand builds a PCG generator seeded from crypto/rand. If the
// system entropy source fails, it falls back to a time-based seed rather
// than blocking backoff computation.
func newSeededRand() *rand.Rand {
	var seed [16]byte

	if _, err := crand.Read(seed[:]); err != nil {
		return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)) // #nosec G404 -- fallback when crypto/rand fails
	}

	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	))
}
