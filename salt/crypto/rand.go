package crypto

import (
	"io"
	"math/rand"
)

// InsecureRand returns a fast, deterministic byte source seeded with seed.
// It exists to make tests reproducible and must never back real keys.
func InsecureRand(seed int64) io.Reader {
	return rand.New(rand.NewSource(seed))
}
