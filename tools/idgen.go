package tools

import (
	"fmt"
	"math/rand"
	"strings"
)

// DefaultIDSeed seeds every tool instance's identifier generator. The
// fixed seed keeps generated entity IDs reproducible across replays of
// the same conversation, which the ground-truth datasets rely on.
const DefaultIDSeed = 489

// IDGen produces the opaque hyphenated hex-segment identifiers used by
// the simulated services (alarm IDs, event IDs, session tokens, ...). It
// is deterministic: a fresh IDGen with the same seed yields the same
// sequence. Not safe for concurrent use; each tool instance owns one.
type IDGen struct {
	rng *rand.Rand
}

// NewIDGen creates a deterministic generator with the given seed.
func NewIDGen(seed int64) *IDGen {
	return &IDGen{rng: rand.New(rand.NewSource(seed))}
}

// Segments returns hyphen-joined lowercase hex segments, one per width.
// Segments(8, 4, 4) produces identifiers like "1a2b3c4d-5e6f-7a8b".
func (g *IDGen) Segments(widths ...int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		max := int64(1) << (4 * uint(w))
		parts[i] = fmt.Sprintf("%0*x", w, g.rng.Int63n(max))
	}
	return strings.Join(parts, "-")
}

// Digits returns a zero-padded decimal code of the given length, as used
// for password-reset verification codes.
func (g *IDGen) Digits(n int) string {
	max := int64(1)
	for i := 0; i < n; i++ {
		max *= 10
	}
	return fmt.Sprintf("%0*d", n, g.rng.Int63n(max))
}
