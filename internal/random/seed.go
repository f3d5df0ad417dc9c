// Package random mints high-entropy seeds. A game's seed is committed at
// creation and drives every deterministic draw afterward, so the only
// place crypto/rand appears in a game's lifetime is here.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed returns a crypto/rand-backed int64 seed.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read seed entropy: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
