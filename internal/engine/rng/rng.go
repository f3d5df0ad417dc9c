// Package rng implements the deterministic random source for the engine.
//
// Every non-deterministic choice the engine makes (tie-breaks, fallback
// targets, role shuffling) draws from one RNG per game, seeded at game
// creation. Given the same seed and the same call sequence, an RNG always
// produces the same values; replay never re-draws because every drawn value
// is materialized into event payloads at write time.
package rng

import "math/rand"

// RNG is a deterministic pseudo-random source scoped to a single game.
//
// RNG is not safe for concurrent use. The engine confines each instance to
// its game's sequencer goroutine, which is the only place randomness is
// consumed.
type RNG struct {
	src *rand.Rand
}

// New creates a deterministic RNG from the given seed.
func New(seed int64) *RNG {
	return &RNG{src: rand.New(rand.NewSource(seed))}
}

// Intn returns a deterministic value in [0, n). It panics if n <= 0,
// matching math/rand semantics.
func (r *RNG) Intn(n int) int {
	return r.src.Intn(n)
}

// Pick returns a deterministic element of the provided slice.
// It returns the empty string when the slice is empty.
func (r *RNG) Pick(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[r.src.Intn(len(values))]
}

// Shuffle deterministically permutes the provided slice in place.
func (r *RNG) Shuffle(values []string) {
	r.src.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})
}
