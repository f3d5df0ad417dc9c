package agent

import (
	"context"
	"math/rand"
	"sync"
)

// Random is an Agent that picks a uniformly random candidate, with a small
// chance to pass. Deterministic for a given seed and call sequence; used by
// simulations.
type Random struct {
	mu  sync.Mutex
	src *rand.Rand
	// PassChance in [0,1) is the probability of answering with a pass.
	passChance float64
}

// NewRandom builds a random agent from a seed.
func NewRandom(seed int64, passChance float64) *Random {
	if passChance < 0 || passChance >= 1 {
		passChance = 0
	}
	return &Random{
		src:        rand.New(rand.NewSource(seed)),
		passChance: passChance,
	}
}

// Decide implements Agent.
func (a *Random) Decide(ctx context.Context, req Request) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(req.Candidates) == 0 {
		return Decision{}, nil
	}
	if a.passChance > 0 && a.src.Float64() < a.passChance {
		return Decision{}, nil
	}
	return Decision{TargetID: req.Candidates[a.src.Intn(len(req.Candidates))]}, nil
}
