package agent

import (
	"context"
	"sync"
)

// Scripted is an Agent that replays a fixed per-player script. Each call
// for a player consumes the next entry; when the script runs out the agent
// passes. Useful for tests and deterministic simulations.
type Scripted struct {
	mu      sync.Mutex
	scripts map[string][]string
	cursor  map[string]int
}

// NewScripted builds a scripted agent. scripts maps player id to the
// ordered target answers that player will give; "" entries pass.
func NewScripted(scripts map[string][]string) *Scripted {
	copied := make(map[string][]string, len(scripts))
	for id, answers := range scripts {
		copied[id] = append([]string(nil), answers...)
	}
	return &Scripted{
		scripts: copied,
		cursor:  make(map[string]int, len(scripts)),
	}
}

// Decide implements Agent.
func (a *Scripted) Decide(ctx context.Context, req Request) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	answers := a.scripts[req.PlayerID]
	i := a.cursor[req.PlayerID]
	if i >= len(answers) {
		return Decision{}, nil
	}
	a.cursor[req.PlayerID] = i + 1
	return Decision{TargetID: answers[i]}, nil
}
