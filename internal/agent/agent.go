// Package agent defines the boundary between the engine and player
// decision-makers. The engine never blocks a game on one slow agent: each
// decision request is issued on its own goroutine with a deadline, and a
// missing or repeatedly invalid answer is replaced by a safe default.
package agent

import (
	"context"

	"github.com/louisbranch/nocturne/internal/engine/domain"
)

// Request describes one decision the engine needs from a player.
type Request struct {
	// GameID identifies the game.
	GameID string
	// PlayerID identifies the player the decision is requested from.
	PlayerID string
	// Phase is the current phase of the game.
	Phase domain.Phase
	// Round is the current round.
	Round int
	// Kind is the decision being requested.
	Kind domain.ActionKind
	// Candidates lists the valid target ids in canonical order. An agent
	// may also answer with an empty target to pass or abstain.
	Candidates []string
	// Attempt counts retries after an invalid response, starting at 0.
	Attempt int
}

// Decision is an agent's answer. An empty TargetID passes (night) or
// abstains (vote).
type Decision struct {
	TargetID string
}

// Agent produces decisions for one or more players. Implementations must
// honor ctx cancellation; the engine abandons calls that outlive the
// decision deadline.
type Agent interface {
	Decide(ctx context.Context, req Request) (Decision, error)
}

// Func adapts a function to the Agent interface.
type Func func(ctx context.Context, req Request) (Decision, error)

// Decide implements Agent.
func (f Func) Decide(ctx context.Context, req Request) (Decision, error) {
	return f(ctx, req)
}
