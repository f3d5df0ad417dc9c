package engine

import (
	"sync"

	apperrors "github.com/louisbranch/nocturne/internal/platform/errors"
)

// Registry tracks the live runners of a process, one per game. Safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	runners map[string]*Runner
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{runners: map[string]*Runner{}}
}

// Add registers a runner under its game id.
func (reg *Registry) Add(runner *Runner) error {
	if runner == nil {
		return apperrors.New(apperrors.CodeGameIDEmpty, "runner is required")
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.runners[runner.GameID()]; ok {
		return apperrors.WithMetadata(apperrors.CodeGameInvalidConfig,
			"game already registered", map[string]string{"game_id": runner.GameID()})
	}
	reg.runners[runner.GameID()] = runner
	return nil
}

// Get returns the runner for a game id.
func (reg *Registry) Get(gameID string) (*Runner, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	runner, ok := reg.runners[gameID]
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeNotFound,
			"game is not registered", map[string]string{"game_id": gameID})
	}
	return runner, nil
}

// Remove drops a runner from the registry.
func (reg *Registry) Remove(gameID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.runners, gameID)
}

// GameIDs returns the registered game ids.
func (reg *Registry) GameIDs() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]string, 0, len(reg.runners))
	for gameID := range reg.runners {
		out = append(out, gameID)
	}
	return out
}
