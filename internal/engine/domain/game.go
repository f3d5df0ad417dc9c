// Package domain holds the value objects of the social deduction game:
// roles, players, phases, configuration, and submitted actions.
package domain

// Status is the lifecycle status of a game.
type Status string

const (
	// StatusActive marks a game whose sequencer is progressing.
	StatusActive Status = "active"
	// StatusPaused marks a game halted at a phase boundary.
	StatusPaused Status = "paused"
	// StatusErrored marks a game halted by a storage failure; appends are
	// retried idempotently on resume.
	StatusErrored Status = "errored"
	// StatusEnded marks a finished game.
	StatusEnded Status = "ended"
)

// IsValid reports whether the status is one of the closed set.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusErrored, StatusEnded:
		return true
	default:
		return false
	}
}

// Winner identifies the terminal outcome of a game.
type Winner string

const (
	// WinnerNone means the game is still undecided.
	WinnerNone Winner = ""
	// WinnerTown means all mafia-capable players are dead.
	WinnerTown Winner = "town"
	// WinnerMafia means living mafia meet or outnumber the living town.
	WinnerMafia Winner = "mafia"
	// WinnerDraw is only reachable under the draw win-tie policy.
	WinnerDraw Winner = "draw"
)

// Decided reports whether a terminal outcome has been reached.
func (w Winner) Decided() bool {
	return w != WinnerNone
}
