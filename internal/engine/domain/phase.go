package domain

// Phase identifies a state of the game's finite state machine.
type Phase string

const (
	// PhaseSetup is the unique initial state (role assignment, seed commit).
	PhaseSetup Phase = "setup"
	// PhaseNightActions collects night-role decisions.
	PhaseNightActions Phase = "night_actions"
	// PhaseMorningReveal publishes the night's outcome.
	PhaseMorningReveal Phase = "morning_reveal"
	// PhaseDayDiscussion is the open discussion window.
	PhaseDayDiscussion Phase = "day_discussion"
	// PhaseDayVoting collects elimination votes.
	PhaseDayVoting Phase = "day_voting"
	// PhaseResolution tallies votes and checks win conditions.
	PhaseResolution Phase = "resolution"
	// PhaseEnd is the unique terminal state.
	PhaseEnd Phase = "end"
)

// IsValid reports whether the phase is one of the closed set.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseSetup, PhaseNightActions, PhaseMorningReveal,
		PhaseDayDiscussion, PhaseDayVoting, PhaseResolution, PhaseEnd:
		return true
	default:
		return false
	}
}

// Terminal reports whether the phase is the terminal state.
func (p Phase) Terminal() bool {
	return p == PhaseEnd
}

// Next returns the phase that follows p. The resolution phase branches on
// whether a winner has been determined; every other transition is fixed.
// The FSM never skips a phase: vacuous phases still open and close so the
// event timeline stays uniform.
func (p Phase) Next(hasWinner bool) (Phase, bool) {
	switch p {
	case PhaseSetup:
		return PhaseNightActions, true
	case PhaseNightActions:
		return PhaseMorningReveal, true
	case PhaseMorningReveal:
		return PhaseDayDiscussion, true
	case PhaseDayDiscussion:
		return PhaseDayVoting, true
	case PhaseDayVoting:
		return PhaseResolution, true
	case PhaseResolution:
		if hasWinner {
			return PhaseEnd, true
		}
		return PhaseNightActions, true
	default:
		return "", false
	}
}
