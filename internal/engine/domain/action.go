package domain

// ActionKind discriminates submitted night actions and votes.
type ActionKind string

const (
	// KindKillProposal is a mafia member's proposed kill target.
	KindKillProposal ActionKind = "kill_proposal"
	// KindProtect is a doctor's protection target.
	KindProtect ActionKind = "protect"
	// KindInvestigate is a sheriff's investigation target.
	KindInvestigate ActionKind = "investigate"
	// KindShoot is a vigilante's shot target.
	KindShoot ActionKind = "shoot"
	// KindVote is a day-phase elimination vote.
	KindVote ActionKind = "vote"
)

// IsValid reports whether the kind is one of the closed set.
func (k ActionKind) IsValid() bool {
	switch k {
	case KindKillProposal, KindProtect, KindInvestigate, KindShoot, KindVote:
		return true
	default:
		return false
	}
}

// NightAction is one validated decision for a night obligation.
// An empty TargetID means pass. Resubmission within the same window
// replaces the previous record; actions are never mutated after the
// window closes.
type NightAction struct {
	PlayerID string
	Kind     ActionKind
	TargetID string
	// Defaulted marks a system-substituted action (timeout or retry
	// exhaustion). Recorded for auditing; resolution does not branch on it.
	Defaulted bool
}

// Pass reports whether the action is an abstention.
func (a NightAction) Pass() bool {
	return a.TargetID == ""
}

// Vote is one day-phase ballot. An empty TargetID is an abstention:
// recorded, but excluded from the tally denominator. Order preserves
// submission order for analytics; it does not affect the tally.
type Vote struct {
	VoterID  string
	TargetID string
	Order    int
	// Defaulted marks a system-substituted abstention.
	Defaulted bool
}

// Abstain reports whether the ballot is an abstention.
func (v Vote) Abstain() bool {
	return v.TargetID == ""
}
