package event

import "encoding/json"

// GameCreatedPayload captures the payload for game.created events.
type GameCreatedPayload struct {
	Seed       int64          `json:"seed"`
	RoleCounts map[string]int `json:"role_counts"`
	Players    []PlayerRef    `json:"players"`
	TiePolicy  string         `json:"tie_policy"`
	MultiRole  bool           `json:"multi_role,omitempty"`
}

// PlayerRef identifies a player without revealing roles.
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RolesAssignedPayload captures the payload for game.roles_assigned events.
// Assignments map player id to the roles held.
type RolesAssignedPayload struct {
	Assignments map[string][]string `json:"assignments"`
}

// PhaseChangedPayload captures the payload for game.phase_changed events.
type PhaseChangedPayload struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Round int    `json:"round"`
}

// ActionSubmittedPayload captures the payload for night.action_submitted events.
type ActionSubmittedPayload struct {
	PlayerID  string `json:"player_id"`
	Kind      string `json:"kind"`
	TargetID  string `json:"target_id,omitempty"`
	Defaulted bool   `json:"defaulted,omitempty"`
}

// NightResolvedPayload captures the public outcome of a night. It names who
// died and whether a death was prevented; it deliberately does not attribute
// deaths or saves to a faction so a mafia skip stays indistinguishable from
// a blocked kill.
type NightResolvedPayload struct {
	Round     int      `json:"round"`
	Deaths    []string `json:"deaths"`
	Prevented bool     `json:"prevented"`
}

// InvestigationResultPayload captures a sheriff's private result.
type InvestigationResultPayload struct {
	SheriffID    string `json:"sheriff_id"`
	TargetID     string `json:"target_id"`
	MafiaAligned bool   `json:"mafia_aligned"`
}

// ProtectionConfirmedPayload captures a doctor's private confirmation.
type ProtectionConfirmedPayload struct {
	DoctorID string `json:"doctor_id"`
	TargetID string `json:"target_id"`
}

// VoteCastPayload captures the payload for day.vote_cast events.
type VoteCastPayload struct {
	VoterID   string `json:"voter_id"`
	TargetID  string `json:"target_id,omitempty"`
	Order     int    `json:"order"`
	Defaulted bool   `json:"defaulted,omitempty"`
}

// VoteResultPayload captures the public tallies of a day vote.
type VoteResultPayload struct {
	Round       int            `json:"round"`
	Tallies     map[string]int `json:"tallies"`
	Abstentions int            `json:"abstentions"`
	Tied        []string       `json:"tied,omitempty"`
	TiePolicy   string         `json:"tie_policy,omitempty"`
	Eliminated  string         `json:"eliminated,omitempty"`
	// Skipped marks a tie that reopened discussion instead of resolving.
	Skipped bool `json:"skipped,omitempty"`
}

// PlayerEliminatedPayload captures the payload for player.eliminated events.
// This is the one place roles are publicly revealed.
type PlayerEliminatedPayload struct {
	PlayerID string   `json:"player_id"`
	Roles    []string `json:"roles"`
	Round    int      `json:"round"`
	Cause    string   `json:"cause"`
}

// Elimination causes.
const (
	// CauseNight marks a death resolved during the night.
	CauseNight = "night"
	// CauseVote marks an elimination by day vote.
	CauseVote = "vote"
)

// GameEndedPayload captures the payload for game.ended events.
type GameEndedPayload struct {
	Winner string `json:"winner"`
	Rounds int    `json:"rounds"`
}

// GameStatusPayload captures the payload for pause/resume/error events.
type GameStatusPayload struct {
	Reason string `json:"reason,omitempty"`
}

// MarshalPayload encodes a payload struct to JSON bytes.
func MarshalPayload(payload any) ([]byte, error) {
	return json.Marshal(payload)
}

// UnmarshalPayload decodes JSON payload bytes into the target struct.
func UnmarshalPayload(data []byte, target any) error {
	return json.Unmarshal(data, target)
}
