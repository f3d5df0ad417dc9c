// Package event defines the immutable records of the per-game journal.
//
// Events are the source of truth: the game state is a projection that can
// always be rebuilt by folding the journal in sequence order. Events are
// append-only and never mutated after write.
package event

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/nocturne/internal/platform/errors"
)

// Type identifies the type of a game event.
type Type string

// Game lifecycle events.
const (
	// TypeGameCreated records the creation of a game with its committed seed.
	TypeGameCreated Type = "game.created"
	// TypeRolesAssigned records the full role assignment (admin/replay-reveal only).
	TypeRolesAssigned Type = "game.roles_assigned"
	// TypePhaseChanged records a phase transition. It is emitted before any
	// phase-entry side effects so replay can reconstruct phase boundaries.
	TypePhaseChanged Type = "game.phase_changed"
	// TypeGamePaused records a pause taking effect at a phase boundary.
	TypeGamePaused Type = "game.paused"
	// TypeGameResumed records a resume.
	TypeGameResumed Type = "game.resumed"
	// TypeGameErrored records a storage failure halting the game.
	TypeGameErrored Type = "game.errored"
	// TypeGameEnded records the terminal outcome.
	TypeGameEnded Type = "game.ended"
)

// Night events.
const (
	// TypeNightActionSubmitted records one collected night decision.
	TypeNightActionSubmitted Type = "night.action_submitted"
	// TypeNightResolved records the public outcome of a night.
	TypeNightResolved Type = "night.resolved"
	// TypeInvestigationResult records a sheriff's private result.
	TypeInvestigationResult Type = "night.investigation_result"
	// TypeProtectionConfirmed records a doctor's private confirmation.
	TypeProtectionConfirmed Type = "night.protection_confirmed"
)

// Day events.
const (
	// TypeVoteCast records one ballot.
	TypeVoteCast Type = "day.vote_cast"
	// TypeVoteResult records the public tallies and applied tie policy.
	TypeVoteResult Type = "day.vote_result"
	// TypePlayerEliminated records a death, with roles publicly revealed.
	TypePlayerEliminated Type = "player.eliminated"
)

// IsValid reports whether the event type is one of the closed set.
func (t Type) IsValid() bool {
	switch t {
	case TypeGameCreated, TypeRolesAssigned, TypePhaseChanged,
		TypeGamePaused, TypeGameResumed, TypeGameErrored, TypeGameEnded,
		TypeNightActionSubmitted, TypeNightResolved,
		TypeInvestigationResult, TypeProtectionConfirmed,
		TypeVoteCast, TypeVoteResult, TypePlayerEliminated:
		return true
	default:
		return false
	}
}

// Domain returns the domain prefix of the event type (e.g., "game", "night").
func (t Type) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}

// Visibility classifies who may observe an event.
type Visibility string

const (
	// VisibilityPublic is observable by everyone.
	VisibilityPublic Visibility = "public"
	// VisibilityFaction is observable by members of the event's faction.
	VisibilityFaction Visibility = "faction"
	// VisibilityRole is observable only by the acting player.
	VisibilityRole Visibility = "role"
	// VisibilityAdmin is observable only by admin and replay-reveal viewers.
	VisibilityAdmin Visibility = "admin"
)

// IsValid reports whether the visibility tag is one of the closed set.
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityFaction, VisibilityRole, VisibilityAdmin:
		return true
	default:
		return false
	}
}

// FactionMafia is the only faction with private events in the base rules.
const FactionMafia = "mafia"

// Event represents an immutable event in the per-game journal.
type Event struct {
	// GameID is the game this event belongs to.
	GameID string
	// Seq is the event sequence number within the game (starts at 1).
	// Assigned by storage on append; no gaps, no duplicates.
	Seq uint64
	// Timestamp is when the event occurred. Excluded from determinism
	// comparisons.
	Timestamp time.Time
	// Type identifies the kind of event.
	Type Type
	// Visibility classifies who may observe the event.
	Visibility Visibility
	// ActorID scopes role-private events to the acting player.
	ActorID string
	// FactionID scopes faction-private events (e.g., "mafia").
	FactionID string
	// Round is the game round the event belongs to (0 for setup events).
	Round int
	// PayloadJSON holds event-specific data as JSON.
	PayloadJSON []byte
}

// ValidateForAppend canonicalizes an event before storage assigns a
// sequence. It rejects unknown types and visibility tags and enforces the
// scoping fields each visibility requires.
func ValidateForAppend(evt Event) (Event, error) {
	if strings.TrimSpace(evt.GameID) == "" {
		return Event{}, apperrors.New(apperrors.CodeGameIDEmpty, "game id is required")
	}
	if !evt.Type.IsValid() {
		return Event{}, apperrors.WithMetadata(apperrors.CodeEventInvalidType,
			"unknown event type", map[string]string{"type": string(evt.Type)})
	}
	if !evt.Visibility.IsValid() {
		return Event{}, apperrors.WithMetadata(apperrors.CodeEventInvalidVisibility,
			"unknown visibility", map[string]string{"visibility": string(evt.Visibility)})
	}
	if evt.Visibility == VisibilityRole && strings.TrimSpace(evt.ActorID) == "" {
		return Event{}, apperrors.New(apperrors.CodeEventInvalidVisibility,
			"role-private event needs an actor id")
	}
	if evt.Visibility == VisibilityFaction && strings.TrimSpace(evt.FactionID) == "" {
		return Event{}, apperrors.New(apperrors.CodeEventInvalidVisibility,
			"faction-private event needs a faction id")
	}
	if len(evt.PayloadJSON) == 0 {
		evt.PayloadJSON = []byte(`{}`)
	}
	return evt, nil
}
