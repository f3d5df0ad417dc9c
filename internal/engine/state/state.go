// Package state projects the per-game event journal into the mutable view
// the engine reasons about. The projection is a pure fold: Apply never
// mutates its input and the same journal always yields the same state.
package state

import (
	"sort"

	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/engine/event"
	apperrors "github.com/louisbranch/nocturne/internal/platform/errors"
)

// State is the projection of a game's journal up to LastSeq.
type State struct {
	GameID string
	Seed   int64
	Status domain.Status
	Phase  domain.Phase
	Round  int
	Winner domain.Winner
	// Players is the flat collection of participants keyed by ID. Any
	// cross-reference stores the ID, never the struct.
	Players map[string]domain.Player
	// TiePolicy is the vote tie policy committed at creation.
	TiePolicy domain.TiePolicy
	// LastProtect maps each doctor-capable player to their previous
	// protection target, for the no-repeat constraint.
	LastProtect map[string]string
	// ShotsUsed maps each vigilante-capable player to shots consumed.
	ShotsUsed map[string]int
	// SkippedVotes marks the rounds whose tied vote already reopened
	// discussion once, so a repeat tie resolves instead of looping.
	SkippedVotes map[int]bool
	// LastSeq is the sequence number of the last applied event.
	LastSeq uint64
}

// New returns the empty pre-creation state.
func New() State {
	return State{
		Players:      map[string]domain.Player{},
		LastProtect:  map[string]string{},
		ShotsUsed:    map[string]int{},
		SkippedVotes: map[int]bool{},
	}
}

// Clone returns a deep copy so the fold never aliases mutable maps.
func (s State) Clone() State {
	out := s
	out.Players = make(map[string]domain.Player, len(s.Players))
	for id, p := range s.Players {
		out.Players[id] = p
	}
	out.LastProtect = make(map[string]string, len(s.LastProtect))
	for id, target := range s.LastProtect {
		out.LastProtect[id] = target
	}
	out.ShotsUsed = make(map[string]int, len(s.ShotsUsed))
	for id, used := range s.ShotsUsed {
		out.ShotsUsed[id] = used
	}
	out.SkippedVotes = make(map[int]bool, len(s.SkippedVotes))
	for round, skipped := range s.SkippedVotes {
		out.SkippedVotes[round] = skipped
	}
	return out
}

// Player returns the player with the given id.
func (s State) Player(playerID string) (domain.Player, bool) {
	p, ok := s.Players[playerID]
	return p, ok
}

// AliveIDs returns the ids of living players in canonical (sorted) order.
func (s State) AliveIDs() []string {
	ids := make([]string, 0, len(s.Players))
	for id, p := range s.Players {
		if p.Alive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// AliveCapable returns the ids of living players holding the given role, in
// canonical order.
func (s State) AliveCapable(role domain.Role) []string {
	ids := make([]string, 0, len(s.Players))
	for id, p := range s.Players {
		if p.Alive && p.Roles.Has(role) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// AliveMafiaCount returns the number of living mafia-aligned players.
func (s State) AliveMafiaCount() int {
	count := 0
	for _, p := range s.Players {
		if p.Alive && p.MafiaAligned() {
			count++
		}
	}
	return count
}

// AliveTownCount returns the number of living non-mafia players.
func (s State) AliveTownCount() int {
	count := 0
	for _, p := range s.Players {
		if p.Alive && !p.MafiaAligned() {
			count++
		}
	}
	return count
}

// Apply folds one event into the state, returning the successor state. The
// receiver is never mutated. Events must arrive in sequence order; a gap or
// duplicate is rejected so replay can detect journal corruption.
func Apply(s State, evt event.Event) (State, error) {
	if evt.Seq != s.LastSeq+1 {
		code := apperrors.CodeEventSequenceGap
		if evt.Seq <= s.LastSeq {
			code = apperrors.CodeEventSequenceDuplicate
		}
		return State{}, apperrors.WithMetadata(code, "event out of sequence",
			map[string]string{
				"game_id": evt.GameID,
				"type":    string(evt.Type),
			})
	}

	next := s.Clone()
	next.LastSeq = evt.Seq

	switch evt.Type {
	case event.TypeGameCreated:
		var payload event.GameCreatedPayload
		if err := event.UnmarshalPayload(evt.PayloadJSON, &payload); err != nil {
			return State{}, apperrors.Wrap(apperrors.CodeEventInvalidType, "decode game.created payload", err)
		}
		next.GameID = evt.GameID
		next.Seed = payload.Seed
		next.Status = domain.StatusActive
		next.Phase = domain.PhaseSetup
		next.Round = 0
		next.TiePolicy = domain.TiePolicy(payload.TiePolicy)
		for _, ref := range payload.Players {
			next.Players[ref.ID] = domain.Player{ID: ref.ID, Name: ref.Name, Alive: true}
		}

	case event.TypeRolesAssigned:
		var payload event.RolesAssignedPayload
		if err := event.UnmarshalPayload(evt.PayloadJSON, &payload); err != nil {
			return State{}, apperrors.Wrap(apperrors.CodeEventInvalidType, "decode game.roles_assigned payload", err)
		}
		for playerID, roles := range payload.Assignments {
			p, ok := next.Players[playerID]
			if !ok {
				return State{}, apperrors.WithMetadata(apperrors.CodePlayerUnknown,
					"role assigned to unknown player", map[string]string{"player_id": playerID})
			}
			set := domain.RoleSet(nil)
			for _, role := range roles {
				set = set.Add(domain.Role(role))
			}
			p.Roles = set
			next.Players[playerID] = p
		}

	case event.TypePhaseChanged:
		var payload event.PhaseChangedPayload
		if err := event.UnmarshalPayload(evt.PayloadJSON, &payload); err != nil {
			return State{}, apperrors.Wrap(apperrors.CodeEventInvalidType, "decode game.phase_changed payload", err)
		}
		next.Phase = domain.Phase(payload.To)
		next.Round = payload.Round

	case event.TypeGamePaused:
		next.Status = domain.StatusPaused

	case event.TypeGameResumed:
		next.Status = domain.StatusActive

	case event.TypeGameErrored:
		next.Status = domain.StatusErrored

	case event.TypeGameEnded:
		var payload event.GameEndedPayload
		if err := event.UnmarshalPayload(evt.PayloadJSON, &payload); err != nil {
			return State{}, apperrors.Wrap(apperrors.CodeEventInvalidType, "decode game.ended payload", err)
		}
		next.Status = domain.StatusEnded
		next.Winner = domain.Winner(payload.Winner)

	case event.TypeNightActionSubmitted:
		var payload event.ActionSubmittedPayload
		if err := event.UnmarshalPayload(evt.PayloadJSON, &payload); err != nil {
			return State{}, apperrors.Wrap(apperrors.CodeEventInvalidType, "decode night.action_submitted payload", err)
		}
		switch domain.ActionKind(payload.Kind) {
		case domain.KindProtect:
			if payload.TargetID != "" {
				next.LastProtect[payload.PlayerID] = payload.TargetID
			}
		case domain.KindShoot:
			if payload.TargetID != "" {
				next.ShotsUsed[payload.PlayerID]++
			}
		}

	case event.TypePlayerEliminated:
		var payload event.PlayerEliminatedPayload
		if err := event.UnmarshalPayload(evt.PayloadJSON, &payload); err != nil {
			return State{}, apperrors.Wrap(apperrors.CodeEventInvalidType, "decode player.eliminated payload", err)
		}
		p, ok := next.Players[payload.PlayerID]
		if !ok {
			return State{}, apperrors.WithMetadata(apperrors.CodePlayerUnknown,
				"eliminated unknown player", map[string]string{"player_id": payload.PlayerID})
		}
		p.Alive = false
		round := payload.Round
		p.EliminatedRound = &round
		next.Players[payload.PlayerID] = p

	case event.TypeVoteResult:
		var payload event.VoteResultPayload
		if err := event.UnmarshalPayload(evt.PayloadJSON, &payload); err != nil {
			return State{}, apperrors.Wrap(apperrors.CodeEventInvalidType, "decode day.vote_result payload", err)
		}
		if payload.Skipped {
			next.SkippedVotes[payload.Round] = true
		}

	case event.TypeNightResolved, event.TypeVoteCast,
		event.TypeInvestigationResult, event.TypeProtectionConfirmed:
		// Recorded for observers and replay; no projection change beyond
		// the sequence cursor.

	default:
		return State{}, apperrors.WithMetadata(apperrors.CodeEventInvalidType,
			"unknown event type in fold", map[string]string{"type": string(evt.Type)})
	}

	return next, nil
}

// Fold applies a slice of events in order, starting from s.
func Fold(s State, events []event.Event) (State, error) {
	var err error
	for _, evt := range events {
		s, err = Apply(s, evt)
		if err != nil {
			return State{}, err
		}
	}
	return s, nil
}
