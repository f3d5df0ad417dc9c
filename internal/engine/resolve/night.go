// Package resolve implements the pure resolution rules: the night action
// resolver, the day vote resolver, and the win condition checker. Every
// function here is deterministic given the state, the submitted actions,
// and the game's seeded random source.
package resolve

import (
	"sort"

	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/engine/rng"
	"github.com/louisbranch/nocturne/internal/engine/state"
)

// Investigation is one sheriff's private result for the night.
type Investigation struct {
	SheriffID    string
	TargetID     string
	MafiaAligned bool
}

// Protection is one doctor's confirmed protection for the night.
type Protection struct {
	DoctorID string
	TargetID string
}

// NightOutcome is the full result of resolving one night.
type NightOutcome struct {
	// Deaths lists eliminated player ids in canonical order.
	Deaths []string
	// Prevented reports whether any lethal attempt was blocked by
	// protection. Public payloads expose only this bit, so a blocked kill
	// stays indistinguishable from a night with no kill attempt.
	Prevented bool
	// KillTarget is the mafia consensus target ("" when every member
	// passed). Private to resolution; never published.
	KillTarget string
	// Investigations holds the sheriffs' private results.
	Investigations []Investigation
	// Protections holds the doctors' private confirmations.
	Protections []Protection
}

// Night resolves the collected night actions against the given state.
//
// Resolution order is fixed regardless of submission order: investigations
// read the pre-death state, then the mafia consensus target is chosen, then
// protection is applied, then vigilante shots land, and finally deaths are
// computed. Actions must already be validated; Night trusts its input.
func Night(s state.State, cfg domain.Config, actions []domain.NightAction, r *rng.RNG) NightOutcome {
	var out NightOutcome

	// Sheriffs see alignment as of the start of the night, before any
	// death from the same night lands.
	for _, action := range sortedActions(actions) {
		if action.Kind != domain.KindInvestigate || action.Pass() {
			continue
		}
		target, ok := s.Player(action.TargetID)
		if !ok {
			continue
		}
		out.Investigations = append(out.Investigations, Investigation{
			SheriffID:    action.PlayerID,
			TargetID:     action.TargetID,
			MafiaAligned: target.MafiaAligned(),
		})
	}

	out.KillTarget = mafiaConsensus(actions, r)

	protected := map[string]bool{}
	for _, action := range sortedActions(actions) {
		if action.Kind != domain.KindProtect || action.Pass() {
			continue
		}
		protected[action.TargetID] = true
		out.Protections = append(out.Protections, Protection{
			DoctorID: action.PlayerID,
			TargetID: action.TargetID,
		})
	}

	deaths := map[string]bool{}
	if out.KillTarget != "" {
		if protected[out.KillTarget] {
			out.Prevented = true
		} else {
			deaths[out.KillTarget] = true
		}
	}

	for _, action := range actions {
		if action.Kind != domain.KindShoot || action.Pass() {
			continue
		}
		if cfg.VigilanteBlockable && protected[action.TargetID] {
			out.Prevented = true
			continue
		}
		deaths[action.TargetID] = true
	}

	out.Deaths = make([]string, 0, len(deaths))
	for id := range deaths {
		out.Deaths = append(out.Deaths, id)
	}
	sort.Strings(out.Deaths)
	return out
}

// mafiaConsensus picks the team's kill target: the plurality of non-pass
// proposals, with a seed-derived tie-break. All-pass means no kill.
func mafiaConsensus(actions []domain.NightAction, r *rng.RNG) string {
	tally := map[string]int{}
	for _, action := range actions {
		if action.Kind != domain.KindKillProposal || action.Pass() {
			continue
		}
		tally[action.TargetID]++
	}
	if len(tally) == 0 {
		return ""
	}

	best := 0
	for _, count := range tally {
		if count > best {
			best = count
		}
	}
	tied := make([]string, 0, len(tally))
	for target, count := range tally {
		if count == best {
			tied = append(tied, target)
		}
	}
	sort.Strings(tied)
	if len(tied) == 1 {
		return tied[0]
	}
	return r.Pick(tied)
}

// sortedActions returns the actions ordered by player id then kind, so
// per-role iteration order never depends on collection order.
func sortedActions(actions []domain.NightAction) []domain.NightAction {
	out := make([]domain.NightAction, len(actions))
	copy(out, actions)
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlayerID != out[j].PlayerID {
			return out[i].PlayerID < out[j].PlayerID
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
