// Package collect gathers agent decisions for one action window. It
// enumerates who owes a decision, fans the requests out with deadlines and
// bounded retries, and substitutes safe defaults for anything missing, so
// the resolver downstream always sees a complete action set.
package collect

import (
	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/engine/state"
)

// Obligation is one decision owed by one player in the open window.
type Obligation struct {
	PlayerID string
	Kind     domain.ActionKind
	// Candidates lists the valid targets in canonical order. An empty
	// answer (pass or abstain) is always valid.
	Candidates []string
	// Fallback lists the targets a system default may pick from when the
	// obligation cannot default to a pass: mafia kill proposals, and
	// investigations whose answers kept failing validation.
	Fallback []string
}

// kindRank orders obligations the way resolution reads them, so default
// substitution draws from the seeded source in a stable order.
func kindRank(kind domain.ActionKind) int {
	switch kind {
	case domain.KindInvestigate:
		return 0
	case domain.KindKillProposal:
		return 1
	case domain.KindProtect:
		return 2
	case domain.KindShoot:
		return 3
	case domain.KindVote:
		return 4
	default:
		return 5
	}
}

// NightObligations enumerates the decisions owed for a night window.
// The returned slice is in canonical order. Dead players owe nothing; a
// vigilante with no shots left owes nothing.
func NightObligations(s state.State, cfg domain.Config) []Obligation {
	var out []Obligation

	for _, id := range s.AliveCapable(domain.RoleSheriff) {
		candidates := excluding(s.AliveIDs(), id)
		out = append(out, Obligation{
			PlayerID:   id,
			Kind:       domain.KindInvestigate,
			Candidates: candidates,
			Fallback:   candidates,
		})
	}

	nonMafia := aliveNonMafia(s)
	for _, id := range s.AliveCapable(domain.RoleMafia) {
		out = append(out, Obligation{
			PlayerID:   id,
			Kind:       domain.KindKillProposal,
			Candidates: nonMafia,
			Fallback:   nonMafia,
		})
	}

	for _, id := range s.AliveCapable(domain.RoleDoctor) {
		out = append(out, Obligation{
			PlayerID:   id,
			Kind:       domain.KindProtect,
			Candidates: excluding(s.AliveIDs(), s.LastProtect[id]),
		})
	}

	for _, id := range s.AliveCapable(domain.RoleVigilante) {
		if s.ShotsUsed[id] >= cfg.VigilanteShots {
			continue
		}
		out = append(out, Obligation{
			PlayerID:   id,
			Kind:       domain.KindShoot,
			Candidates: excluding(s.AliveIDs(), id),
		})
	}

	return out
}

// VoteObligations enumerates the ballots owed for a voting window. When
// restrictTo is non-empty the candidate pool is limited to it (revote);
// otherwise every living player other than the voter is a candidate.
func VoteObligations(s state.State, restrictTo []string) []Obligation {
	var out []Obligation
	for _, id := range s.AliveIDs() {
		pool := restrictTo
		if len(pool) == 0 {
			pool = s.AliveIDs()
		}
		out = append(out, Obligation{
			PlayerID:   id,
			Kind:       domain.KindVote,
			Candidates: excluding(pool, id),
		})
	}
	return out
}

func excluding(ids []string, exclude string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}

func aliveNonMafia(s state.State) []string {
	out := make([]string, 0, len(s.Players))
	for _, id := range s.AliveIDs() {
		p, _ := s.Player(id)
		if !p.MafiaAligned() {
			out = append(out, id)
		}
	}
	return out
}
