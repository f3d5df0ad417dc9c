package resolve

import (
	"sort"

	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/engine/rng"
)

// VoteOutcome is the result of tallying one ballot window.
type VoteOutcome struct {
	// Tallies maps each voted target to its vote count. Abstentions are
	// excluded from the denominator.
	Tallies map[string]int
	// Abstentions counts ballots with no target.
	Abstentions int
	// Tied lists the plurality-tied candidates in canonical order. Empty
	// when a single candidate led the tally.
	Tied []string
	// Eliminated is the player voted out ("" when nobody is).
	Eliminated string
	// NeedsRevote is set only under the revote policy on a first-round
	// tie: the caller should run one more ballot restricted to Tied.
	NeedsRevote bool
	// Skipped is set only under the skip policy on a first-pass tie: the
	// caller should reopen discussion and vote again instead of moving on.
	Skipped bool
}

// Votes tallies the ballots for one voting window. A plurality winner is
// eliminated; a tie is settled by the configured policy. final marks the
// bounded second pass (the restricted revote ballot, or the repeat ballot
// after a skip reopened discussion); its own tie always falls back to
// sparing everyone.
func Votes(votes []domain.Vote, policy domain.TiePolicy, final bool, r *rng.RNG) VoteOutcome {
	out := VoteOutcome{Tallies: map[string]int{}}
	for _, vote := range votes {
		if vote.Abstain() {
			out.Abstentions++
			continue
		}
		out.Tallies[vote.TargetID]++
	}
	if len(out.Tallies) == 0 {
		return out
	}

	best := 0
	for _, count := range out.Tallies {
		if count > best {
			best = count
		}
	}
	leaders := make([]string, 0, len(out.Tallies))
	for target, count := range out.Tallies {
		if count == best {
			leaders = append(leaders, target)
		}
	}
	sort.Strings(leaders)

	if len(leaders) == 1 {
		out.Eliminated = leaders[0]
		return out
	}

	out.Tied = leaders
	if final {
		return out
	}
	switch policy {
	case domain.TieRandom:
		out.Eliminated = r.Pick(leaders)
	case domain.TieRevote:
		out.NeedsRevote = true
	case domain.TieSkip:
		out.Skipped = true
	case domain.TieNoElimination:
		// Nobody is eliminated.
	}
	return out
}
