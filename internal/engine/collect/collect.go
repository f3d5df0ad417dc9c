package collect

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/louisbranch/nocturne/internal/agent"
	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/engine/rng"
	"github.com/louisbranch/nocturne/internal/platform/timeouts"
)

// Collector gathers one window's decisions from agents.
type Collector struct {
	agent agent.Agent
	// retryLimit bounds re-requests after an invalid answer.
	retryLimit int
	// decisionTimeout bounds each individual Decide call.
	decisionTimeout time.Duration
}

// New builds a collector for the given agent and game configuration.
func New(a agent.Agent, cfg domain.Config) *Collector {
	timeout := cfg.PhaseTimeout
	if timeout <= 0 {
		timeout = timeouts.AgentDecision
	}
	return &Collector{
		agent:           a,
		retryLimit:      cfg.RetryLimit,
		decisionTimeout: timeout,
	}
}

// result is one obligation's collected answer.
type result struct {
	obligation Obligation
	targetID   string
	defaulted  bool
	// rejected marks a default caused by retry exhaustion on invalid
	// answers, as opposed to a timeout, error, or explicit pass.
	rejected bool
}

// CollectNight gathers the night window's actions. Every obligation yields
// exactly one action: an agent answer that survives validation, or a
// default. Mafia defaults follow the declared team plurality when any
// teammate answered, otherwise a seed-derived target; an investigator whose
// answers kept failing validation is assigned a seed-derived target rather
// than losing the look; every other default is a pass. The returned slice
// is in canonical order.
func (c *Collector) CollectNight(ctx context.Context, gameID string, round int, obligations []Obligation, r *rng.RNG) []domain.NightAction {
	results := c.collect(ctx, gameID, domain.PhaseNightActions, round, obligations)

	// First pass: tally the answered proposals so defaulted mafia members
	// can join the declared plurality.
	proposalTally := map[string]int{}
	for _, res := range results {
		if res.obligation.Kind == domain.KindKillProposal && !res.defaulted && res.targetID != "" {
			proposalTally[res.targetID]++
		}
	}

	actions := make([]domain.NightAction, 0, len(results))
	for _, res := range results {
		target := res.targetID
		if res.defaulted {
			target = ""
			switch {
			case res.obligation.Kind == domain.KindKillProposal:
				target = pluralityTarget(proposalTally)
				if target == "" {
					target = r.Pick(res.obligation.Fallback)
				}
			case res.rejected && len(res.obligation.Fallback) > 0:
				target = r.Pick(res.obligation.Fallback)
			}
		}
		actions = append(actions, domain.NightAction{
			PlayerID:  res.obligation.PlayerID,
			Kind:      res.obligation.Kind,
			TargetID:  target,
			Defaulted: res.defaulted,
		})
	}
	return actions
}

// CollectVotes gathers the voting window's ballots. A missing or invalid
// ballot defaults to an abstention. Order reflects canonical order, not
// arrival order.
func (c *Collector) CollectVotes(ctx context.Context, gameID string, round int, obligations []Obligation) []domain.Vote {
	results := c.collect(ctx, gameID, domain.PhaseDayVoting, round, obligations)
	votes := make([]domain.Vote, 0, len(results))
	for i, res := range results {
		target := res.targetID
		if res.defaulted {
			target = ""
		}
		votes = append(votes, domain.Vote{
			VoterID:   res.obligation.PlayerID,
			TargetID:  target,
			Order:     i,
			Defaulted: res.defaulted,
		})
	}
	return votes
}

// collect fans out one goroutine per obligation and joins the answers in
// canonical order. Goroutines validate by candidate membership only; they
// never touch shared state or the seeded random source.
func (c *Collector) collect(ctx context.Context, gameID string, phase domain.Phase, round int, obligations []Obligation) []result {
	ctx, cancel := context.WithTimeout(ctx, timeouts.PhaseWindow)
	defer cancel()

	results := make([]result, len(obligations))
	var wg sync.WaitGroup
	for i, ob := range obligations {
		wg.Add(1)
		go func(i int, ob Obligation) {
			defer wg.Done()
			target, defaulted, rejected := c.request(ctx, agent.Request{
				GameID:     gameID,
				PlayerID:   ob.PlayerID,
				Phase:      phase,
				Round:      round,
				Kind:       ob.Kind,
				Candidates: ob.Candidates,
			}, ob.Candidates)
			results[i] = result{obligation: ob, targetID: target, defaulted: defaulted, rejected: rejected}
		}(i, ob)
	}
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].obligation, results[j].obligation
		if kindRank(a.Kind) != kindRank(b.Kind) {
			return kindRank(a.Kind) < kindRank(b.Kind)
		}
		return a.PlayerID < b.PlayerID
	})
	return results
}

// request asks one agent for one decision, retrying invalid answers up to
// the configured limit. A timeout, an agent error, or retry exhaustion
// reports defaulted; exhaustion additionally reports rejected so the
// caller can substitute a target where a pass would lose the action.
func (c *Collector) request(ctx context.Context, req agent.Request, candidates []string) (target string, defaulted, rejected bool) {
	for attempt := 0; attempt <= c.retryLimit; attempt++ {
		if ctx.Err() != nil {
			return "", true, false
		}
		req.Attempt = attempt

		reqCtx, cancel := context.WithTimeout(ctx, c.decisionTimeout)
		dec, err := c.agent.Decide(reqCtx, req)
		cancel()
		if err != nil {
			return "", true, false
		}
		if dec.TargetID == "" {
			return "", false, false
		}
		if contains(candidates, dec.TargetID) {
			return dec.TargetID, false, false
		}
		// Invalid target: re-request.
	}
	return "", true, true
}

func pluralityTarget(tally map[string]int) string {
	best := 0
	target := ""
	for id, count := range tally {
		if count > best || (count == best && id < target) {
			best = count
			target = id
		}
	}
	return target
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
