package engine

import (
	"context"
	"time"

	"github.com/louisbranch/nocturne/internal/engine/collect"
	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/engine/event"
	"github.com/louisbranch/nocturne/internal/engine/resolve"
	apperrors "github.com/louisbranch/nocturne/internal/platform/errors"
	"github.com/louisbranch/nocturne/internal/telemetry"
)

// phaseEvents computes the full event list for the transition out of the
// current phase. Collection windows (agent calls) happen here; the events
// are appended afterwards by flush, so a storage failure can replay the
// exact same intent.
func (r *Runner) phaseEvents(ctx context.Context) ([]event.Event, error) {
	hasWinner := resolve.Win(r.st, r.cfg.WinTiePolicy).Decided()

	switch r.st.Phase {
	case domain.PhaseSetup:
		next, _ := r.st.Phase.Next(hasWinner)
		return []event.Event{r.phaseChange(next, 1)}, nil
	case domain.PhaseNightActions:
		if hasWinner {
			next, _ := r.st.Phase.Next(true)
			return []event.Event{r.phaseChange(next, r.st.Round)}, nil
		}
		return r.nightEvents(ctx)
	case domain.PhaseMorningReveal, domain.PhaseDayDiscussion:
		next, _ := r.st.Phase.Next(hasWinner)
		return []event.Event{r.phaseChange(next, r.st.Round)}, nil
	case domain.PhaseDayVoting:
		if hasWinner {
			next, _ := r.st.Phase.Next(true)
			return []event.Event{r.phaseChange(next, r.st.Round)}, nil
		}
		return r.votingEvents(ctx)
	case domain.PhaseResolution:
		return r.resolutionEvents()
	default:
		return nil, apperrors.WithMetadata(apperrors.CodeGameInvalidPhaseTransition,
			"no transition from phase", map[string]string{"phase": string(r.st.Phase)})
	}
}

func (r *Runner) phaseChange(to domain.Phase, round int) event.Event {
	payload, _ := event.MarshalPayload(event.PhaseChangedPayload{
		From:  string(r.st.Phase),
		To:    string(to),
		Round: round,
	})
	return r.newEvent(event.TypePhaseChanged, event.VisibilityPublic, round, payload)
}

// nightEvents runs the night window end to end: collection, the action
// records, the reveal transition, private results, the public outcome, and
// the eliminations.
func (r *Runner) nightEvents(ctx context.Context) ([]event.Event, error) {
	round := r.st.Round
	obligations := collect.NightObligations(r.st, r.cfg)

	var actions []domain.NightAction
	if len(obligations) > 0 {
		start := time.Now()
		actions = collect.New(r.agents, r.cfg).CollectNight(ctx, r.gameID, round, obligations, r.stepRNG())
		r.emitter.Record(ctx, r.gameID, telemetry.KindDecisionLatency, round, time.Since(start))
	}

	var events []event.Event
	for _, action := range actions {
		payload, err := event.MarshalPayload(event.ActionSubmittedPayload{
			PlayerID:  action.PlayerID,
			Kind:      string(action.Kind),
			TargetID:  action.TargetID,
			Defaulted: action.Defaulted,
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorageFailed, "encode action payload", err)
		}
		evt := r.newEvent(event.TypeNightActionSubmitted, event.VisibilityRole, round, payload)
		evt.ActorID = action.PlayerID
		if action.Kind == domain.KindKillProposal {
			evt.Visibility = event.VisibilityFaction
			evt.FactionID = event.FactionMafia
		}
		events = append(events, evt)
	}

	outcome := resolve.Night(r.st, r.cfg, actions, r.stepRNG())
	next, _ := r.st.Phase.Next(false)
	events = append(events, r.phaseChange(next, round))

	for _, inv := range outcome.Investigations {
		payload, err := event.MarshalPayload(event.InvestigationResultPayload{
			SheriffID:    inv.SheriffID,
			TargetID:     inv.TargetID,
			MafiaAligned: inv.MafiaAligned,
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorageFailed, "encode investigation payload", err)
		}
		evt := r.newEvent(event.TypeInvestigationResult, event.VisibilityRole, round, payload)
		evt.ActorID = inv.SheriffID
		events = append(events, evt)
	}
	for _, prot := range outcome.Protections {
		payload, err := event.MarshalPayload(event.ProtectionConfirmedPayload{
			DoctorID: prot.DoctorID,
			TargetID: prot.TargetID,
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorageFailed, "encode protection payload", err)
		}
		evt := r.newEvent(event.TypeProtectionConfirmed, event.VisibilityRole, round, payload)
		evt.ActorID = prot.DoctorID
		events = append(events, evt)
	}

	resolvedPayload, err := event.MarshalPayload(event.NightResolvedPayload{
		Round:     round,
		Deaths:    outcome.Deaths,
		Prevented: outcome.Prevented,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailed, "encode night payload", err)
	}
	events = append(events, r.newEvent(event.TypeNightResolved, event.VisibilityPublic, round, resolvedPayload))

	eliminations, err := r.eliminationEvents(outcome.Deaths, round, event.CauseNight)
	if err != nil {
		return nil, err
	}
	return append(events, eliminations...), nil
}

// votingEvents runs the voting window: ballots, the resolution transition,
// tallies, one revote round when the policy asks, and the elimination. A
// tie under the skip policy reopens discussion instead, once per round;
// the repeat ballot's tie spares everyone.
func (r *Runner) votingEvents(ctx context.Context) ([]event.Event, error) {
	round := r.st.Round

	start := time.Now()
	votes := collect.New(r.agents, r.cfg).CollectVotes(ctx, r.gameID, round, collect.VoteObligations(r.st, nil))
	r.emitter.Record(ctx, r.gameID, telemetry.KindDecisionLatency, round, time.Since(start))

	events, err := r.voteCastEvents(votes, round)
	if err != nil {
		return nil, err
	}

	outcome := resolve.Votes(votes, r.cfg.TiePolicy, r.st.SkippedVotes[round], r.stepRNG())
	resultEvt, err := r.voteResultEvent(outcome, round)
	if err != nil {
		return nil, err
	}
	if outcome.Skipped {
		return append(events, resultEvt, r.phaseChange(domain.PhaseDayDiscussion, round)), nil
	}

	next, _ := r.st.Phase.Next(false)
	events = append(events, r.phaseChange(next, round))
	events = append(events, resultEvt)

	if outcome.NeedsRevote {
		revotes := collect.New(r.agents, r.cfg).CollectVotes(ctx, r.gameID, round, collect.VoteObligations(r.st, outcome.Tied))
		revoteEvents, err := r.voteCastEvents(revotes, round)
		if err != nil {
			return nil, err
		}
		events = append(events, revoteEvents...)

		outcome = resolve.Votes(revotes, r.cfg.TiePolicy, true, r.stepRNG())
		resultEvt, err = r.voteResultEvent(outcome, round)
		if err != nil {
			return nil, err
		}
		events = append(events, resultEvt)
	}

	if outcome.Eliminated != "" {
		eliminations, err := r.eliminationEvents([]string{outcome.Eliminated}, round, event.CauseVote)
		if err != nil {
			return nil, err
		}
		events = append(events, eliminations...)
	}
	return events, nil
}

// resolutionEvents closes the cycle: end the game when a side has won,
// otherwise open the next night.
func (r *Runner) resolutionEvents() ([]event.Event, error) {
	winner := resolve.Win(r.st, r.cfg.WinTiePolicy)
	next, _ := r.st.Phase.Next(winner.Decided())
	if !winner.Decided() {
		return []event.Event{r.phaseChange(next, r.st.Round+1)}, nil
	}

	endPayload, err := event.MarshalPayload(event.GameEndedPayload{
		Winner: string(winner),
		Rounds: r.st.Round,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailed, "encode ended payload", err)
	}
	return []event.Event{
		r.phaseChange(next, r.st.Round),
		r.newEvent(event.TypeGameEnded, event.VisibilityPublic, r.st.Round, endPayload),
	}, nil
}

func (r *Runner) voteCastEvents(votes []domain.Vote, round int) ([]event.Event, error) {
	out := make([]event.Event, 0, len(votes))
	for _, vote := range votes {
		payload, err := event.MarshalPayload(event.VoteCastPayload{
			VoterID:   vote.VoterID,
			TargetID:  vote.TargetID,
			Order:     vote.Order,
			Defaulted: vote.Defaulted,
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorageFailed, "encode vote payload", err)
		}
		out = append(out, r.newEvent(event.TypeVoteCast, event.VisibilityPublic, round, payload))
	}
	return out, nil
}

func (r *Runner) voteResultEvent(outcome resolve.VoteOutcome, round int) (event.Event, error) {
	payload, err := event.MarshalPayload(event.VoteResultPayload{
		Round:       round,
		Tallies:     outcome.Tallies,
		Abstentions: outcome.Abstentions,
		Tied:        outcome.Tied,
		TiePolicy:   string(r.cfg.TiePolicy),
		Eliminated:  outcome.Eliminated,
		Skipped:     outcome.Skipped,
	})
	if err != nil {
		return event.Event{}, apperrors.Wrap(apperrors.CodeStorageFailed, "encode vote result payload", err)
	}
	return r.newEvent(event.TypeVoteResult, event.VisibilityPublic, round, payload), nil
}

// eliminationEvents builds the public death records, revealing roles.
func (r *Runner) eliminationEvents(deaths []string, round int, cause string) ([]event.Event, error) {
	out := make([]event.Event, 0, len(deaths))
	for _, playerID := range deaths {
		player, ok := r.st.Player(playerID)
		if !ok {
			return nil, apperrors.WithMetadata(apperrors.CodePlayerUnknown,
				"eliminating unknown player", map[string]string{"player_id": playerID})
		}
		payload, err := event.MarshalPayload(event.PlayerEliminatedPayload{
			PlayerID: playerID,
			Roles:    player.Roles.Strings(),
			Round:    round,
			Cause:    cause,
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorageFailed, "encode elimination payload", err)
		}
		out = append(out, r.newEvent(event.TypePlayerEliminated, event.VisibilityPublic, round, payload))
	}
	return out, nil
}
