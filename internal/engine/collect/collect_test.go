package collect

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/louisbranch/nocturne/internal/agent"
	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/engine/rng"
	"github.com/louisbranch/nocturne/internal/engine/state"
)

func testState(t *testing.T, roles map[string]domain.Role) state.State {
	t.Helper()
	s := state.New()
	for id, role := range roles {
		player, err := domain.NewPlayer(id, "Player "+id, domain.NewRoleSet(role))
		if err != nil {
			t.Fatalf("new player %s: %v", id, err)
		}
		s.Players[id] = player
	}
	return s
}

func testConfig() domain.Config {
	cfg, err := domain.Config{
		Seed:         11,
		RoleCounts:   map[domain.Role]int{domain.RoleMafia: 1, domain.RoleDoctor: 1, domain.RoleVillager: 2},
		PhaseTimeout: 100 * time.Millisecond,
	}.Normalize()
	if err != nil {
		panic(err)
	}
	return cfg
}

func TestNightObligations(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"d1": domain.RoleDoctor,
		"s1": domain.RoleSheriff,
		"g1": domain.RoleVigilante,
		"v1": domain.RoleVillager,
	})
	s.LastProtect["d1"] = "v1"
	cfg := testConfig()

	obs := NightObligations(s, cfg)
	byPlayer := map[string]Obligation{}
	for _, ob := range obs {
		byPlayer[ob.PlayerID] = ob
	}
	if len(obs) != 4 {
		t.Fatalf("expected 4 obligations, got %d: %+v", len(obs), obs)
	}
	if _, ok := byPlayer["v1"]; ok {
		t.Fatal("villager owes no night decision")
	}
	for _, target := range byPlayer["m1"].Candidates {
		if target == "m1" {
			t.Fatal("mafia candidate list must exclude mafia")
		}
	}
	for _, target := range byPlayer["d1"].Candidates {
		if target == "v1" {
			t.Fatal("doctor candidates must exclude the previous target")
		}
	}
	for _, target := range byPlayer["s1"].Candidates {
		if target == "s1" {
			t.Fatal("sheriff candidates must exclude self")
		}
	}
}

func TestNightObligationsSkipExhaustedVigilante(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"g1": domain.RoleVigilante,
		"v1": domain.RoleVillager,
	})
	s.ShotsUsed["g1"] = 1

	for _, ob := range NightObligations(s, testConfig()) {
		if ob.Kind == domain.KindShoot {
			t.Fatal("exhausted vigilante owes no shot")
		}
	}
}

func TestVoteObligationsRestrictedPool(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"p1": domain.RoleMafia,
		"p2": domain.RoleVillager,
		"p3": domain.RoleVillager,
	})
	obs := VoteObligations(s, []string{"p1", "p2"})
	if len(obs) != 3 {
		t.Fatalf("expected 3 ballots, got %d", len(obs))
	}
	for _, ob := range obs {
		for _, target := range ob.Candidates {
			if target == ob.PlayerID {
				t.Fatal("a voter must not be their own candidate")
			}
			if target == "p3" {
				t.Fatal("restricted pool must exclude p3")
			}
		}
	}
}

func TestCollectNightValidAnswers(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"d1": domain.RoleDoctor,
		"v1": domain.RoleVillager,
	})
	cfg := testConfig()
	a := agent.NewScripted(map[string][]string{
		"m1": {"v1"},
		"d1": {"v1"},
	})

	actions := New(a, cfg).CollectNight(context.Background(), "g1", 1, NightObligations(s, cfg), rng.New(cfg.Seed))
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %+v", actions)
	}
	for _, action := range actions {
		if action.Defaulted {
			t.Fatalf("unexpected default: %+v", action)
		}
		if action.TargetID != "v1" {
			t.Fatalf("expected target v1, got %+v", action)
		}
	}
}

func TestCollectNightRetriesThenSubstitutesInvestigation(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"d1": domain.RoleDoctor,
		"s1": domain.RoleSheriff,
		"v1": domain.RoleVillager,
	})
	cfg := testConfig()

	var sheriffCalls int32
	a := agent.Func(func(ctx context.Context, req agent.Request) (agent.Decision, error) {
		if req.PlayerID == "s1" {
			atomic.AddInt32(&sheriffCalls, 1)
			return agent.Decision{TargetID: "s1"}, nil // always invalid
		}
		return agent.Decision{}, nil
	})

	run := func() string {
		atomic.StoreInt32(&sheriffCalls, 0)
		actions := New(a, cfg).CollectNight(context.Background(), "g1", 1, NightObligations(s, cfg), rng.New(cfg.Seed))
		if got := atomic.LoadInt32(&sheriffCalls); got != int32(cfg.RetryLimit)+1 {
			t.Fatalf("expected %d sheriff attempts, got %d", cfg.RetryLimit+1, got)
		}
		for _, action := range actions {
			if action.PlayerID != "s1" {
				continue
			}
			if !action.Defaulted || action.TargetID == "" || action.TargetID == "s1" {
				t.Fatalf("expected a substituted investigation target, got %+v", action)
			}
			return action.TargetID
		}
		t.Fatal("no sheriff action collected")
		return ""
	}
	if run() != run() {
		t.Fatal("substituted target not deterministic across identical runs")
	}
}

func TestCollectNightSheriffTimeoutStillPasses(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"s1": domain.RoleSheriff,
		"v1": domain.RoleVillager,
	})
	cfg := testConfig()

	a := agent.Func(func(ctx context.Context, req agent.Request) (agent.Decision, error) {
		if req.PlayerID == "s1" {
			return agent.Decision{}, context.DeadlineExceeded
		}
		return agent.Decision{}, nil
	})

	actions := New(a, cfg).CollectNight(context.Background(), "g1", 1, NightObligations(s, cfg), rng.New(cfg.Seed))
	for _, action := range actions {
		if action.PlayerID != "s1" {
			continue
		}
		if !action.Defaulted || action.TargetID != "" {
			t.Fatalf("expected a silent sheriff to pass, got %+v", action)
		}
	}
}

func TestCollectNightMafiaDefaultJoinsPlurality(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"m2": domain.RoleMafia,
		"v1": domain.RoleVillager,
		"v2": domain.RoleVillager,
	})
	cfg := testConfig()

	a := agent.Func(func(ctx context.Context, req agent.Request) (agent.Decision, error) {
		if req.PlayerID == "m1" {
			return agent.Decision{TargetID: "v2"}, nil
		}
		return agent.Decision{}, context.DeadlineExceeded
	})

	actions := New(a, cfg).CollectNight(context.Background(), "g1", 1, NightObligations(s, cfg), rng.New(cfg.Seed))
	for _, action := range actions {
		if action.PlayerID != "m2" {
			continue
		}
		if !action.Defaulted || action.TargetID != "v2" {
			t.Fatalf("expected m2 default to join the declared target, got %+v", action)
		}
	}
}

func TestCollectNightAllMafiaDefaultedIsSeedDerived(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"v1": domain.RoleVillager,
		"v2": domain.RoleVillager,
	})
	cfg := testConfig()
	failing := agent.Func(func(ctx context.Context, req agent.Request) (agent.Decision, error) {
		return agent.Decision{}, context.DeadlineExceeded
	})

	run := func() string {
		actions := New(failing, cfg).CollectNight(context.Background(), "g1", 1, NightObligations(s, cfg), rng.New(cfg.Seed))
		for _, action := range actions {
			if action.Kind == domain.KindKillProposal {
				if !action.Defaulted || action.TargetID == "" {
					t.Fatalf("expected seed-derived mafia default, got %+v", action)
				}
				return action.TargetID
			}
		}
		t.Fatal("no kill proposal collected")
		return ""
	}
	if run() != run() {
		t.Fatal("mafia default not deterministic across identical runs")
	}
}

func TestCollectVotesDefaultsToAbstain(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"p1": domain.RoleMafia,
		"p2": domain.RoleVillager,
		"p3": domain.RoleVillager,
	})
	cfg := testConfig()
	a := agent.Func(func(ctx context.Context, req agent.Request) (agent.Decision, error) {
		if req.PlayerID == "p3" {
			return agent.Decision{}, context.DeadlineExceeded
		}
		return agent.Decision{TargetID: "p3"}, nil
	})

	votes := New(a, cfg).CollectVotes(context.Background(), "g1", 1, VoteObligations(s, nil))
	if len(votes) != 3 {
		t.Fatalf("expected 3 ballots, got %+v", votes)
	}
	for _, vote := range votes {
		if vote.VoterID == "p3" {
			if !vote.Defaulted || !vote.Abstain() {
				t.Fatalf("expected p3 defaulted abstention, got %+v", vote)
			}
			continue
		}
		if vote.TargetID != "p3" {
			t.Fatalf("expected vote for p3, got %+v", vote)
		}
	}
}

func TestCollectHonorsClosedWindow(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"v1": domain.RoleVillager,
		"v2": domain.RoleVillager,
	})
	cfg := testConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocked := agent.Func(func(ctx context.Context, req agent.Request) (agent.Decision, error) {
		<-ctx.Done()
		return agent.Decision{}, ctx.Err()
	})
	actions := New(blocked, cfg).CollectNight(ctx, "g1", 1, NightObligations(s, cfg), rng.New(cfg.Seed))
	for _, action := range actions {
		if !action.Defaulted {
			t.Fatalf("expected every action defaulted on a closed window, got %+v", action)
		}
	}
}
