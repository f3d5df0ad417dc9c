package resolve

import (
	"bytes"
	"testing"

	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/engine/event"
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

func baseConfig() domain.Config {
	return domain.Config{
		Seed:       7,
		RoleCounts: map[domain.Role]int{domain.RoleMafia: 1, domain.RoleDoctor: 1, domain.RoleVillager: 1},
	}
}

func TestNightDoctorBlocksMafiaKill(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"d1": domain.RoleDoctor,
		"v1": domain.RoleVillager,
	})
	out := Night(s, baseConfig(), []domain.NightAction{
		{PlayerID: "m1", Kind: domain.KindKillProposal, TargetID: "v1"},
		{PlayerID: "d1", Kind: domain.KindProtect, TargetID: "v1"},
	}, rng.New(7))
	if len(out.Deaths) != 0 {
		t.Fatalf("expected no deaths, got %v", out.Deaths)
	}
	if !out.Prevented {
		t.Fatal("expected prevented kill")
	}
	if len(out.Protections) != 1 || out.Protections[0].TargetID != "v1" {
		t.Fatalf("unexpected protections: %+v", out.Protections)
	}
}

func TestNightMafiaAllPassKillsNobody(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"m2": domain.RoleMafia,
		"v1": domain.RoleVillager,
	})
	out := Night(s, baseConfig(), []domain.NightAction{
		{PlayerID: "m1", Kind: domain.KindKillProposal},
		{PlayerID: "m2", Kind: domain.KindKillProposal},
	}, rng.New(7))
	if out.KillTarget != "" || len(out.Deaths) != 0 || out.Prevented {
		t.Fatalf("expected quiet night, got %+v", out)
	}
}

func TestNightMafiaPluralityTieIsSeedDeterministic(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"m2": domain.RoleMafia,
		"v1": domain.RoleVillager,
		"v2": domain.RoleVillager,
	})
	actions := []domain.NightAction{
		{PlayerID: "m1", Kind: domain.KindKillProposal, TargetID: "v1"},
		{PlayerID: "m2", Kind: domain.KindKillProposal, TargetID: "v2"},
	}
	first := Night(s, baseConfig(), actions, rng.New(99))
	second := Night(s, baseConfig(), actions, rng.New(99))
	if first.KillTarget == "" {
		t.Fatal("expected a kill target from the tie-break")
	}
	if first.KillTarget != second.KillTarget {
		t.Fatalf("tie-break not deterministic: %s vs %s", first.KillTarget, second.KillTarget)
	}
}

func TestNightInvestigationReadsPreDeathState(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"s1": domain.RoleSheriff,
		"v1": domain.RoleVillager,
	})
	out := Night(s, baseConfig(), []domain.NightAction{
		{PlayerID: "s1", Kind: domain.KindInvestigate, TargetID: "m1"},
		{PlayerID: "m1", Kind: domain.KindKillProposal, TargetID: "s1"},
	}, rng.New(7))
	if len(out.Investigations) != 1 {
		t.Fatalf("expected one investigation, got %+v", out.Investigations)
	}
	inv := out.Investigations[0]
	if !inv.MafiaAligned || inv.TargetID != "m1" {
		t.Fatalf("expected m1 flagged mafia, got %+v", inv)
	}
	// The sheriff still died this night; the result was produced first.
	if len(out.Deaths) != 1 || out.Deaths[0] != "s1" {
		t.Fatalf("expected s1 dead, got %v", out.Deaths)
	}
}

func TestNightVigilanteUnblockableByDefault(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"g1": domain.RoleVigilante,
		"d1": domain.RoleDoctor,
		"v1": domain.RoleVillager,
	})
	actions := []domain.NightAction{
		{PlayerID: "g1", Kind: domain.KindShoot, TargetID: "v1"},
		{PlayerID: "d1", Kind: domain.KindProtect, TargetID: "v1"},
	}

	cfg := baseConfig()
	out := Night(s, cfg, actions, rng.New(7))
	if len(out.Deaths) != 1 || out.Deaths[0] != "v1" {
		t.Fatalf("expected unblockable shot to land, got %v", out.Deaths)
	}

	cfg.VigilanteBlockable = true
	out = Night(s, cfg, actions, rng.New(7))
	if len(out.Deaths) != 0 || !out.Prevented {
		t.Fatalf("expected blocked shot under blockable config, got %+v", out)
	}
}

func TestNightProtectedKillWithShotElsewhere(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"d1": domain.RoleDoctor,
		"g1": domain.RoleVigilante,
		"v1": domain.RoleVillager,
		"v2": domain.RoleVillager,
	})
	out := Night(s, baseConfig(), []domain.NightAction{
		{PlayerID: "m1", Kind: domain.KindKillProposal, TargetID: "v1"},
		{PlayerID: "d1", Kind: domain.KindProtect, TargetID: "v1"},
		{PlayerID: "g1", Kind: domain.KindShoot, TargetID: "v2"},
	}, rng.New(7))
	if !out.Prevented {
		t.Fatal("expected the mafia kill prevented")
	}
	if len(out.Deaths) != 1 || out.Deaths[0] != "v2" {
		t.Fatalf("expected only the shot target dead, got %v", out.Deaths)
	}
}

func TestNightKillAndShotSameTargetSingleDeath(t *testing.T) {
	s := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"g1": domain.RoleVigilante,
		"v1": domain.RoleVillager,
	})
	out := Night(s, baseConfig(), []domain.NightAction{
		{PlayerID: "m1", Kind: domain.KindKillProposal, TargetID: "v1"},
		{PlayerID: "g1", Kind: domain.KindShoot, TargetID: "v1"},
	}, rng.New(7))
	if len(out.Deaths) != 1 || out.Deaths[0] != "v1" {
		t.Fatalf("expected single death, got %v", out.Deaths)
	}
}

func TestNightMafiaPassWithShotLooksLikeAPlainKill(t *testing.T) {
	shot := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"g1": domain.RoleVigilante,
		"v1": domain.RoleVillager,
		"v2": domain.RoleVillager,
	})
	shotOut := Night(shot, baseConfig(), []domain.NightAction{
		{PlayerID: "m1", Kind: domain.KindKillProposal},
		{PlayerID: "g1", Kind: domain.KindShoot, TargetID: "v1"},
	}, rng.New(7))
	if len(shotOut.Deaths) != 1 || shotOut.Deaths[0] != "v1" {
		t.Fatalf("expected exactly the shot target dead, got %v", shotOut.Deaths)
	}
	if shotOut.KillTarget != "" || shotOut.Prevented {
		t.Fatalf("a passed kill must leave no trace, got %+v", shotOut)
	}

	kill := testState(t, map[string]domain.Role{
		"m1": domain.RoleMafia,
		"v1": domain.RoleVillager,
		"v2": domain.RoleVillager,
	})
	killOut := Night(kill, baseConfig(), []domain.NightAction{
		{PlayerID: "m1", Kind: domain.KindKillProposal, TargetID: "v1"},
	}, rng.New(7))

	// The public record must not betray which faction the death came from.
	shotReport, err := event.MarshalPayload(event.NightResolvedPayload{
		Round: 1, Deaths: shotOut.Deaths, Prevented: shotOut.Prevented,
	})
	if err != nil {
		t.Fatalf("encode report: %v", err)
	}
	killReport, err := event.MarshalPayload(event.NightResolvedPayload{
		Round: 1, Deaths: killOut.Deaths, Prevented: killOut.Prevented,
	})
	if err != nil {
		t.Fatalf("encode report: %v", err)
	}
	if !bytes.Equal(shotReport, killReport) {
		t.Fatalf("reports differ:\n%s\n%s", shotReport, killReport)
	}
}

func TestVotesPluralityEliminates(t *testing.T) {
	out := Votes([]domain.Vote{
		{VoterID: "p1", TargetID: "p3"},
		{VoterID: "p2", TargetID: "p3"},
		{VoterID: "p3", TargetID: "p1"},
		{VoterID: "p4"},
	}, domain.TieNoElimination, false, rng.New(7))
	if out.Eliminated != "p3" {
		t.Fatalf("expected p3 eliminated, got %q", out.Eliminated)
	}
	if out.Abstentions != 1 {
		t.Fatalf("expected 1 abstention, got %d", out.Abstentions)
	}
	if out.Tallies["p3"] != 2 {
		t.Fatalf("unexpected tallies: %v", out.Tallies)
	}
}

func TestVotesTiePolicies(t *testing.T) {
	tied := []domain.Vote{
		{VoterID: "p1", TargetID: "p2"},
		{VoterID: "p2", TargetID: "p1"},
	}

	out := Votes(tied, domain.TieNoElimination, false, rng.New(7))
	if out.Eliminated != "" || out.NeedsRevote || out.Skipped {
		t.Fatalf("no_elimination should spare everyone and move on, got %+v", out)
	}
	if len(out.Tied) != 2 {
		t.Fatalf("expected two tied candidates, got %v", out.Tied)
	}

	out = Votes(tied, domain.TieSkip, false, rng.New(7))
	if out.Eliminated != "" || out.NeedsRevote {
		t.Fatalf("skip should spare everyone, got %+v", out)
	}
	if !out.Skipped {
		t.Fatal("skip should ask to reopen discussion")
	}

	out = Votes(tied, domain.TieSkip, true, rng.New(7))
	if out.Skipped || out.Eliminated != "" {
		t.Fatalf("the repeat ballot's tie must not skip again, got %+v", out)
	}

	out = Votes(tied, domain.TieRevote, false, rng.New(7))
	if !out.NeedsRevote || out.Eliminated != "" {
		t.Fatalf("revote should request a second ballot, got %+v", out)
	}

	first := Votes(tied, domain.TieRandom, false, rng.New(42))
	second := Votes(tied, domain.TieRandom, false, rng.New(42))
	if first.Eliminated == "" || first.Eliminated != second.Eliminated {
		t.Fatalf("random tie-break not deterministic: %q vs %q", first.Eliminated, second.Eliminated)
	}
}

func TestVotesRevoteSecondTieSparesEveryone(t *testing.T) {
	out := Votes([]domain.Vote{
		{VoterID: "p1", TargetID: "p2"},
		{VoterID: "p2", TargetID: "p1"},
	}, domain.TieRevote, true, rng.New(7))
	if out.NeedsRevote || out.Eliminated != "" {
		t.Fatalf("second tie must fall back to no elimination, got %+v", out)
	}
}

func TestVotesAllAbstain(t *testing.T) {
	out := Votes([]domain.Vote{
		{VoterID: "p1"},
		{VoterID: "p2"},
	}, domain.TieNoElimination, false, rng.New(7))
	if out.Eliminated != "" || out.Abstentions != 2 || len(out.Tallies) != 0 {
		t.Fatalf("expected empty tally, got %+v", out)
	}
}

func TestWinConditions(t *testing.T) {
	tests := []struct {
		name   string
		roles  map[string]domain.Role
		dead   []string
		policy domain.WinTiePolicy
		want   domain.Winner
	}{
		{
			name:  "game continues",
			roles: map[string]domain.Role{"m1": domain.RoleMafia, "v1": domain.RoleVillager, "v2": domain.RoleVillager},
			want:  domain.WinnerNone,
		},
		{
			name:  "town wins when mafia all dead",
			roles: map[string]domain.Role{"m1": domain.RoleMafia, "v1": domain.RoleVillager, "v2": domain.RoleVillager},
			dead:  []string{"m1"},
			want:  domain.WinnerTown,
		},
		{
			name:  "mafia wins at parity",
			roles: map[string]domain.Role{"m1": domain.RoleMafia, "v1": domain.RoleVillager, "v2": domain.RoleVillager},
			dead:  []string{"v2"},
			want:  domain.WinnerMafia,
		},
		{
			name:   "simultaneous wipe favors town by default",
			roles:  map[string]domain.Role{"m1": domain.RoleMafia, "v1": domain.RoleVillager},
			dead:   []string{"m1", "v1"},
			policy: domain.WinTieTown,
			want:   domain.WinnerTown,
		},
		{
			name:   "simultaneous wipe draws under draw policy",
			roles:  map[string]domain.Role{"m1": domain.RoleMafia, "v1": domain.RoleVillager},
			dead:   []string{"m1", "v1"},
			policy: domain.WinTieDraw,
			want:   domain.WinnerDraw,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := testState(t, tc.roles)
			for _, id := range tc.dead {
				p := s.Players[id]
				p.Alive = false
				s.Players[id] = p
			}
			policy := tc.policy
			if policy == "" {
				policy = domain.WinTieTown
			}
			if got := Win(s, policy); got != tc.want {
				t.Fatalf("expected winner %q, got %q", tc.want, got)
			}
		})
	}
}
