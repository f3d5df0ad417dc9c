package simulate

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Mafia != 2 || cfg.Villagers != 4 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TiePolicy != "no_elimination" {
		t.Fatalf("unexpected tie policy default: %q", cfg.TiePolicy)
	}
}

func TestRunCompletesAGame(t *testing.T) {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-seed", "424242", "-mafia", "1", "-doctors", "0", "-sheriffs", "0", "-villagers", "3"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}

	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "winner:") {
		t.Fatalf("expected a winner line, got:\n%s", text)
	}
	if !strings.Contains(text, "game.ended") {
		t.Fatalf("expected a game.ended event in the journal, got:\n%s", text)
	}
}
