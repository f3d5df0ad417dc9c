// Package simulate parses simulation flags and runs one full game with
// random agents, printing the public journal.
package simulate

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/louisbranch/nocturne/internal/agent"
	gameengine "github.com/louisbranch/nocturne/internal/engine"
	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/platform/config"
	"github.com/louisbranch/nocturne/internal/random"
	"github.com/louisbranch/nocturne/internal/storage"
	"github.com/louisbranch/nocturne/internal/storage/memory"
	"github.com/louisbranch/nocturne/internal/storage/sqlite"
	"github.com/louisbranch/nocturne/internal/telemetry"
)

// Config holds simulation configuration.
type Config struct {
	Seed       int64  `env:"NOCTURNE_SIM_SEED"`
	Mafia      int    `env:"NOCTURNE_SIM_MAFIA" envDefault:"2"`
	Doctors    int    `env:"NOCTURNE_SIM_DOCTORS" envDefault:"1"`
	Sheriffs   int    `env:"NOCTURNE_SIM_SHERIFFS" envDefault:"1"`
	Vigilantes int    `env:"NOCTURNE_SIM_VIGILANTES" envDefault:"0"`
	Villagers  int    `env:"NOCTURNE_SIM_VILLAGERS" envDefault:"4"`
	TiePolicy  string `env:"NOCTURNE_SIM_TIE_POLICY" envDefault:"no_elimination"`
	DBPath     string `env:"NOCTURNE_SIM_DB"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Deterministic seed (0 picks one)")
	fs.IntVar(&cfg.Mafia, "mafia", cfg.Mafia, "Number of mafia")
	fs.IntVar(&cfg.Doctors, "doctors", cfg.Doctors, "Number of doctors")
	fs.IntVar(&cfg.Sheriffs, "sheriffs", cfg.Sheriffs, "Number of sheriffs")
	fs.IntVar(&cfg.Vigilantes, "vigilantes", cfg.Vigilantes, "Number of vigilantes")
	fs.IntVar(&cfg.Villagers, "villagers", cfg.Villagers, "Number of villagers")
	fs.StringVar(&cfg.TiePolicy, "tie-policy", cfg.TiePolicy, "Vote tie policy")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Persist the game to this SQLite path instead of memory")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run simulates one game and writes the outcome to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	seed := cfg.Seed
	if seed == 0 {
		var err error
		seed, err = random.NewSeed()
		if err != nil {
			return err
		}
	}

	var store storage.Store
	if cfg.DBPath != "" {
		sqliteStore, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() { _ = sqliteStore.Close() }()
		store = sqliteStore
	} else {
		store = memory.New()
	}

	gameCfg := domain.Config{
		Seed: seed,
		RoleCounts: map[domain.Role]int{
			domain.RoleMafia:     cfg.Mafia,
			domain.RoleDoctor:    cfg.Doctors,
			domain.RoleSheriff:   cfg.Sheriffs,
			domain.RoleVigilante: cfg.Vigilantes,
			domain.RoleVillager:  cfg.Villagers,
		},
		TiePolicy: domain.TiePolicy(cfg.TiePolicy),
	}

	total := cfg.Mafia + cfg.Doctors + cfg.Sheriffs + cfg.Vigilantes + cfg.Villagers
	players := make([]gameengine.PlayerSpec, 0, total)
	for i := 1; i <= total; i++ {
		players = append(players, gameengine.PlayerSpec{Name: fmt.Sprintf("player-%02d", i)})
	}

	runner, err := gameengine.NewGame(ctx, store, agent.NewRandom(seed, 0.1), gameCfg, players, gameengine.Options{
		Logger:    log.Default(),
		Telemetry: telemetry.NewEmitter(store, log.Default()),
	})
	if err != nil {
		return err
	}
	if err := runner.Run(ctx); err != nil {
		return err
	}

	st := runner.State()
	fmt.Fprintf(out, "game %s seed %d\n", runner.GameID(), seed)
	fmt.Fprintf(out, "winner: %s after %d rounds\n", st.Winner, st.Round)

	events, err := store.ListEvents(ctx, runner.GameID(), 0, 0)
	if err != nil {
		return err
	}
	for _, evt := range events {
		fmt.Fprintf(out, "%4d %-28s %-8s %s\n", evt.Seq, evt.Type, evt.Visibility, evt.PayloadJSON)
	}
	return nil
}
