// Package engine parses engine daemon flags and runs the game host: it
// opens storage, reloads stored games into a registry, and optionally
// drives unfinished games to completion.
package engine

import (
	"context"
	"flag"
	"log"
	"sync"
	"time"

	"github.com/louisbranch/nocturne/internal/agent"
	gameengine "github.com/louisbranch/nocturne/internal/engine"
	"github.com/louisbranch/nocturne/internal/engine/broadcast"
	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/platform/config"
	"github.com/louisbranch/nocturne/internal/platform/otel"
	"github.com/louisbranch/nocturne/internal/platform/timeouts"
	"github.com/louisbranch/nocturne/internal/storage/sqlite"
	"github.com/louisbranch/nocturne/internal/telemetry"
)

// Config holds engine daemon configuration.
type Config struct {
	DBPath string `env:"NOCTURNE_DB_PATH" envDefault:"nocturne.db"`
	// AutoDrive finishes unfinished games with a pass-only agent. Games
	// meant for live agents should stay off until their agents reconnect.
	AutoDrive bool `env:"NOCTURNE_AUTODRIVE" envDefault:"false"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database")
	fs.BoolVar(&cfg.AutoDrive, "autodrive", cfg.AutoDrive, "Finish unfinished games with defaulting agents")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run hosts stored games until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "nocturne-engine")
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	registry := gameengine.NewRegistry()
	emitter := telemetry.NewEmitter(store, log.Default())
	bcast := broadcast.New()

	passive := agent.Func(func(ctx context.Context, req agent.Request) (agent.Decision, error) {
		return agent.Decision{}, nil
	})

	games, err := store.ListGames(ctx)
	if err != nil {
		return err
	}
	var driving sync.WaitGroup
	for _, rec := range games {
		if rec.Status == domain.StatusEnded {
			continue
		}
		runner, err := gameengine.Load(ctx, store, passive, rec.ID, gameengine.Options{
			Logger:      log.Default(),
			Telemetry:   emitter,
			Broadcaster: bcast,
		})
		if err != nil {
			log.Printf("load game %s: %v", rec.ID, err)
			continue
		}
		if err := registry.Add(runner); err != nil {
			log.Printf("register game %s: %v", rec.ID, err)
			continue
		}
		log.Printf("loaded game %s (%s, round %d)", rec.ID, rec.Status, rec.Round)

		if cfg.AutoDrive && rec.Status == domain.StatusActive {
			driving.Add(1)
			go func(runner *gameengine.Runner) {
				defer driving.Done()
				if err := runner.Run(ctx); err != nil {
					log.Printf("game %s halted: %v", runner.GameID(), err)
				}
			}(runner)
		}
	}

	log.Printf("engine hosting %d games", len(registry.GameIDs()))
	<-ctx.Done()

	// Driven games stop at their next phase boundary; give them that long.
	drained := make(chan struct{})
	go func() {
		driving.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(timeouts.Shutdown):
		log.Printf("shutdown timed out with games still in flight")
	}
	return nil
}
