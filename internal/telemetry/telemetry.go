// Package telemetry records engine measurements: phase durations and
// decision latencies. Entries are persisted through the storage layer; a
// recording failure is logged and never interrupts a game.
package telemetry

import (
	"context"
	"log"
	"time"

	"github.com/louisbranch/nocturne/internal/storage"
)

// Measurement kinds.
const (
	// KindPhaseDuration measures one phase transition, wall clock.
	KindPhaseDuration = "phase_duration"
	// KindDecisionLatency measures one collection window, wall clock.
	KindDecisionLatency = "decision_latency"
	// KindGameDuration measures a full game from creation to end.
	KindGameDuration = "game_duration"
)

// Emitter writes measurements to a telemetry store.
type Emitter struct {
	store  storage.TelemetryStore
	logger *log.Logger
}

// NewEmitter creates an emitter. store may be nil to disable persistence;
// logger may be nil to use the process default.
func NewEmitter(store storage.TelemetryStore, logger *log.Logger) *Emitter {
	if logger == nil {
		logger = log.Default()
	}
	return &Emitter{store: store, logger: logger}
}

// Record persists one measurement. Failures are logged, not returned.
func (e *Emitter) Record(ctx context.Context, gameID, kind string, round int, elapsed time.Duration) {
	if e == nil || e.store == nil {
		return
	}
	err := e.store.RecordTelemetry(ctx, storage.Telemetry{
		GameID:     gameID,
		Kind:       kind,
		Round:      round,
		DurationMS: elapsed.Milliseconds(),
		RecordedAt: time.Now().UTC(),
	})
	if err != nil {
		e.logger.Printf("telemetry: record %s for game %s: %v", kind, gameID, err)
	}
}
