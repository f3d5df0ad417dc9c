package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/nocturne/internal/storage"
)

// RecordTelemetry inserts one engine measurement.
func (s *Store) RecordTelemetry(ctx context.Context, entry storage.Telemetry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	gameID := strings.TrimSpace(entry.GameID)
	if gameID == "" {
		return fmt.Errorf("game id is required")
	}
	kind := strings.TrimSpace(entry.Kind)
	if kind == "" {
		return fmt.Errorf("telemetry kind is required")
	}
	recordedAt := entry.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO game_telemetry (game_id, kind, round, duration_ms, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		gameID,
		kind,
		entry.Round,
		entry.DurationMS,
		toMillis(recordedAt),
	)
	if err != nil {
		return fmt.Errorf("record telemetry: %w", err)
	}
	return nil
}
