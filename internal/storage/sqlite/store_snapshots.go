package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/nocturne/internal/storage"
)

// SaveSnapshot upserts a state snapshot at its journal position.
func (s *Store) SaveSnapshot(ctx context.Context, snap storage.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	gameID := strings.TrimSpace(snap.GameID)
	if gameID == "" {
		return fmt.Errorf("game id is required")
	}
	takenAt := snap.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO game_snapshots (game_id, seq, state_json, taken_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (game_id, seq) DO UPDATE SET state_json = excluded.state_json, taken_at = excluded.taken_at`,
		gameID,
		snap.Seq,
		string(snap.StateJSON),
		toMillis(takenAt),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the newest snapshot with seq <= maxSeq (0 for no
// upper bound).
func (s *Store) LatestSnapshot(ctx context.Context, gameID string, maxSeq uint64) (storage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return storage.Snapshot{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Snapshot{}, fmt.Errorf("storage is not configured")
	}

	query := `SELECT game_id, seq, state_json, taken_at FROM game_snapshots
		 WHERE game_id = ?`
	args := []any{strings.TrimSpace(gameID)}
	if maxSeq > 0 {
		query += ` AND seq <= ?`
		args = append(args, maxSeq)
	}
	query += ` ORDER BY seq DESC LIMIT 1`

	var (
		snap      storage.Snapshot
		stateJSON string
		takenAt   int64
	)
	row := s.sqlDB.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&snap.GameID, &snap.Seq, &stateJSON, &takenAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Snapshot{}, storage.ErrNotFound
		}
		return storage.Snapshot{}, fmt.Errorf("latest snapshot: %w", err)
	}
	snap.StateJSON = []byte(stateJSON)
	snap.TakenAt = fromMillis(takenAt)
	return snap, nil
}

// ListSnapshots returns the game's snapshots in sequence order.
func (s *Store) ListSnapshots(ctx context.Context, gameID string) ([]storage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT game_id, seq, state_json, taken_at FROM game_snapshots
		 WHERE game_id = ? ORDER BY seq`,
		strings.TrimSpace(gameID),
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []storage.Snapshot
	for rows.Next() {
		var (
			snap      storage.Snapshot
			stateJSON string
			takenAt   int64
		)
		if err := rows.Scan(&snap.GameID, &snap.Seq, &stateJSON, &takenAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.StateJSON = []byte(stateJSON)
		snap.TakenAt = fromMillis(takenAt)
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}
