package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/storage"
)

// CreateGame inserts one game record.
func (s *Store) CreateGame(ctx context.Context, rec storage.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	gameID := strings.TrimSpace(rec.ID)
	if gameID == "" {
		return fmt.Errorf("game id is required")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	configJSON := rec.ConfigJSON
	if len(configJSON) == 0 {
		configJSON = []byte(`{}`)
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO games (id, status, phase, round, winner, seed, config_json, created_at, updated_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		gameID,
		string(rec.Status),
		string(rec.Phase),
		rec.Round,
		string(rec.Winner),
		rec.Seed,
		string(configJSON),
		toMillis(createdAt),
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("game %s already exists", gameID)
		}
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// GetGame loads one game record.
func (s *Store) GetGame(ctx context.Context, gameID string) (storage.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.GameRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.GameRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, status, phase, round, winner, seed, config_json, created_at, updated_at, ended_at
		 FROM games WHERE id = ?`,
		strings.TrimSpace(gameID),
	)
	rec, err := scanGame(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.GameRecord{}, storage.ErrNotFound
		}
		return storage.GameRecord{}, fmt.Errorf("get game: %w", err)
	}
	return rec, nil
}

// UpdateGame replaces the mutable columns of one game record.
func (s *Store) UpdateGame(ctx context.Context, rec storage.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	endedAt := int64(0)
	if !rec.EndedAt.IsZero() {
		endedAt = toMillis(rec.EndedAt)
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE games SET status = ?, phase = ?, round = ?, winner = ?, updated_at = ?, ended_at = ?
		 WHERE id = ?`,
		string(rec.Status),
		string(rec.Phase),
		rec.Round,
		string(rec.Winner),
		toMillis(time.Now().UTC()),
		endedAt,
		strings.TrimSpace(rec.ID),
	)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update game rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListGames returns every game record ordered by id.
func (s *Store) ListGames(ctx context.Context) ([]storage.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, status, phase, round, winner, seed, config_json, created_at, updated_at, ended_at
		 FROM games ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []storage.GameRecord
	for rows.Next() {
		rec, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return out, nil
}

// DeleteGame removes a game and everything keyed to it.
func (s *Store) DeleteGame(ctx context.Context, gameID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	gameID = strings.TrimSpace(gameID)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, gameID)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete game rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	for _, table := range []string{"game_events", "game_snapshots", "game_telemetry"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE game_id = ?`, gameID); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (storage.GameRecord, error) {
	var (
		rec        storage.GameRecord
		status     string
		phase      string
		winner     string
		configJSON string
		createdAt  int64
		updatedAt  int64
		endedAt    int64
	)
	if err := row.Scan(&rec.ID, &status, &phase, &rec.Round, &winner, &rec.Seed,
		&configJSON, &createdAt, &updatedAt, &endedAt); err != nil {
		return storage.GameRecord{}, err
	}
	rec.Status = domain.Status(status)
	rec.Phase = domain.Phase(phase)
	rec.Winner = domain.Winner(winner)
	rec.ConfigJSON = []byte(configJSON)
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	if endedAt > 0 {
		rec.EndedAt = fromMillis(endedAt)
	}
	return rec, nil
}
