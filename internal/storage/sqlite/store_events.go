package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/nocturne/internal/engine/event"
	"github.com/louisbranch/nocturne/internal/storage"
)

// AppendEvent assigns the next sequence for the game inside a transaction
// and inserts the event. A retried append whose content hash matches the
// last stored event returns that event without writing, so a halted game
// can replay its intent after a crash.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}
	evt, err := event.ValidateForAppend(evt)
	if err != nil {
		return event.Event{}, err
	}
	hash := storage.ContentHash(evt)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		lastSeq  uint64
		lastHash string
	)
	row := tx.QueryRowContext(
		ctx,
		`SELECT seq, content_hash FROM game_events WHERE game_id = ? ORDER BY seq DESC LIMIT 1`,
		evt.GameID,
	)
	if err := row.Scan(&lastSeq, &lastHash); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, fmt.Errorf("read journal tail: %w", err)
	}
	if lastSeq > 0 && lastHash == hash {
		stored, err := s.eventAt(ctx, tx, evt.GameID, lastSeq)
		if err != nil {
			return event.Event{}, err
		}
		return stored, nil
	}

	evt.Seq = lastSeq + 1
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO game_events (game_id, seq, type, visibility, actor_id, faction_id, round, payload_json, content_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		evt.GameID,
		evt.Seq,
		string(evt.Type),
		string(evt.Visibility),
		evt.ActorID,
		evt.FactionID,
		evt.Round,
		string(evt.PayloadJSON),
		hash,
		toMillis(evt.Timestamp),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return event.Event{}, fmt.Errorf("concurrent append at seq %d for game %s", evt.Seq, evt.GameID)
		}
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("commit append: %w", err)
	}
	return evt, nil
}

// AppendEvents assigns sequences and inserts the whole batch inside one
// transaction, so a failure leaves the journal exactly as it was. The
// batch prefix already present at the journal tail is matched by content
// hash and returned from storage instead of being written again.
func (s *Store) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if len(events) == 0 {
		return nil, nil
	}
	batch := make([]event.Event, len(events))
	hashes := make([]string, len(events))
	for i, evt := range events {
		validated, err := event.ValidateForAppend(evt)
		if err != nil {
			return nil, err
		}
		batch[i] = validated
		hashes[i] = storage.ContentHash(validated)
	}
	gameID := batch[0].GameID
	for _, evt := range batch[1:] {
		if evt.GameID != gameID {
			return nil, fmt.Errorf("append batch spans games")
		}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(
		ctx,
		`SELECT seq, content_hash FROM game_events WHERE game_id = ? ORDER BY seq DESC LIMIT ?`,
		gameID,
		len(batch),
	)
	if err != nil {
		return nil, fmt.Errorf("read journal tail: %w", err)
	}
	var (
		lastSeq uint64
		tail    []string
	)
	for rows.Next() {
		var (
			seq  uint64
			hash string
		)
		if err := rows.Scan(&seq, &hash); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan journal tail: %w", err)
		}
		if seq > lastSeq {
			lastSeq = seq
		}
		// Rows arrive newest first; prepend to restore journal order.
		tail = append([]string{hash}, tail...)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read journal tail: %w", err)
	}

	overlap := tailOverlap(tail, hashes)
	out := make([]event.Event, 0, len(batch))
	for i := 0; i < overlap; i++ {
		stored, err := s.eventAt(ctx, tx, gameID, lastSeq-uint64(overlap-1-i))
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}

	seq := lastSeq
	for i, evt := range batch[overlap:] {
		seq++
		evt.Seq = seq
		if evt.Timestamp.IsZero() {
			evt.Timestamp = time.Now().UTC()
		}
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO game_events (game_id, seq, type, visibility, actor_id, faction_id, round, payload_json, content_hash, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			evt.GameID,
			evt.Seq,
			string(evt.Type),
			string(evt.Visibility),
			evt.ActorID,
			evt.FactionID,
			evt.Round,
			string(evt.PayloadJSON),
			hashes[overlap+i],
			toMillis(evt.Timestamp),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("concurrent append at seq %d for game %s", evt.Seq, evt.GameID)
			}
			return nil, fmt.Errorf("append event: %w", err)
		}
		out = append(out, evt)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return out, nil
}

// tailOverlap returns the longest k such that the batch's first k hashes
// equal the journal tail's last k hashes.
func tailOverlap(tail, batch []string) int {
	max := len(tail)
	if len(batch) < max {
		max = len(batch)
	}
	for k := max; k > 0; k-- {
		match := true
		for i := 0; i < k; i++ {
			if tail[len(tail)-k+i] != batch[i] {
				match = false
				break
			}
		}
		if match {
			return k
		}
	}
	return 0
}

func (s *Store) eventAt(ctx context.Context, tx *sql.Tx, gameID string, seq uint64) (event.Event, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT game_id, seq, type, visibility, actor_id, faction_id, round, payload_json, created_at
		 FROM game_events WHERE game_id = ? AND seq = ?`,
		gameID,
		seq,
	)
	evt, err := scanEvent(row)
	if err != nil {
		return event.Event{}, fmt.Errorf("read stored event: %w", err)
	}
	return evt, nil
}

// GetEventBySeq returns the event at one journal position.
func (s *Store) GetEventBySeq(ctx context.Context, gameID string, seq uint64) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT game_id, seq, type, visibility, actor_id, faction_id, round, payload_json, created_at
		 FROM game_events WHERE game_id = ? AND seq = ?`,
		strings.TrimSpace(gameID),
		seq,
	)
	evt, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, storage.ErrNotFound
		}
		return event.Event{}, fmt.Errorf("get event: %w", err)
	}
	return evt, nil
}

// ListEvents returns up to limit events with seq > afterSeq in order.
func (s *Store) ListEvents(ctx context.Context, gameID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := `SELECT game_id, seq, type, visibility, actor_id, faction_id, round, payload_json, created_at
		 FROM game_events WHERE game_id = ? AND seq > ? ORDER BY seq`
	args := []any{strings.TrimSpace(gameID), afterSeq}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// LastSeq returns the highest assigned sequence for the game.
func (s *Store) LastSeq(ctx context.Context, gameID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	var last sql.NullInt64
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT MAX(seq) FROM game_events WHERE game_id = ?`,
		strings.TrimSpace(gameID),
	)
	if err := row.Scan(&last); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return uint64(last.Int64), nil
}

func scanEvent(row rowScanner) (event.Event, error) {
	var (
		evt         event.Event
		eventType   string
		visibility  string
		payloadJSON string
		createdAt   int64
	)
	if err := row.Scan(&evt.GameID, &evt.Seq, &eventType, &visibility,
		&evt.ActorID, &evt.FactionID, &evt.Round, &payloadJSON, &createdAt); err != nil {
		return event.Event{}, err
	}
	evt.Type = event.Type(eventType)
	evt.Visibility = event.Visibility(visibility)
	evt.PayloadJSON = []byte(payloadJSON)
	evt.Timestamp = fromMillis(createdAt)
	return evt, nil
}
