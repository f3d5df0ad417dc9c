// Package memory implements storage.Store in process memory. It backs
// tests and single-process simulations; the sqlite store is the durable
// counterpart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/louisbranch/nocturne/internal/engine/event"
	"github.com/louisbranch/nocturne/internal/platform/errors"
	"github.com/louisbranch/nocturne/internal/storage"
)

// Store is an in-memory storage.Store. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	games     map[string]storage.GameRecord
	events    map[string][]event.Event
	snapshots map[string][]storage.Snapshot
	telemetry []storage.Telemetry
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		games:     map[string]storage.GameRecord{},
		events:    map[string][]event.Event{},
		snapshots: map[string][]storage.Snapshot{},
	}
}

// CreateGame implements storage.GameStore.
func (s *Store) CreateGame(ctx context.Context, rec storage.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[rec.ID]; ok {
		return errors.WithMetadata(errors.CodeStorageFailed, "game already exists",
			map[string]string{"game_id": rec.ID})
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	s.games[rec.ID] = rec
	return nil
}

// GetGame implements storage.GameStore.
func (s *Store) GetGame(ctx context.Context, gameID string) (storage.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.GameRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.games[gameID]
	if !ok {
		return storage.GameRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

// UpdateGame implements storage.GameStore.
func (s *Store) UpdateGame(ctx context.Context, rec storage.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.games[rec.ID]
	if !ok {
		return storage.ErrNotFound
	}
	rec.CreatedAt = stored.CreatedAt
	rec.UpdatedAt = time.Now().UTC()
	s.games[rec.ID] = rec
	return nil
}

// ListGames implements storage.GameStore.
func (s *Store) ListGames(ctx context.Context) ([]storage.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.GameRecord, 0, len(s.games))
	for _, rec := range s.games {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteGame implements storage.GameStore.
func (s *Store) DeleteGame(ctx context.Context, gameID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[gameID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.games, gameID)
	delete(s.events, gameID)
	delete(s.snapshots, gameID)
	kept := s.telemetry[:0]
	for _, entry := range s.telemetry {
		if entry.GameID != gameID {
			kept = append(kept, entry)
		}
	}
	s.telemetry = kept
	return nil
}

// AppendEvent implements storage.EventStore. The sequence is assigned
// under the store lock; a retried append whose content matches the last
// stored event returns that event instead of writing again.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	evt, err := event.ValidateForAppend(evt)
	if err != nil {
		return event.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	journal := s.events[evt.GameID]
	if n := len(journal); n > 0 {
		last := journal[n-1]
		if storage.ContentHash(last) == storage.ContentHash(evt) {
			return last, nil
		}
	}

	evt.Seq = uint64(len(journal)) + 1
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	s.events[evt.GameID] = append(journal, evt)
	return evt, nil
}

// AppendEvents implements storage.EventStore. The whole batch commits
// under one lock hold, so readers never observe a partial phase. The
// batch prefix already present at the journal tail is matched by content
// and skipped, which makes a retried batch safe after a lost ack.
func (s *Store) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
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
			return nil, errors.WithMetadata(errors.CodeStorageFailed, "append batch spans games",
				map[string]string{"game_id": gameID})
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	journal := s.events[gameID]
	tail := make([]string, 0, len(batch))
	for i := len(journal) - min(len(batch), len(journal)); i < len(journal); i++ {
		tail = append(tail, storage.ContentHash(journal[i]))
	}
	overlap := tailOverlap(tail, hashes)

	out := make([]event.Event, 0, len(batch))
	for i := 0; i < overlap; i++ {
		out = append(out, journal[len(journal)-overlap+i])
	}
	seq := uint64(len(journal))
	now := time.Now().UTC()
	for _, evt := range batch[overlap:] {
		seq++
		evt.Seq = seq
		if evt.Timestamp.IsZero() {
			evt.Timestamp = now
		}
		journal = append(journal, evt)
		out = append(out, evt)
	}
	s.events[gameID] = journal
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

// ListEvents implements storage.EventStore.
func (s *Store) ListEvents(ctx context.Context, gameID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []event.Event
	for _, evt := range s.events[gameID] {
		if evt.Seq <= afterSeq {
			continue
		}
		out = append(out, evt)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// GetEventBySeq implements storage.EventStore.
func (s *Store) GetEventBySeq(ctx context.Context, gameID string, seq uint64) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	journal := s.events[gameID]
	if seq == 0 || seq > uint64(len(journal)) {
		return event.Event{}, storage.ErrNotFound
	}
	return journal[seq-1], nil
}

// LastSeq implements storage.EventStore.
func (s *Store) LastSeq(ctx context.Context, gameID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.events[gameID])), nil
}

// SaveSnapshot implements storage.SnapshotStore.
func (s *Store) SaveSnapshot(ctx context.Context, snap storage.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now().UTC()
	}
	s.snapshots[snap.GameID] = append(s.snapshots[snap.GameID], snap)
	return nil
}

// LatestSnapshot implements storage.SnapshotStore.
func (s *Store) LatestSnapshot(ctx context.Context, gameID string, maxSeq uint64) (storage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return storage.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best storage.Snapshot
	found := false
	for _, snap := range s.snapshots[gameID] {
		if maxSeq > 0 && snap.Seq > maxSeq {
			continue
		}
		if !found || snap.Seq > best.Seq {
			best = snap
			found = true
		}
	}
	if !found {
		return storage.Snapshot{}, storage.ErrNotFound
	}
	return best, nil
}

// ListSnapshots implements storage.SnapshotStore.
func (s *Store) ListSnapshots(ctx context.Context, gameID string) ([]storage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]storage.Snapshot(nil), s.snapshots[gameID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// RecordTelemetry implements storage.TelemetryStore.
func (s *Store) RecordTelemetry(ctx context.Context, entry storage.Telemetry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	s.telemetry = append(s.telemetry, entry)
	return nil
}

// TelemetryEntries returns a copy of the recorded measurements. Test hook.
func (s *Store) TelemetryEntries() []storage.Telemetry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]storage.Telemetry(nil), s.telemetry...)
}

var _ storage.Store = (*Store)(nil)
