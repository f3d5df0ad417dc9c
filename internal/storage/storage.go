// Package storage defines the persistence boundary of the engine. Stores
// persist game records, the append-only event journal, state snapshots,
// and telemetry measurements.
package storage

import (
	"context"
	"time"

	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/engine/event"
	apperrors "github.com/louisbranch/nocturne/internal/platform/errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// GameRecord is the persisted summary row for a game. The journal is the
// source of truth; the record is a queryable index over it.
type GameRecord struct {
	ID         string
	Status     domain.Status
	Phase      domain.Phase
	Round      int
	Winner     domain.Winner
	Seed       int64
	ConfigJSON []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
	// EndedAt is zero until the game reaches a terminal outcome.
	EndedAt time.Time
}

// Snapshot is a serialized state projection at a journal position.
type Snapshot struct {
	GameID    string
	Seq       uint64
	StateJSON []byte
	TakenAt   time.Time
}

// Telemetry is one engine measurement (phase duration, decision latency).
type Telemetry struct {
	GameID     string
	Kind       string
	Round      int
	DurationMS int64
	RecordedAt time.Time
}

// GameStore persists game records.
type GameStore interface {
	CreateGame(ctx context.Context, rec GameRecord) error
	GetGame(ctx context.Context, gameID string) (GameRecord, error)
	UpdateGame(ctx context.Context, rec GameRecord) error
	ListGames(ctx context.Context) ([]GameRecord, error)
	// DeleteGame removes the game record together with its journal,
	// snapshots, and telemetry.
	DeleteGame(ctx context.Context, gameID string) error
}

// EventStore persists the append-only journal.
type EventStore interface {
	// AppendEvent assigns the next sequence number for the game and
	// persists the event. Re-appending an identical event (same game,
	// type, round, actor, and payload as an already stored one at the
	// would-be position) returns the stored event instead of writing a
	// duplicate, so halted games can resume by replaying their intent.
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	// AppendEvents persists a batch atomically: either every event is
	// assigned a sequence and stored, or none is. A retried batch whose
	// leading events already sit at the journal tail (matched by content)
	// appends only the remainder and returns the stored events for the
	// rest, so an interrupted append never splits a phase's record.
	AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error)
	// ListEvents returns up to limit events with Seq > afterSeq in
	// sequence order. limit <= 0 means no limit.
	ListEvents(ctx context.Context, gameID string, afterSeq uint64, limit int) ([]event.Event, error)
	// GetEventBySeq returns the event at one journal position.
	GetEventBySeq(ctx context.Context, gameID string, seq uint64) (event.Event, error)
	// LastSeq returns the highest assigned sequence for the game (0 when
	// the journal is empty).
	LastSeq(ctx context.Context, gameID string) (uint64, error)
}

// SnapshotStore persists state snapshots for replay fast-starts.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	// LatestSnapshot returns the newest snapshot with Seq <= maxSeq.
	// maxSeq 0 means no upper bound.
	LatestSnapshot(ctx context.Context, gameID string, maxSeq uint64) (Snapshot, error)
	// ListSnapshots returns the game's snapshots in sequence order.
	ListSnapshots(ctx context.Context, gameID string) ([]Snapshot, error)
}

// TelemetryStore persists engine measurements.
type TelemetryStore interface {
	RecordTelemetry(ctx context.Context, entry Telemetry) error
}

// Store is the full persistence surface the engine runs against.
type Store interface {
	GameStore
	EventStore
	SnapshotStore
	TelemetryStore
}
