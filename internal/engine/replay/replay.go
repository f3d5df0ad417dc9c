// Package replay rebuilds game state from the persisted journal. A replay
// starts from the newest usable snapshot and folds the remaining events in
// pages; a sequence gap anywhere is a hard error, never a skip.
package replay

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/engine/state"
	apperrors "github.com/louisbranch/nocturne/internal/platform/errors"
	"github.com/louisbranch/nocturne/internal/storage"
)

// pageSize bounds how many events one storage read returns during replay.
const pageSize = 200

// Replay rebuilds the state of gameID up to untilSeq (0 for the full
// journal). snapshots may be nil to force a full fold from the beginning.
func Replay(ctx context.Context, events storage.EventStore, snapshots storage.SnapshotStore, gameID string, untilSeq uint64) (state.State, error) {
	if err := ctx.Err(); err != nil {
		return state.State{}, err
	}

	s := state.New()
	if snapshots != nil {
		snap, err := snapshots.LatestSnapshot(ctx, gameID, untilSeq)
		switch {
		case err == nil:
			restored, derr := Decode(snap.StateJSON)
			if derr != nil {
				return state.State{}, derr
			}
			s = restored
		case errors.Is(err, storage.ErrNotFound):
			// Full fold from the start.
		default:
			return state.State{}, apperrors.Wrap(apperrors.CodeStorageFailed, "load snapshot", err)
		}
	}

	cursor := s.LastSeq
	for {
		page, err := events.ListEvents(ctx, gameID, cursor, pageSize)
		if err != nil {
			return state.State{}, apperrors.Wrap(apperrors.CodeStorageFailed, "list events", err)
		}
		for _, evt := range page {
			if untilSeq > 0 && evt.Seq > untilSeq {
				return s, nil
			}
			s, err = state.Apply(s, evt)
			if err != nil {
				return state.State{}, err
			}
		}
		if len(page) < pageSize {
			return s, nil
		}
		cursor = page[len(page)-1].Seq
	}
}

// Encode serializes a state projection for snapshot storage.
func Encode(s state.State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailed, "encode snapshot state", err)
	}
	return data, nil
}

// Decode restores a state projection from snapshot bytes.
func Decode(data []byte) (state.State, error) {
	s := state.New()
	if err := json.Unmarshal(data, &s); err != nil {
		return state.State{}, apperrors.Wrap(apperrors.CodeStorageFailed, "decode snapshot state", err)
	}
	if s.Players == nil {
		s.Players = map[string]domain.Player{}
	}
	if s.LastProtect == nil {
		s.LastProtect = map[string]string{}
	}
	if s.ShotsUsed == nil {
		s.ShotsUsed = map[string]int{}
	}
	if s.SkippedVotes == nil {
		s.SkippedVotes = map[int]bool{}
	}
	return s, nil
}
