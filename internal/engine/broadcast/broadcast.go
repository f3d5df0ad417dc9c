// Package broadcast fans filtered game events out to observers. The
// visibility filter is a pure predicate; the fanout never lets one slow
// observer stall the sequencer.
package broadcast

import (
	"sync"
	"time"

	"github.com/louisbranch/nocturne/internal/engine/event"
	"github.com/louisbranch/nocturne/internal/platform/timeouts"
)

// Viewer describes who is observing a stream.
type Viewer struct {
	// PlayerID identifies the observing player ("" for spectators).
	PlayerID string
	// MafiaAligned grants access to mafia faction-private events.
	MafiaAligned bool
	// Admin grants the unfiltered view.
	Admin bool
}

// ShouldDeliver reports whether the viewer may observe the event.
func ShouldDeliver(evt event.Event, viewer Viewer) bool {
	if viewer.Admin {
		return true
	}
	switch evt.Visibility {
	case event.VisibilityPublic:
		return true
	case event.VisibilityFaction:
		return evt.FactionID == event.FactionMafia && viewer.MafiaAligned
	case event.VisibilityRole:
		return viewer.PlayerID != "" && viewer.PlayerID == evt.ActorID
	default:
		return false
	}
}

// subscriber pairs a viewer with its delivery channel.
type subscriber struct {
	viewer Viewer
	ch     chan event.Event

	mu     sync.Mutex
	closed bool
}

// send delivers one event unless the subscriber is gone or stays full past
// the timeout.
func (sub *subscriber) send(evt event.Event, timeout time.Duration) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case sub.ch <- evt:
	case <-time.After(timeout):
	}
}

// Broadcaster delivers events to subscribers through buffered channels.
// Safe for concurrent use.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	sendTimeout time.Duration
	buffer      int
}

// New creates a broadcaster with the default send timeout and buffer.
func New() *Broadcaster {
	return &Broadcaster{
		subscribers: map[*subscriber]struct{}{},
		sendTimeout: timeouts.BroadcastSend,
		buffer:      16,
	}
}

// Subscribe registers a viewer and returns its event channel plus an
// unsubscribe function. The channel is closed on unsubscribe.
func (b *Broadcaster) Subscribe(viewer Viewer) (<-chan event.Event, func()) {
	sub := &subscriber{
		viewer: viewer,
		ch:     make(chan event.Event, b.buffer),
	}

	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, sub)
			b.mu.Unlock()

			sub.mu.Lock()
			sub.closed = true
			close(sub.ch)
			sub.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

// Publish delivers the event to every subscriber allowed to see it. The
// subscriber set is captured under the lock; sends happen outside it with
// a bounded wait, and an event a full subscriber cannot absorb in time is
// dropped for that subscriber only.
func (b *Broadcaster) Publish(evt event.Event) {
	b.mu.Lock()
	targets := make([]*subscriber, 0, len(b.subscribers))
	for sub := range b.subscribers {
		if ShouldDeliver(evt, sub.viewer) {
			targets = append(targets, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range targets {
		sub.send(evt, b.sendTimeout)
	}
}

// Len returns the current subscriber count.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
