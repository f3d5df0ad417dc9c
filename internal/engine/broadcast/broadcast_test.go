package broadcast

import (
	"testing"
	"time"

	"github.com/louisbranch/nocturne/internal/engine/event"
)

func TestShouldDeliver(t *testing.T) {
	tests := []struct {
		name   string
		evt    event.Event
		viewer Viewer
		want   bool
	}{
		{
			name:   "public reaches everyone",
			evt:    event.Event{Visibility: event.VisibilityPublic},
			viewer: Viewer{PlayerID: "p1"},
			want:   true,
		},
		{
			name:   "faction reaches mafia member",
			evt:    event.Event{Visibility: event.VisibilityFaction, FactionID: event.FactionMafia},
			viewer: Viewer{PlayerID: "m1", MafiaAligned: true},
			want:   true,
		},
		{
			name:   "faction hidden from town",
			evt:    event.Event{Visibility: event.VisibilityFaction, FactionID: event.FactionMafia},
			viewer: Viewer{PlayerID: "v1"},
			want:   false,
		},
		{
			name:   "role reaches only the actor",
			evt:    event.Event{Visibility: event.VisibilityRole, ActorID: "s1"},
			viewer: Viewer{PlayerID: "s1"},
			want:   true,
		},
		{
			name:   "role hidden from others",
			evt:    event.Event{Visibility: event.VisibilityRole, ActorID: "s1"},
			viewer: Viewer{PlayerID: "v1"},
			want:   false,
		},
		{
			name:   "role hidden from spectators",
			evt:    event.Event{Visibility: event.VisibilityRole, ActorID: "s1"},
			viewer: Viewer{},
			want:   false,
		},
		{
			name:   "admin sees everything",
			evt:    event.Event{Visibility: event.VisibilityAdmin},
			viewer: Viewer{Admin: true},
			want:   true,
		},
		{
			name:   "admin visibility hidden from players",
			evt:    event.Event{Visibility: event.VisibilityAdmin},
			viewer: Viewer{PlayerID: "p1", MafiaAligned: true},
			want:   false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldDeliver(tc.evt, tc.viewer); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestPublishFiltersPerSubscriber(t *testing.T) {
	b := New()
	townCh, townCancel := b.Subscribe(Viewer{PlayerID: "v1"})
	defer townCancel()
	mafiaCh, mafiaCancel := b.Subscribe(Viewer{PlayerID: "m1", MafiaAligned: true})
	defer mafiaCancel()

	b.Publish(event.Event{
		Seq:        1,
		Type:       event.TypeNightActionSubmitted,
		Visibility: event.VisibilityFaction,
		FactionID:  event.FactionMafia,
	})

	select {
	case evt := <-mafiaCh:
		if evt.Seq != 1 {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("mafia subscriber did not receive the event")
	}
	select {
	case evt := <-townCh:
		t.Fatalf("town subscriber must not see faction event, got %+v", evt)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe(Viewer{PlayerID: "p1"})
	if b.Len() != 1 {
		t.Fatalf("expected one subscriber, got %d", b.Len())
	}
	cancel()
	cancel() // second call is a no-op
	if b.Len() != 0 {
		t.Fatalf("expected no subscribers, got %d", b.Len())
	}
	if _, open := <-ch; open {
		t.Fatal("expected closed channel after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	b.Publish(event.Event{Visibility: event.VisibilityPublic})
}

func TestPublishDropsForFullSubscriber(t *testing.T) {
	b := New()
	b.sendTimeout = 10 * time.Millisecond
	b.buffer = 1

	ch, cancel := b.Subscribe(Viewer{PlayerID: "p1"})
	defer cancel()

	b.Publish(event.Event{Seq: 1, Visibility: event.VisibilityPublic})
	done := make(chan struct{})
	go func() {
		b.Publish(event.Event{Seq: 2, Visibility: event.VisibilityPublic})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	if evt := <-ch; evt.Seq != 1 {
		t.Fatalf("expected first event preserved, got %+v", evt)
	}
}
