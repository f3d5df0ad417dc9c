package rng

import "testing"

func TestSameSeedSameSequence(t *testing.T) {
	first := New(42)
	second := New(42)

	for i := 0; i < 100; i++ {
		a := first.Intn(1000)
		b := second.Intn(1000)
		if a != b {
			t.Fatalf("draw %d diverged: %d != %d", i, a, b)
		}
	}
}

func TestPickDeterministic(t *testing.T) {
	values := []string{"a", "b", "c", "d"}

	got := New(7).Pick(values)
	again := New(7).Pick(values)
	if got != again {
		t.Fatalf("pick diverged: %q != %q", got, again)
	}
}

func TestPickEmpty(t *testing.T) {
	if got := New(1).Pick(nil); got != "" {
		t.Fatalf("expected empty string for empty slice, got %q", got)
	}
}

func TestShuffleDeterministic(t *testing.T) {
	first := []string{"a", "b", "c", "d", "e"}
	second := []string{"a", "b", "c", "d", "e"}

	New(99).Shuffle(first)
	New(99).Shuffle(second)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("shuffle diverged at %d: %q != %q", i, first[i], second[i])
		}
	}
}
