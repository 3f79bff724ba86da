package antispam

import (
	"errors"
	"testing"
	"time"
)

func TestStoreSlidingWindow(t *testing.T) {
	clock := newFakeClock()
	store := NewStore()
	store.WithClock(clock)

	store.Mutate("g1", "u1", 10*time.Second, func(r *Record) { r.Count++ })
	clock.advance(8 * time.Second)
	// A second event inside the window pushes the expiry forward.
	rec := store.Mutate("g1", "u1", 10*time.Second, func(r *Record) { r.Count++ })
	if rec.Count != 2 {
		t.Fatalf("expected count 2, got %d", rec.Count)
	}

	clock.advance(8 * time.Second)
	if _, ok := store.Peek("g1", "u1"); !ok {
		t.Fatal("record should still be active after the window slid")
	}

	clock.advance(3 * time.Second)
	if _, ok := store.Peek("g1", "u1"); ok {
		t.Fatal("record should have expired")
	}
}

func TestStoreExpiryRestartsCount(t *testing.T) {
	clock := newFakeClock()
	store := NewStore()
	store.WithClock(clock)

	store.Mutate("g1", "u1", 10*time.Second, func(r *Record) { r.Count = 4 })
	clock.advance(11 * time.Second)

	rec := store.Mutate("g1", "u1", 10*time.Second, func(r *Record) { r.Count++ })
	if rec.Count != 1 {
		t.Fatalf("expected fresh record after expiry, got count %d", rec.Count)
	}
}

func TestStoreClearMissing(t *testing.T) {
	store := NewStore()
	err := store.Clear("g1", "nobody")
	if !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
}

func TestStoreClearAll(t *testing.T) {
	clock := newFakeClock()
	store := NewStore()
	store.WithClock(clock)

	store.Mutate("g1", "u1", time.Minute, nil)
	store.Mutate("g1", "u2", time.Minute, nil)
	store.Mutate("g2", "u3", time.Minute, nil)

	if removed := store.ClearAll("g1"); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if _, ok := store.Peek("g2", "u3"); !ok {
		t.Fatal("other guild's record must survive")
	}
}

func TestStoreSweep(t *testing.T) {
	clock := newFakeClock()
	store := NewStore()
	store.WithClock(clock)

	store.Mutate("g1", "u1", 5*time.Second, nil)
	store.Mutate("g1", "u2", time.Minute, nil)

	clock.advance(10 * time.Second)
	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("expected 1 swept, got %d", removed)
	}
	if got := store.Tracked("g1"); got != 1 {
		t.Fatalf("expected 1 tracked, got %d", got)
	}
}
