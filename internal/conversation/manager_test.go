package conversation

import (
	"testing"
	"time"
)

func TestManagerCreateAssignsUniqueIDs(t *testing.T) {
	m := NewManager(&fakeBackend{}, 9)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s := m.Create()
		if seen[s.ID()] {
			t.Fatalf("duplicate conversation id %s", s.ID())
		}
		seen[s.ID()] = true
	}
}

func TestManagerGet(t *testing.T) {
	m := NewManager(&fakeBackend{}, 9)
	s := m.Create()

	got, ok := m.Get(s.ID())
	if !ok || got != s {
		t.Fatalf("Get(%s) = %v, %v", s.ID(), got, ok)
	}
	if _, ok := m.Get("unknown"); ok {
		t.Error("Get returned a session for an unknown id")
	}
}

func TestManagerEvict(t *testing.T) {
	m := NewManager(&fakeBackend{}, 9)
	stale := m.Create()
	fresh := m.Create()

	stale.mu.Lock()
	stale.lastActive = time.Now().Add(-2 * time.Hour)
	stale.mu.Unlock()

	if n := m.Evict(time.Hour); n != 1 {
		t.Fatalf("Evict = %d, want 1", n)
	}
	if _, ok := m.Get(stale.ID()); ok {
		t.Error("stale conversation still present")
	}
	if _, ok := m.Get(fresh.ID()); !ok {
		t.Error("fresh conversation evicted")
	}
}
