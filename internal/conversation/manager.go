package conversation

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// evictionInterval is how often the idle sweep runs.
const evictionInterval = 5 * time.Minute

// Manager tracks live conversations by their opaque identifiers.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	backend  Backend
	pageSize int
	lastID   int64
}

// NewManager creates a conversation manager.
func NewManager(b Backend, pageSize int) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		backend:  b,
		pageSize: pageSize,
	}
}

// Create starts an empty conversation and returns it. The identifier is
// derived from the current time, mirroring how conversation URLs are
// minted; it is never interpreted by the backend.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := time.Now().UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id

	s := newSession(strconv.FormatInt(id, 10), m.pageSize, m.backend)
	m.sessions[s.id] = s
	slog.Info("conversation created", "conversation_id", s.id)
	return s
}

// Get returns the conversation with the given id, if it is still live.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Evict removes conversations idle longer than ttl and returns how many
// were removed.
func (m *Manager) Evict(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// StartEvictionWorker runs a background goroutine that periodically
// sweeps idle conversations until ctx is cancelled.
func (m *Manager) StartEvictionWorker(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(evictionInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("conversation eviction worker started", "interval", evictionInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				if n := m.Evict(ttl); n > 0 {
					slog.Info("evicted idle conversations", "count", n)
				}
			case <-ctx.Done():
				slog.Info("conversation eviction worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
