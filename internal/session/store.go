package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store keeps sessions in memory keyed by ID. Sessions are never persisted.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State
	now      func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*State),
		now:      time.Now,
	}
}

// Get returns the session with id, marking it as recently used.
func (st *Store) Get(id string) (*State, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		s.touch(st.now())
	}
	return s, ok
}

// Create starts a new session with a random ID.
func (st *Store) Create() *State {
	s := New(uuid.NewString())
	s.touch(st.now())

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	zap.L().Debug("session created", zap.String("session", s.ID))
	return s
}

// GetOrCreate returns the session for id, or a fresh one if id is unknown.
// created reports whether a new session was made.
func (st *Store) GetOrCreate(id string) (s *State, created bool) {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s, false
		}
	}
	return st.Create(), true
}

// Delete ends a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Evict drops sessions idle for longer than ttl and returns how many were
// removed.
func (st *Store) Evict(ttl time.Duration) int {
	cutoff := st.now().Add(-ttl)

	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (st *Store) RunJanitor(ctx context.Context, interval, ttl time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := st.Evict(ttl); n > 0 {
				zap.L().Info("evicted idle sessions",
					zap.Int("evicted", n),
					zap.Int("remaining", st.Len()),
				)
			}
		}
	}
}
