package quest

import (
	"sync"
	"time"
)

// Store keeps per-identity sessions. Get creates a session on first use, so
// callers never observe a missing one.
type Store interface {
	Get(identity int64) Session
	Put(session Session)
	Reset(identity int64)
}

// MemoryStore implements Store with a mutex-guarded map. Sessions live for
// the process lifetime unless reset or swept by EvictIdle.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
	now      func() time.Time
}

// MemoryStoreOption customizes a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithClock substitutes the time source, letting tests drive eviction
// deterministically.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[int64]Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the session for identity, creating a fresh one in StateInit if
// none exists yet.
func (s *MemoryStore) Get(identity int64) Session {
	s.mu.RLock()
	session, ok := s.sessions[identity]
	s.mu.RUnlock()
	if ok {
		return session
	}

	session = Session{Identity: identity, State: StateInit, UpdatedAt: s.now()}
	s.mu.Lock()
	// Another goroutine may have created it between the read and write lock.
	if existing, ok := s.sessions[identity]; ok {
		session = existing
	} else {
		s.sessions[identity] = session
	}
	s.mu.Unlock()
	return session
}

// Put stores the session, stamping UpdatedAt.
func (s *MemoryStore) Put(session Session) {
	session.UpdatedAt = s.now()
	s.mu.Lock()
	s.sessions[session.Identity] = session
	s.mu.Unlock()
}

// Reset discards any session for identity; the next Get starts over in
// StateInit.
func (s *MemoryStore) Reset(identity int64) {
	s.mu.Lock()
	delete(s.sessions, identity)
	s.mu.Unlock()
}

// EvictIdle drops sessions untouched for longer than maxIdle and returns how
// many were removed.
func (s *MemoryStore) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for identity, session := range s.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, identity)
			evicted++
		}
	}
	return evicted
}
