package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxSessions bounds how many sessions are kept in memory.
const DefaultMaxSessions = 1024

// Store keeps recently used sessions. The least recently used session is
// dropped once the store is full.
type Store struct {
	mu       sync.Mutex
	sessions *lru.Cache[string, *State]
}

// NewStore creates a store holding at most size sessions.
func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	cache, err := lru.NewWithEvict(size, func(id string, _ *State) {
		slog.Debug("session evicted", slog.String("session_id", id))
	})
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}
	return &Store{sessions: cache}, nil
}

// GetOrCreate returns the session for id. When id is empty or unknown a new
// session is created under a fresh id; created reports whether that happened.
func (s *Store) GetOrCreate(id string) (st *State, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if st, ok := s.sessions.Get(id); ok {
			return st, false
		}
	}
	st = NewState(uuid.NewString())
	s.sessions.Add(st.ID(), st)
	return st, true
}

// Get returns the session for id, if present.
func (s *Store) Get(id string) (*State, bool) {
	return s.sessions.Get(id)
}

// Remove drops a session.
func (s *Store) Remove(id string) {
	s.sessions.Remove(id)
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	return s.sessions.Len()
}
