package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Suitable for tests and
// single-instance deployments; sessions do not survive a restart.
type MemoryStore struct {
	secret string
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

func NewMemoryStore(secret string, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
		sessions: map[string]memoryEntry{},
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Create(ctx context.Context, state State) (string, error) {
	token, id := newToken(s.secret)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = memoryEntry{state: state, expiresAt: s.now().Add(s.ttl)}
	return token, nil
}

func (s *MemoryStore) Lookup(ctx context.Context, token string) (State, bool, error) {
	id, ok := tokenID(s.secret, token)
	if !ok {
		return State{}, false, nil
	}

	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return State{}, false, nil
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return State{}, false, nil
	}
	return entry.state, true, nil
}

func (s *MemoryStore) Destroy(ctx context.Context, token string) error {
	id, ok := tokenID(s.secret, token)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
