package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chronocheck/pkg"
)

// ErrSessionNotFound is returned for unknown or torn-down sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps sessions for as long as they are active. Stores hand
// out independent copies; callers save after mutating.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	// PurgeIdle removes sessions not updated since before and returns how
	// many were removed.
	PurgeIdle(ctx context.Context, before time.Time) (int, error)
}

// MemoryStore is a process-local SessionStore.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]pkg.SessionSnapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]pkg.SessionSnapshot)}
}

func (m *MemoryStore) Create(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.ID()]; exists {
		return fmt.Errorf("session %s already exists", s.ID())
	}
	m.sessions[s.ID()] = s.Snapshot()
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	snap, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return RestoreSession(snap)
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID()]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, s.ID())
	}
	m.sessions[s.ID()] = s.Snapshot()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) PurgeIdle(ctx context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, snap := range m.sessions {
		if snap.UpdatedAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}
