package session

import (
	"slices"
	"sync"
)

// Store maps session identifiers to sessions.
type Store interface {
	// Put registers s under s.ID and returns the session it replaced, if any.
	Put(s *Session) *Session
	Get(id string) (*Session, bool)
	Delete(id string) (*Session, bool)
	// List returns a sorted snapshot of identifiers.
	List() []string
	Len() int
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Put(s *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.sessions[s.ID]
	m.sessions[s.ID] = s
	return old
}

func (m *MemoryStore) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *MemoryStore) Delete(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	return s, ok
}

func (m *MemoryStore) List() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
