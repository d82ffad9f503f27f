package services

import (
	"log"
	"sync"
)

// Registry is the only process-wide shared structure: session id -> the one
// live machine driving it. A second connection for the same id is refused
// until the first machine is removed.
type Registry struct {
	mu       sync.RWMutex
	machines map[string]*SessionMachine
}

func NewRegistry() *Registry {
	return &Registry{
		machines: make(map[string]*SessionMachine),
	}
}

func (r *Registry) Register(m *SessionMachine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.machines[m.SessionID()]; exists {
		return ErrSessionActive
	}
	r.machines[m.SessionID()] = m
	log.Printf("session %s registered (%d active)", m.SessionID(), len(r.machines))
	return nil
}

func (r *Registry) Get(sessionID string) (*SessionMachine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.machines[sessionID]
	return m, ok
}

// Remove evicts the entry only if it still points at the given machine, so a
// stale teardown can never evict a successor.
func (r *Registry) Remove(m *SessionMachine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.machines[m.SessionID()]; ok && current == m {
		delete(r.machines, m.SessionID())
		log.Printf("session %s removed (%d active)", m.SessionID(), len(r.machines))
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.machines)
}
