// internal/session/memory.go
package session

import (
	"sync"
)

// MemoryStore is the default process-local session store: a concurrent map of
// session id to session. Values are deep-copied on the way in and out so
// callers can never mutate stored state behind the store's back.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return copySession(sess), nil
}

func (m *MemoryStore) Put(sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = copySession(sess)
	return nil
}

func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func copySession(sess *Session) *Session {
	cp := &Session{ID: sess.ID, Stage: sess.Stage}
	if len(sess.Transcript) > 0 {
		cp.Transcript = make([]Turn, len(sess.Transcript))
		copy(cp.Transcript, sess.Transcript)
	}
	return cp
}
