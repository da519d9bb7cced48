// ABOUTME: Mock SessionStore implementation for testing and the memory backend
// ABOUTME: Allows tests to run without SQLite and to inject lookup/create failures

package store

import (
	"context"
	"sync"
	"time"
)

// MockStore is an in-memory SessionStore implementation.
// GetErr and CreateErr, when set, are returned by the corresponding calls.
type MockStore struct {
	mu       sync.RWMutex
	sessions map[mockKey]*Session

	GetErr    error
	CreateErr error
	PingErr   error

	getCalls    int
	createCalls int
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		sessions: make(map[mockKey]*Session),
	}
}

// mockKey is the composite (conversation, participant) key
type mockKey struct {
	conversationID string
	participantID  string
}

// GetSession retrieves a session by composite key.
func (m *MockStore) GetSession(ctx context.Context, conversationID, participantID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getCalls++
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	s, ok := m.sessions[mockKey{conversationID, participantID}]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	result := *s
	return &result, nil
}

// CreateSession stores a session, replacing any existing one with the same key.
func (m *MockStore) CreateSession(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	if m.CreateErr != nil {
		return m.CreateErr
	}

	// Make a copy to avoid external modification
	s := *session
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m.sessions[mockKey{s.ConversationID, s.ParticipantID}] = &s
	return nil
}

// Setup is a no-op for the mock store.
func (m *MockStore) Setup(ctx context.Context) error {
	return nil
}

// Ping returns PingErr.
func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PingErr
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}

// Len returns the number of stored sessions.
func (m *MockStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// GetCalls returns how many lookups have been made.
func (m *MockStore) GetCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getCalls
}

// CreateCalls returns how many writes have been attempted.
func (m *MockStore) CreateCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.createCalls
}
