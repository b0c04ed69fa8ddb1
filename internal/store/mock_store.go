package store

import (
	"context"
	"sync"
	"time"

	"github.com/orderpulse/notification-service/internal/domain"
)

// MockStore is a hand-written, in-memory implementation of NotificationStore
// used in unit tests. No mock-generation library needed. It is safe for
// concurrent use, matching the contract the Redis implementation provides.
type MockStore struct {
	mu      sync.RWMutex
	records map[string]*domain.Notification

	// Error overrides let tests force failure paths.
	CreateErr   error
	MarkSentErr error
	ScanAllErr  error
	PingErr     error
}

func NewMockStore() *MockStore {
	return &MockStore{records: make(map[string]*domain.Notification)}
}

func (m *MockStore) Create(_ context.Context, n *domain.Notification) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[n.ID]; ok {
		return domain.ErrAlreadyExists
	}
	clone := *n
	m.records[n.ID] = &clone
	return nil
}

func (m *MockStore) MarkSent(_ context.Context, id string, sentAt time.Time) error {
	if m.MarkSentErr != nil {
		return m.MarkSentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.Status = domain.StatusSent
	n.SentAt = &sentAt
	return nil
}

func (m *MockStore) MarkFailed(_ context.Context, id string, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.Status = domain.StatusFailed
	n.ErrorMessage = &errMsg
	return nil
}

func (m *MockStore) Get(_ context.Context, id string) (*domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *n
	return &clone, nil
}

func (m *MockStore) ScanAll(_ context.Context) ([]*domain.Notification, error) {
	if m.ScanAllErr != nil {
		return nil, m.ScanAllErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Notification, 0, len(m.records))
	for _, n := range m.records {
		clone := *n
		out = append(out, &clone)
	}
	return out, nil
}

func (m *MockStore) Ping(_ context.Context) error {
	return m.PingErr
}

var _ NotificationStore = (*MockStore)(nil)
