package services

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/loginlog/internal/models"
)

// MockAttemptRepository implements AttemptRepository and AttemptStore for testing
type MockAttemptRepository struct {
	InsertFunc               func(ctx context.Context, attempt *models.LoginAttempt) (int64, error)
	ListRecentFunc           func(ctx context.Context, limit int) ([]*models.LoginAttempt, error)
	ListRecentSinceFunc      func(ctx context.Context, since time.Time, limit int) ([]*models.LoginAttempt, error)
	DeleteBatchOlderThanFunc func(ctx context.Context, cutoff time.Time, limit int) (int64, error)
	CreateStoreFunc          func(ctx context.Context) error
	DropStoreFunc            func(ctx context.Context) error
}

func (m *MockAttemptRepository) Insert(ctx context.Context, attempt *models.LoginAttempt) (int64, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, attempt)
	}
	return 1, nil
}

func (m *MockAttemptRepository) ListRecent(ctx context.Context, limit int) ([]*models.LoginAttempt, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, limit)
	}
	return []*models.LoginAttempt{}, nil
}

func (m *MockAttemptRepository) ListRecentSince(ctx context.Context, since time.Time, limit int) ([]*models.LoginAttempt, error) {
	if m.ListRecentSinceFunc != nil {
		return m.ListRecentSinceFunc(ctx, since, limit)
	}
	return []*models.LoginAttempt{}, nil
}

func (m *MockAttemptRepository) DeleteBatchOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	if m.DeleteBatchOlderThanFunc != nil {
		return m.DeleteBatchOlderThanFunc(ctx, cutoff, limit)
	}
	return 0, nil
}

func (m *MockAttemptRepository) CreateStore(ctx context.Context) error {
	if m.CreateStoreFunc != nil {
		return m.CreateStoreFunc(ctx)
	}
	return nil
}

func (m *MockAttemptRepository) DropStore(ctx context.Context) error {
	if m.DropStoreFunc != nil {
		return m.DropStoreFunc(ctx)
	}
	return nil
}

// MockSettingsStore is an in-memory SettingsStore. The Func fields, when
// set, replace the default behavior.
type MockSettingsStore struct {
	GetFunc    func(ctx context.Context, name string) (string, error)
	SetAllFunc func(ctx context.Context, values map[string]string) error

	mu     sync.Mutex
	Values map[string]string
}

// NewMockSettingsStore creates a store holding a copy of values
func NewMockSettingsStore(values map[string]string) *MockSettingsStore {
	m := &MockSettingsStore{Values: make(map[string]string, len(values))}
	for k, v := range values {
		m.Values[k] = v
	}
	return m
}

func (m *MockSettingsStore) Get(ctx context.Context, name string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.Values[name]
	if !ok {
		return "", models.ErrNotFound
	}
	return value, nil
}

func (m *MockSettingsStore) SetAll(ctx context.Context, values map[string]string) error {
	if m.SetAllFunc != nil {
		return m.SetAllFunc(ctx, values)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Values == nil {
		m.Values = make(map[string]string)
	}
	for k, v := range values {
		m.Values[k] = v
	}
	return nil
}

func (m *MockSettingsStore) AddAll(ctx context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Values == nil {
		m.Values = make(map[string]string)
	}
	for k, v := range values {
		if _, ok := m.Values[k]; !ok {
			m.Values[k] = v
		}
	}
	return nil
}

func (m *MockSettingsStore) Delete(ctx context.Context, names ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		delete(m.Values, name)
	}
	return nil
}
