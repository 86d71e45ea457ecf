package mocks

import (
	"context"
	"sync"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// MockAuthRecordRepository implements domain.AuthRecordRepository in memory
type MockAuthRecordRepository struct {
	FindFunc   func(ctx context.Context, role domain.Role, clientID string) (*domain.AuthRecord, error)
	SaveFunc   func(ctx context.Context, record *domain.AuthRecord) error
	DeleteFunc func(ctx context.Context, role domain.Role, clientID string) error

	mu      sync.Mutex
	records map[string]domain.AuthRecord
}

// NewMockAuthRecordRepository creates an empty repository
func NewMockAuthRecordRepository() *MockAuthRecordRepository {
	return &MockAuthRecordRepository{records: make(map[string]domain.AuthRecord)}
}

func recordKey(role domain.Role, clientID string) string {
	return string(role) + ":" + clientID
}

// Find returns the record of role and client
func (m *MockAuthRecordRepository) Find(ctx context.Context, role domain.Role, clientID string) (*domain.AuthRecord, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, role, clientID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[recordKey(role, clientID)]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &rec, nil
}

// Save stores record
func (m *MockAuthRecordRepository) Save(ctx context.Context, record *domain.AuthRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[recordKey(record.Role, record.ClientID)] = *record
	return nil
}

// Delete removes the record of role and client
func (m *MockAuthRecordRepository) Delete(ctx context.Context, role domain.Role, clientID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, role, clientID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, recordKey(role, clientID))
	return nil
}

// Compile-time interface compliance verification
var _ domain.AuthRecordRepository = (*MockAuthRecordRepository)(nil)
