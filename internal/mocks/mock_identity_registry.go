package mocks

import (
	"context"
	"sync"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// MockIdentityRegistry implements domain.IdentityRegistry for testing.
// By default it serves a trainer phone and a student list held in memory.
type MockIdentityRegistry struct {
	SnapshotFunc func(ctx context.Context, role domain.Role) (*domain.IdentitySnapshot, error)
	ProfileFunc  func(ctx context.Context, role domain.Role, phone string) (*domain.Profile, error)

	mu           sync.Mutex
	trainerPhone string
	trainerName  string
	students     map[string]*domain.Student
}

// NewMockIdentityRegistry creates a registry with the given trainer phone
func NewMockIdentityRegistry(trainerPhone string) *MockIdentityRegistry {
	return &MockIdentityRegistry{
		trainerPhone: trainerPhone,
		trainerName:  "Coach",
		students:     make(map[string]*domain.Student),
	}
}

// AddStudent registers a student
func (m *MockIdentityRegistry) AddStudent(name, phone string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[phone] = &domain.Student{Name: name, Phone: phone, IsActive: active}
}

// SetActive flips the active flag of a registered student
func (m *MockIdentityRegistry) SetActive(phone string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.students[phone]; ok {
		s.IsActive = active
	}
}

// Snapshot implements domain.IdentityRegistry
func (m *MockIdentityRegistry) Snapshot(ctx context.Context, role domain.Role) (*domain.IdentitySnapshot, error) {
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc(ctx, role)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := &domain.IdentitySnapshot{Role: role}
	if role == domain.RoleTrainer {
		snapshot.TrainerPhone = m.trainerPhone
		return snapshot, nil
	}
	for _, s := range m.students {
		snapshot.Students = append(snapshot.Students, domain.StudentIdentity{Phone: s.Phone, IsActive: s.IsActive})
	}
	return snapshot, nil
}

// Profile implements domain.IdentityRegistry
func (m *MockIdentityRegistry) Profile(ctx context.Context, role domain.Role, phone string) (*domain.Profile, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, role, phone)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if role == domain.RoleTrainer {
		return &domain.Profile{Role: role, Name: m.trainerName, Phone: m.trainerPhone}, nil
	}
	s, ok := m.students[phone]
	if !ok {
		return nil, domain.ErrStudentNotFound
	}
	return &domain.Profile{Role: role, Name: s.Name, Phone: s.Phone}, nil
}

// Compile-time interface compliance verification
var _ domain.IdentityRegistry = (*MockIdentityRegistry)(nil)
