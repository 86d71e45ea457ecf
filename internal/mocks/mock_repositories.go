package mocks

import (
	"context"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// MockTrainerRepository implements domain.TrainerRepository interface for testing
type MockTrainerRepository struct {
	GetFunc  func(ctx context.Context) (*domain.TrainerProfile, error)
	SaveFunc func(ctx context.Context, profile *domain.TrainerProfile) error
}

// NewMockTrainerRepository creates a new MockTrainerRepository with default behaviors
func NewMockTrainerRepository() *MockTrainerRepository {
	return &MockTrainerRepository{}
}

// Get returns the trainer profile
func (m *MockTrainerRepository) Get(ctx context.Context) (*domain.TrainerProfile, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	// Default behavior: not found
	return nil, domain.ErrTrainerNotFound
}

// Save stores the trainer profile
func (m *MockTrainerRepository) Save(ctx context.Context, profile *domain.TrainerProfile) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, profile)
	}
	return nil
}

// MockStudentRepository implements domain.StudentRepository interface for testing
type MockStudentRepository struct {
	CreateFunc         func(ctx context.Context, student *domain.Student) error
	FindByPhoneFunc    func(ctx context.Context, phone string) (*domain.Student, error)
	SetActiveFunc      func(ctx context.Context, id uint, active bool) error
	ListIdentitiesFunc func(ctx context.Context) ([]domain.StudentIdentity, error)
}

// NewMockStudentRepository creates a new MockStudentRepository with default behaviors
func NewMockStudentRepository() *MockStudentRepository {
	return &MockStudentRepository{}
}

// Create creates a student
func (m *MockStudentRepository) Create(ctx context.Context, student *domain.Student) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, student)
	}
	student.ID = 1
	return nil
}

// FindByPhone finds a student by phone
func (m *MockStudentRepository) FindByPhone(ctx context.Context, phone string) (*domain.Student, error) {
	if m.FindByPhoneFunc != nil {
		return m.FindByPhoneFunc(ctx, phone)
	}
	// Default behavior: not found
	return nil, domain.ErrStudentNotFound
}

// SetActive changes the active flag of a student
func (m *MockStudentRepository) SetActive(ctx context.Context, id uint, active bool) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, id, active)
	}
	return nil
}

// ListIdentities lists all student phones
func (m *MockStudentRepository) ListIdentities(ctx context.Context) ([]domain.StudentIdentity, error) {
	if m.ListIdentitiesFunc != nil {
		return m.ListIdentitiesFunc(ctx)
	}
	return nil, nil
}

// Compile-time interface compliance verification
var (
	_ domain.TrainerRepository = (*MockTrainerRepository)(nil)
	_ domain.StudentRepository = (*MockStudentRepository)(nil)
)
