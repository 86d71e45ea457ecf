package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/mocks"
)

func TestMatchIdentity(t *testing.T) {
	trainer := &domain.IdentitySnapshot{Role: domain.RoleTrainer, TrainerPhone: "09123823886"}
	students := &domain.IdentitySnapshot{Role: domain.RoleStudent, Students: []domain.StudentIdentity{
		{Phone: "09350001122", IsActive: true},
		{Phone: "09350003344", IsActive: false},
		{Phone: "09350005566", IsActive: false},
		{Phone: "09350005566", IsActive: true},
	}}

	tests := []struct {
		name     string
		phone    string
		snapshot *domain.IdentitySnapshot
		expected domain.IdentityMatch
	}{
		{"trainer phone", "09123823886", trainer, domain.MatchActive},
		{"other phone for trainer", "09123823887", trainer, domain.MatchNone},
		{"empty phone", "", trainer, domain.MatchNone},
		{"empty trainer phone never matches", "", &domain.IdentitySnapshot{Role: domain.RoleTrainer}, domain.MatchNone},
		{"nil snapshot", "09123823886", nil, domain.MatchNone},
		{"active student", "09350001122", students, domain.MatchActive},
		{"inactive student", "09350003344", students, domain.MatchInactive},
		{"duplicate phone with one active record", "09350005566", students, domain.MatchActive},
		{"unknown student", "09350009999", students, domain.MatchNone},
		{"trainer phone is not a student", "09123823886", students, domain.MatchNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchIdentity(tt.phone, tt.snapshot))
		})
	}
}

func TestIdentityServiceImpl_Snapshot(t *testing.T) {
	tests := []struct {
		name          string
		role          domain.Role
		setupMocks    func(*mocks.MockTrainerRepository, *mocks.MockStudentRepository)
		expectedPhone string
		expectedCount int
		expectError   bool
	}{
		{
			name: "trainer profile",
			role: domain.RoleTrainer,
			setupMocks: func(trainerRepo *mocks.MockTrainerRepository, _ *mocks.MockStudentRepository) {
				trainerRepo.GetFunc = func(ctx context.Context) (*domain.TrainerProfile, error) {
					return &domain.TrainerProfile{Name: "Coach", Phone: "09123823886"}, nil
				}
			},
			expectedPhone: "09123823886",
		},
		{
			name:       "missing trainer profile allows nobody",
			role:       domain.RoleTrainer,
			setupMocks: func(*mocks.MockTrainerRepository, *mocks.MockStudentRepository) {},
		},
		{
			name: "trainer repository failure",
			role: domain.RoleTrainer,
			setupMocks: func(trainerRepo *mocks.MockTrainerRepository, _ *mocks.MockStudentRepository) {
				trainerRepo.GetFunc = func(ctx context.Context) (*domain.TrainerProfile, error) {
					return nil, errors.New("database is down")
				}
			},
			expectError: true,
		},
		{
			name: "student list",
			role: domain.RoleStudent,
			setupMocks: func(_ *mocks.MockTrainerRepository, studentRepo *mocks.MockStudentRepository) {
				studentRepo.ListIdentitiesFunc = func(ctx context.Context) ([]domain.StudentIdentity, error) {
					return []domain.StudentIdentity{{Phone: "09350001122", IsActive: true}, {Phone: "09350003344"}}, nil
				}
			},
			expectedCount: 2,
		},
		{
			name:        "unknown role",
			role:        domain.Role("admin"),
			setupMocks:  func(*mocks.MockTrainerRepository, *mocks.MockStudentRepository) {},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trainerRepo := mocks.NewMockTrainerRepository()
			studentRepo := mocks.NewMockStudentRepository()
			tt.setupMocks(trainerRepo, studentRepo)

			snapshot, err := NewIdentityService(trainerRepo, studentRepo).Snapshot(createTestContext(t), tt.role)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.role, snapshot.Role)
			assert.Equal(t, tt.expectedPhone, snapshot.TrainerPhone)
			assert.Len(t, snapshot.Students, tt.expectedCount)
		})
	}
}

func TestIdentityServiceImpl_Profile(t *testing.T) {
	trainerRepo := mocks.NewMockTrainerRepository()
	trainerRepo.GetFunc = func(ctx context.Context) (*domain.TrainerProfile, error) {
		return &domain.TrainerProfile{Name: "Coach", Phone: "09123823886"}, nil
	}
	studentRepo := mocks.NewMockStudentRepository()
	studentRepo.FindByPhoneFunc = func(ctx context.Context, phone string) (*domain.Student, error) {
		if phone == "09350001122" {
			return &domain.Student{ID: 4, Name: "Sara", Phone: phone, IsActive: true}, nil
		}
		return nil, domain.ErrStudentNotFound
	}
	svc := NewIdentityService(trainerRepo, studentRepo)
	ctx := createTestContext(t)

	profile, err := svc.Profile(ctx, domain.RoleTrainer, "")
	require.NoError(t, err)
	assert.Equal(t, "Coach", profile.Name)

	profile, err = svc.Profile(ctx, domain.RoleStudent, "09350001122")
	require.NoError(t, err)
	assert.Equal(t, "Sara", profile.Name)

	_, err = svc.Profile(ctx, domain.RoleStudent, "09350009999")
	assert.ErrorIs(t, err, domain.ErrStudentNotFound)

	match, err := Lookup(ctx, svc, domain.RoleTrainer, "09123823886")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchActive, match)
}
