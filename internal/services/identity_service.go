package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// MatchIdentity reports whether phone belongs to an allowed identity of the
// snapshot role. An exact match on an inactive student is MatchInactive.
func MatchIdentity(phone string, snapshot *domain.IdentitySnapshot) domain.IdentityMatch {
	if snapshot == nil || phone == "" {
		return domain.MatchNone
	}
	switch snapshot.Role {
	case domain.RoleTrainer:
		if snapshot.TrainerPhone != "" && phone == snapshot.TrainerPhone {
			return domain.MatchActive
		}
	case domain.RoleStudent:
		inactive := false
		for _, s := range snapshot.Students {
			if s.Phone != phone {
				continue
			}
			if s.IsActive {
				return domain.MatchActive
			}
			inactive = true
		}
		if inactive {
			return domain.MatchInactive
		}
	}
	return domain.MatchNone
}

// IdentityServiceImpl implements domain.IdentityRegistry over the repositories
type IdentityServiceImpl struct {
	trainerRepo domain.TrainerRepository
	studentRepo domain.StudentRepository
}

// NewIdentityService creates a new identity registry
func NewIdentityService(trainerRepo domain.TrainerRepository, studentRepo domain.StudentRepository) domain.IdentityRegistry {
	return &IdentityServiceImpl{
		trainerRepo: trainerRepo,
		studentRepo: studentRepo,
	}
}

// Snapshot implements domain.IdentityRegistry
func (s *IdentityServiceImpl) Snapshot(ctx context.Context, role domain.Role) (*domain.IdentitySnapshot, error) {
	snapshot := &domain.IdentitySnapshot{Role: role}
	switch role {
	case domain.RoleTrainer:
		profile, err := s.trainerRepo.Get(ctx)
		if errors.Is(err, domain.ErrTrainerNotFound) {
			return snapshot, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load trainer profile: %w", err)
		}
		snapshot.TrainerPhone = profile.Phone
	case domain.RoleStudent:
		students, err := s.studentRepo.ListIdentities(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list students: %w", err)
		}
		snapshot.Students = students
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return snapshot, nil
}

// Profile implements domain.IdentityRegistry
func (s *IdentityServiceImpl) Profile(ctx context.Context, role domain.Role, phone string) (*domain.Profile, error) {
	switch role {
	case domain.RoleTrainer:
		profile, err := s.trainerRepo.Get(ctx)
		if err != nil {
			return nil, err
		}
		return &domain.Profile{Role: role, Name: profile.Name, Phone: profile.Phone}, nil
	case domain.RoleStudent:
		student, err := s.studentRepo.FindByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
		return &domain.Profile{Role: role, Name: student.Name, Phone: student.Phone}, nil
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
}

// Lookup resolves phone against the registry of role
func Lookup(ctx context.Context, registry domain.IdentityRegistry, role domain.Role, phone string) (domain.IdentityMatch, error) {
	snapshot, err := registry.Snapshot(ctx, role)
	if err != nil {
		return domain.MatchNone, err
	}
	return MatchIdentity(phone, snapshot), nil
}
