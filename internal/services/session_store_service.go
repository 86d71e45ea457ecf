package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/digits"
)

// SessionStoreConfig holds the remember-me window per role
type SessionStoreConfig struct {
	TrainerRememberMeTTL time.Duration
	StudentRememberMeTTL time.Duration
}

func (c SessionStoreConfig) rememberMeTTL(role domain.Role) time.Duration {
	if role == domain.RoleStudent {
		return c.StudentRememberMeTTL
	}
	return c.TrainerRememberMeTTL
}

// SessionStoreService is the authoritative server-side session store
type SessionStoreService struct {
	repo       domain.AuthRecordRepository
	identities domain.IdentityRegistry
	codes      domain.CodeService
	clock      clockwork.Clock
	logger     *zap.Logger
	config     SessionStoreConfig
}

// NewSessionStoreService creates a new session store service
func NewSessionStoreService(
	repo domain.AuthRecordRepository,
	identities domain.IdentityRegistry,
	codes domain.CodeService,
	clock clockwork.Clock,
	logger *zap.Logger,
	config SessionStoreConfig,
) *SessionStoreService {
	return &SessionStoreService{
		repo:       repo,
		identities: identities,
		codes:      codes,
		clock:      clock,
		logger:     logger,
		config:     config,
	}
}

func (s *SessionStoreService) find(ctx context.Context, role domain.Role, clientID string) (*domain.AuthRecord, error) {
	rec, err := s.repo.Find(ctx, role, clientID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return &domain.AuthRecord{Role: role, ClientID: clientID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load auth record: %w", err)
	}
	return rec, nil
}

func (s *SessionStoreService) save(ctx context.Context, rec *domain.AuthRecord) error {
	rec.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to save auth record: %w", err)
	}
	return nil
}

// Status returns the persisted status. An expired remember-me expiry is
// dropped from the record before answering.
func (s *SessionStoreService) Status(ctx context.Context, role domain.Role, clientID string) (*domain.AuthStatus, error) {
	rec, err := s.repo.Find(ctx, role, clientID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return &domain.AuthStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load auth record: %w", err)
	}

	if rec.RememberMeExpiry != nil && !s.clock.Now().Before(*rec.RememberMeExpiry) {
		rec.RememberMeExpiry = nil
		if err := s.save(ctx, rec); err != nil {
			s.logger.Warn("could not drop expired remember-me",
				zap.String("role", string(role)), zap.String("client_id", clientID), zap.Error(err))
		}
	}

	return &domain.AuthStatus{
		IsLoggedIn:       rec.IsLoggedIn,
		RememberMeExpiry: rec.RememberMeExpiry,
		LoginStep:        rec.LoginStep,
		LoginPhone:       rec.LoginPhone,
	}, nil
}

// Login marks the client logged in after its code was verified
func (s *SessionStoreService) Login(ctx context.Context, role domain.Role, clientID string, req domain.LoginRequest) (*domain.LoginResult, error) {
	phone := digits.Normalize(req.Phone)
	snapshot, err := s.identities.Snapshot(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to load identities: %w", err)
	}
	if role == domain.RoleTrainer && phone == "" {
		phone = snapshot.TrainerPhone
	}
	switch MatchIdentity(phone, snapshot) {
	case domain.MatchInactive:
		return nil, domain.ErrAccountDisabled
	case domain.MatchNone:
		return nil, domain.ErrPhoneNotAllowed
	}

	verified, err := s.codes.ConsumeVerification(ctx, role, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check code verification: %w", err)
	}
	if !verified {
		return nil, domain.ErrCodeNotVerified
	}

	rec, err := s.find(ctx, role, clientID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	rec.IsLoggedIn = true
	rec.LoginStep = ""
	rec.LoginPhone = phone
	if req.RememberMe {
		expiry := now.Add(s.config.rememberMeTTL(role)).UTC()
		rec.RememberMeExpiry = &expiry
	} else if rec.RememberMeExpiry != nil && !now.Before(*rec.RememberMeExpiry) {
		rec.RememberMeExpiry = nil
	}
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	result := &domain.LoginResult{}
	if req.RememberMe {
		result.RememberMeExpiry = rec.RememberMeExpiry
	}
	return result, nil
}

// Resume logs the client in again without a code while its remember-me
// expiry is still in the future
func (s *SessionStoreService) Resume(ctx context.Context, role domain.Role, clientID string) (*domain.LoginResult, error) {
	rec, err := s.repo.Find(ctx, role, clientID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, domain.ErrRememberMeExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load auth record: %w", err)
	}
	if rec.RememberMeExpiry == nil || !s.clock.Now().Before(*rec.RememberMeExpiry) {
		return nil, domain.ErrRememberMeExpired
	}

	if role == domain.RoleStudent {
		snapshot, err := s.identities.Snapshot(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("failed to load identities: %w", err)
		}
		if MatchIdentity(rec.LoginPhone, snapshot) != domain.MatchActive {
			if err := s.repo.Delete(ctx, role, clientID); err != nil {
				s.logger.Warn("could not delete record of disabled student",
					zap.String("client_id", clientID), zap.Error(err))
			}
			return nil, domain.ErrAccountDisabled
		}
	}

	rec.IsLoggedIn = true
	rec.LoginStep = ""
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	return &domain.LoginResult{RememberMeExpiry: rec.RememberMeExpiry}, nil
}

// SaveStep persists the mid-flow marker
func (s *SessionStoreService) SaveStep(ctx context.Context, role domain.Role, clientID string, step domain.LoginStep, phone string) error {
	if !step.Valid() {
		return domain.ErrInvalidStep
	}
	rec, err := s.find(ctx, role, clientID)
	if err != nil {
		return err
	}
	rec.LoginStep = step
	if p := digits.Normalize(phone); p != "" {
		rec.LoginPhone = p
	}
	return s.save(ctx, rec)
}

// ClearStep deletes the mid-flow marker
func (s *SessionStoreService) ClearStep(ctx context.Context, role domain.Role, clientID string) error {
	rec, err := s.repo.Find(ctx, role, clientID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load auth record: %w", err)
	}
	rec.LoginStep = ""
	if !rec.IsLoggedIn && rec.RememberMeExpiry == nil {
		rec.LoginPhone = ""
	}
	return s.save(ctx, rec)
}

// Logout deletes the whole record
func (s *SessionStoreService) Logout(ctx context.Context, role domain.Role, clientID string) error {
	if err := s.repo.Delete(ctx, role, clientID); err != nil {
		return fmt.Errorf("failed to delete auth record: %w", err)
	}
	return nil
}

// ForClient binds the service to one role and client
func (s *SessionStoreService) ForClient(role domain.Role, clientID string) domain.SessionStore {
	return &clientSessionStore{svc: s, role: role, clientID: clientID}
}

type clientSessionStore struct {
	svc      *SessionStoreService
	role     domain.Role
	clientID string
}

func (c *clientSessionStore) Status(ctx context.Context) (*domain.AuthStatus, error) {
	return c.svc.Status(ctx, c.role, c.clientID)
}

func (c *clientSessionStore) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	return c.svc.Login(ctx, c.role, c.clientID, req)
}

func (c *clientSessionStore) Resume(ctx context.Context) (*domain.LoginResult, error) {
	return c.svc.Resume(ctx, c.role, c.clientID)
}

func (c *clientSessionStore) SaveStep(ctx context.Context, step domain.LoginStep, phone string) error {
	return c.svc.SaveStep(ctx, c.role, c.clientID, step, phone)
}

func (c *clientSessionStore) ClearStep(ctx context.Context) error {
	return c.svc.ClearStep(ctx, c.role, c.clientID)
}

func (c *clientSessionStore) Logout(ctx context.Context) error {
	return c.svc.Logout(ctx, c.role, c.clientID)
}
