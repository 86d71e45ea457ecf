package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// MockSessionStore implements domain.SessionStore in memory for testing.
// It keeps one record so a new controller can be mounted against the state
// an earlier one persisted.
type MockSessionStore struct {
	StatusFunc    func(ctx context.Context) (*domain.AuthStatus, error)
	LoginFunc     func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error)
	ResumeFunc    func(ctx context.Context) (*domain.LoginResult, error)
	SaveStepFunc  func(ctx context.Context, step domain.LoginStep, phone string) error
	ClearStepFunc func(ctx context.Context) error
	LogoutFunc    func(ctx context.Context) error

	// RememberMeTTL is used by the default Login
	RememberMeTTL time.Duration

	mu     sync.Mutex
	record domain.AuthStatus
	calls  []string
}

// NewMockSessionStore creates an empty store
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{RememberMeTTL: 30 * 24 * time.Hour}
}

func (m *MockSessionStore) track(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

// Calls returns the recorded call names in order
func (m *MockSessionStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Record returns the stored status
func (m *MockSessionStore) Record() domain.AuthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record
}

// SetRecord replaces the stored status
func (m *MockSessionStore) SetRecord(status domain.AuthStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = status
}

// Status returns the stored status
func (m *MockSessionStore) Status(ctx context.Context) (*domain.AuthStatus, error) {
	m.track("status")
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	status := m.record
	return &status, nil
}

// Login marks the record logged in
func (m *MockSessionStore) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	m.track("login")
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record.IsLoggedIn = true
	m.record.LoginStep = ""
	if req.Phone != "" {
		m.record.LoginPhone = req.Phone
	}
	result := &domain.LoginResult{}
	if req.RememberMe {
		expiry := time.Now().Add(m.RememberMeTTL)
		m.record.RememberMeExpiry = &expiry
		result.RememberMeExpiry = &expiry
	}
	return result, nil
}

// Resume marks the record logged in when remember-me is still valid
func (m *MockSessionStore) Resume(ctx context.Context) (*domain.LoginResult, error) {
	m.track("resume")
	if m.ResumeFunc != nil {
		return m.ResumeFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.record.RememberMeExpiry == nil {
		return nil, domain.ErrRememberMeExpired
	}
	m.record.IsLoggedIn = true
	return &domain.LoginResult{RememberMeExpiry: m.record.RememberMeExpiry}, nil
}

// SaveStep stores the login step
func (m *MockSessionStore) SaveStep(ctx context.Context, step domain.LoginStep, phone string) error {
	m.track("save_step")
	if m.SaveStepFunc != nil {
		return m.SaveStepFunc(ctx, step, phone)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record.LoginStep = step
	m.record.LoginPhone = phone
	return nil
}

// ClearStep removes the login step
func (m *MockSessionStore) ClearStep(ctx context.Context) error {
	m.track("clear_step")
	if m.ClearStepFunc != nil {
		return m.ClearStepFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record.LoginStep = ""
	return nil
}

// Logout deletes the record
func (m *MockSessionStore) Logout(ctx context.Context) error {
	m.track("logout")
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = domain.AuthStatus{}
	return nil
}

// Compile-time interface compliance verification
var _ domain.SessionStore = (*MockSessionStore)(nil)
