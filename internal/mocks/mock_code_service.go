package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// MockCodeService implements domain.CodeService interface for testing
type MockCodeService struct {
	SendFunc                func(ctx context.Context, role domain.Role, phone string) (*domain.CodeDispatch, error)
	VerifyFunc              func(ctx context.Context, role domain.Role, phone, code string) (bool, error)
	CanResendFunc           func(ctx context.Context, role domain.Role, phone string) (bool, int64, error)
	ConsumeVerificationFunc func(ctx context.Context, role domain.Role, phone string) (bool, error)

	// Code is accepted by the default Verify
	Code string

	mu    sync.Mutex
	sends int
}

// NewMockCodeService creates a MockCodeService accepting code
func NewMockCodeService(code string) *MockCodeService {
	return &MockCodeService{Code: code}
}

// Send dispatches a code
func (m *MockCodeService) Send(ctx context.Context, role domain.Role, phone string) (*domain.CodeDispatch, error) {
	m.mu.Lock()
	m.sends++
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, role, phone)
	}
	now := time.Now()
	return &domain.CodeDispatch{Role: role, Phone: phone, ExpiresAt: now.Add(5 * time.Minute), ResendAt: now.Add(2 * time.Minute)}, nil
}

// Sends returns how many times Send was called
func (m *MockCodeService) Sends() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sends
}

// Verify checks a code
func (m *MockCodeService) Verify(ctx context.Context, role domain.Role, phone, code string) (bool, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, role, phone, code)
	}
	return code == m.Code, nil
}

// CanResend reports whether a resend is allowed
func (m *MockCodeService) CanResend(ctx context.Context, role domain.Role, phone string) (bool, int64, error) {
	if m.CanResendFunc != nil {
		return m.CanResendFunc(ctx, role, phone)
	}
	// Default behavior: allow resend with no wait time
	return true, 0, nil
}

// ConsumeVerification consumes the verification marker
func (m *MockCodeService) ConsumeVerification(ctx context.Context, role domain.Role, phone string) (bool, error) {
	if m.ConsumeVerificationFunc != nil {
		return m.ConsumeVerificationFunc(ctx, role, phone)
	}
	return true, nil
}

// Compile-time interface compliance verification
var _ domain.CodeService = (*MockCodeService)(nil)
