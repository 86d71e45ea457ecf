package mocks

import (
	"strings"
	"time"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// MockTokenService implements domain.TokenService interface for testing.
// Tokens are "token_" + clientID.
type MockTokenService struct {
	GenerateClientTokenFunc func(clientID string) (string, error)
	ValidateClientTokenFunc func(token string) (*domain.ClientClaims, error)
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// GenerateClientToken issues a token for clientID
func (m *MockTokenService) GenerateClientToken(clientID string) (string, error) {
	if m.GenerateClientTokenFunc != nil {
		return m.GenerateClientTokenFunc(clientID)
	}
	return "token_" + clientID, nil
}

// ValidateClientToken validates a token
func (m *MockTokenService) ValidateClientToken(token string) (*domain.ClientClaims, error) {
	if m.ValidateClientTokenFunc != nil {
		return m.ValidateClientTokenFunc(token)
	}
	if !strings.HasPrefix(token, "token_") || len(token) == len("token_") {
		return nil, domain.ErrTokenInvalid
	}
	now := time.Now().Unix()
	return &domain.ClientClaims{ClientID: strings.TrimPrefix(token, "token_"), IssuedAt: now, ExpiresAt: now + 3600}, nil
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)
