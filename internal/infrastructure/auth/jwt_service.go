package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// JWTServiceImpl implements domain.TokenService. Tokens carry the client ID
// of a browser-like client, not a user.
type JWTServiceImpl struct {
	secretKey []byte
	issuer    string
	clientTTL time.Duration
	clock     clockwork.Clock
}

// NewJWTService creates a new JWT service
func NewJWTService(secretKey string, issuer string, clientTTL time.Duration, clock clockwork.Clock) domain.TokenService {
	return &JWTServiceImpl{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		clientTTL: clientTTL,
		clock:     clock,
	}
}

// generateJTI creates a unique JWT ID
func (j *JWTServiceImpl) generateJTI() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GenerateClientToken implements domain.TokenService
func (j *JWTServiceImpl) GenerateClientToken(clientID string) (string, error) {
	if clientID == "" {
		return "", domain.ErrTokenMalformed
	}
	now := j.clock.Now()
	claims := jwt.MapClaims{
		"client_id": clientID,
		"iss":       j.issuer,
		"iat":       now.Unix(),
		"exp":       now.Add(j.clientTTL).Unix(),
		"jti":       j.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// ValidateClientToken implements domain.TokenService
func (j *JWTServiceImpl) ValidateClientToken(tokenString string) (*domain.ClientClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrTokenMalformed
		}
		return j.secretKey, nil
	},
		jwt.WithTimeFunc(j.clock.Now),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !token.Valid {
		return nil, domain.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	clientID, ok := claims["client_id"].(string)
	if !ok || clientID == "" {
		return nil, domain.ErrTokenMalformed
	}
	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	return &domain.ClientClaims{
		ClientID:  clientID,
		IssuedAt:  int64(iat),
		ExpiresAt: int64(exp),
	}, nil
}
