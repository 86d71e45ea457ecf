package domain

import (
	"context"
	"time"
)

// IdentityRegistry exposes the allowed login identities
type IdentityRegistry interface {
	Snapshot(ctx context.Context, role Role) (*IdentitySnapshot, error)
	Profile(ctx context.Context, role Role, phone string) (*Profile, error)
}

// TrainerRepository defines trainer profile data access operations
type TrainerRepository interface {
	Get(ctx context.Context) (*TrainerProfile, error)
	Save(ctx context.Context, profile *TrainerProfile) error
}

// StudentRepository defines student data access operations
type StudentRepository interface {
	Create(ctx context.Context, student *Student) error
	FindByPhone(ctx context.Context, phone string) (*Student, error)
	SetActive(ctx context.Context, id uint, active bool) error
	ListIdentities(ctx context.Context) ([]StudentIdentity, error)
}

// AuthRecordRepository persists the per-client auth record
type AuthRecordRepository interface {
	Find(ctx context.Context, role Role, clientID string) (*AuthRecord, error)
	Save(ctx context.Context, record *AuthRecord) error
	Delete(ctx context.Context, role Role, clientID string) error
}

// SessionStore is the session store API as seen by one client and role
type SessionStore interface {
	Status(ctx context.Context) (*AuthStatus, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Resume(ctx context.Context) (*LoginResult, error)
	SaveStep(ctx context.Context, step LoginStep, phone string) error
	ClearStep(ctx context.Context) error
	Logout(ctx context.Context) error
}

// KeyValueStore is the client-local persisted key-value storage
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// LockoutLedger persists attempts and lock expiry for one client and role
type LockoutLedger interface {
	Load(ctx context.Context) (LockState, error)
	Save(ctx context.Context, state LockState) error
	// ClearLock drops attempts and lock expiry, keeping the lock count
	ClearLock(ctx context.Context) error
	Reset(ctx context.Context) error
}

// LockoutPolicy decides how failed code submissions escalate into locks
type LockoutPolicy interface {
	MaxAttempts() int
	RegisterFailure(state LockState, now time.Time) LockDecision
	Remaining(state LockState) int
}

// CodeService sends and verifies one-time codes
type CodeService interface {
	Send(ctx context.Context, role Role, phone string) (*CodeDispatch, error)
	Verify(ctx context.Context, role Role, phone, code string) (bool, error)
	CanResend(ctx context.Context, role Role, phone string) (bool, int64, error)
	ConsumeVerification(ctx context.Context, role Role, phone string) (bool, error)
}

// CodeHasher hashes one-time codes at rest
type CodeHasher interface {
	Hash(code string) (string, error)
	Verify(hash, code string) bool
}

// NotificationService defines notification operations
type NotificationService interface {
	SendSMS(to, message string) error
}

// TokenService issues and validates client session tokens
type TokenService interface {
	GenerateClientToken(clientID string) (string, error)
	ValidateClientToken(token string) (*ClientClaims, error)
}

// ClientClaims represents client session token claims
type ClientClaims struct {
	ClientID  string `json:"client_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// PolicyService guards the protected routes of each role
type PolicyService interface {
	Seed(policies []RoutePolicy) error
	CheckPermission(role Role, resource, action string) (bool, error)
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	SavePolicy() error
}
