package domain

import (
	"context"
	"time"

	"github.com/segmentio/ksuid"
)

// AuthEventType defines the type of auth event
type AuthEventType string

const (
	// Login flow events
	CodeSentEvent       AuthEventType = "CODE_SENT"
	LoginSucceededEvent AuthEventType = "LOGIN_SUCCEEDED"
	LoginFailedEvent    AuthEventType = "LOGIN_FAILED"
	LockedEvent         AuthEventType = "LOGIN_LOCKED"

	// Session events
	WelcomeBackEvent  AuthEventType = "WELCOME_BACK"
	AccessDeniedEvent AuthEventType = "ACCESS_DENIED"
	LoggedOutEvent    AuthEventType = "LOGGED_OUT"
)

// AuthEvent is broadcast to views that depend on the login state
type AuthEvent struct {
	ID        string                 `json:"id"`
	EventType AuthEventType          `json:"event_type"`
	Role      Role                   `json:"role"`
	ClientID  string                 `json:"client_id"`
	Phone     string                 `json:"phone,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// EventPublisher broadcasts auth events
type EventPublisher interface {
	Publish(ctx context.Context, event *AuthEvent) error
}

// NewAuthEvent creates a new auth event with common fields populated
func NewAuthEvent(eventType AuthEventType, role Role, clientID string, now time.Time) *AuthEvent {
	return &AuthEvent{
		ID:        ksuid.New().String(),
		EventType: eventType,
		Role:      role,
		ClientID:  clientID,
		Timestamp: now.UTC(),
		Metadata:  make(map[string]interface{}),
	}
}

// WithPhone sets the phone field
func (e *AuthEvent) WithPhone(phone string) *AuthEvent {
	e.Phone = phone
	return e
}

// WithMessage sets the human readable message
func (e *AuthEvent) WithMessage(msg string) *AuthEvent {
	e.Message = msg
	return e
}

// WithMetadata adds metadata to the event
func (e *AuthEvent) WithMetadata(key string, value interface{}) *AuthEvent {
	e.Metadata[key] = value
	return e
}
