package mocks

import (
	"context"
	"sync"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// MockEventPublisher implements domain.EventPublisher and records events
type MockEventPublisher struct {
	PublishFunc func(ctx context.Context, event *domain.AuthEvent) error

	mu     sync.Mutex
	events []*domain.AuthEvent
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records event
func (m *MockEventPublisher) Publish(ctx context.Context, event *domain.AuthEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	return nil
}

// Events returns the recorded events
func (m *MockEventPublisher) Events() []*domain.AuthEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuthEvent(nil), m.events...)
}

// Types returns the recorded event types in order
func (m *MockEventPublisher) Types() []domain.AuthEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]domain.AuthEventType, len(m.events))
	for i, e := range m.events {
		types[i] = e.EventType
	}
	return types
}

// Compile-time interface compliance verification
var _ domain.EventPublisher = (*MockEventPublisher)(nil)
