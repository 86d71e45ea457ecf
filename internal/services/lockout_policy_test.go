package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

func TestAttemptPolicy_RegisterFailure(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	running := now.Add(30 * time.Minute)
	expired := now.Add(-time.Minute)

	tests := []struct {
		name           string
		config         LockoutConfig
		state          domain.LockState
		expectLocked   bool
		expectAttempts int
		expectCount    int
		expectUntil    *time.Time
	}{
		{
			name:           "first failure is allowed",
			config:         LockoutConfig{MaxAttempts: 3, LockDuration: time.Hour},
			state:          domain.LockState{},
			expectAttempts: 1,
		},
		{
			name:           "second failure is allowed",
			config:         LockoutConfig{MaxAttempts: 3, LockDuration: time.Hour},
			state:          domain.LockState{Attempts: 1},
			expectAttempts: 2,
		},
		{
			name:           "third failure locks",
			config:         LockoutConfig{MaxAttempts: 3, LockDuration: time.Hour},
			state:          domain.LockState{Attempts: 2},
			expectLocked:   true,
			expectAttempts: 3,
			expectCount:    1,
			expectUntil:    timePtr(now.Add(time.Hour)),
		},
		{
			name:           "running lock is kept as is",
			config:         LockoutConfig{MaxAttempts: 3, LockDuration: time.Hour},
			state:          domain.LockState{Attempts: 3, LockedUntil: &running, LockCount: 1},
			expectLocked:   true,
			expectAttempts: 3,
			expectCount:    1,
			expectUntil:    &running,
		},
		{
			name:           "expired lock does not block",
			config:         LockoutConfig{MaxAttempts: 3, LockDuration: time.Hour},
			state:          domain.LockState{Attempts: 0, LockedUntil: &expired, LockCount: 1},
			expectAttempts: 1,
			expectCount:    1,
		},
		{
			name:           "fixed growth ignores lock count",
			config:         LockoutConfig{MaxAttempts: 3, LockDuration: time.Hour, Factor: 2},
			state:          domain.LockState{Attempts: 2, LockCount: 4},
			expectLocked:   true,
			expectAttempts: 3,
			expectCount:    5,
			expectUntil:    timePtr(now.Add(time.Hour)),
		},
		{
			name:           "escalating growth doubles",
			config:         LockoutConfig{MaxAttempts: 3, LockDuration: time.Hour, Escalating: true, Factor: 2, MaxLockDuration: 24 * time.Hour},
			state:          domain.LockState{Attempts: 2, LockCount: 2},
			expectLocked:   true,
			expectAttempts: 3,
			expectCount:    3,
			expectUntil:    timePtr(now.Add(4 * time.Hour)),
		},
		{
			name:           "escalating growth is capped",
			config:         LockoutConfig{MaxAttempts: 3, LockDuration: time.Hour, Escalating: true, Factor: 2, MaxLockDuration: 6 * time.Hour},
			state:          domain.LockState{Attempts: 2, LockCount: 5},
			expectLocked:   true,
			expectAttempts: 3,
			expectCount:    6,
			expectUntil:    timePtr(now.Add(6 * time.Hour)),
		},
		{
			name:           "single attempt threshold",
			config:         LockoutConfig{MaxAttempts: 1, LockDuration: time.Minute},
			state:          domain.LockState{},
			expectLocked:   true,
			expectAttempts: 1,
			expectCount:    1,
			expectUntil:    timePtr(now.Add(time.Minute)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := NewLockoutPolicy(tt.config)
			decision := policy.RegisterFailure(tt.state, now)

			assert.Equal(t, tt.expectLocked, decision.Locked)
			assert.Equal(t, tt.expectAttempts, decision.Attempts)
			assert.Equal(t, tt.expectCount, decision.LockCount)
			if tt.expectUntil == nil {
				assert.Nil(t, decision.LockedUntil)
				return
			}
			require.NotNil(t, decision.LockedUntil)
			assert.True(t, tt.expectUntil.Equal(*decision.LockedUntil), "expected %v, got %v", tt.expectUntil, decision.LockedUntil)
		})
	}
}

func TestAttemptPolicy_Remaining(t *testing.T) {
	policy := NewLockoutPolicy(LockoutConfig{MaxAttempts: 3, LockDuration: time.Hour})

	assert.Equal(t, 3, policy.MaxAttempts())
	assert.Equal(t, 3, policy.Remaining(domain.LockState{}))
	assert.Equal(t, 1, policy.Remaining(domain.LockState{Attempts: 2}))
	assert.Equal(t, 0, policy.Remaining(domain.LockState{Attempts: 5}))
}

func TestAttemptPolicy_InvalidThresholdFallsBackToOne(t *testing.T) {
	policy := NewLockoutPolicy(LockoutConfig{MaxAttempts: 0, LockDuration: time.Hour})
	assert.Equal(t, 1, policy.MaxAttempts())
}

func timePtr(t time.Time) *time.Time {
	return &t
}
