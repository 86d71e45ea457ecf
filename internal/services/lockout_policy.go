package services

import (
	"math"
	"time"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// LockoutConfig configures AttemptPolicy
type LockoutConfig struct {
	MaxAttempts  int
	LockDuration time.Duration
	// Escalating multiplies LockDuration by Factor for every consecutive lock
	Escalating      bool
	Factor          float64
	MaxLockDuration time.Duration
}

// AttemptPolicy implements domain.LockoutPolicy
type AttemptPolicy struct {
	config LockoutConfig
}

// NewLockoutPolicy creates a lockout policy
func NewLockoutPolicy(config LockoutConfig) domain.LockoutPolicy {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &AttemptPolicy{config: config}
}

// MaxAttempts implements domain.LockoutPolicy
func (p *AttemptPolicy) MaxAttempts() int {
	return p.config.MaxAttempts
}

// RegisterFailure implements domain.LockoutPolicy
func (p *AttemptPolicy) RegisterFailure(state domain.LockState, now time.Time) domain.LockDecision {
	// A running lock is never extended or reset by further submissions
	if state.LockedAt(now) {
		return domain.LockDecision{
			Locked:      true,
			Attempts:    state.Attempts,
			LockedUntil: state.LockedUntil,
			LockCount:   state.LockCount,
		}
	}

	attempts := state.Attempts + 1
	if attempts < p.config.MaxAttempts {
		return domain.LockDecision{Attempts: attempts, LockCount: state.LockCount}
	}

	count := state.LockCount + 1
	until := now.Add(p.lockDuration(count))
	return domain.LockDecision{
		Locked:      true,
		Attempts:    attempts,
		LockedUntil: &until,
		LockCount:   count,
	}
}

// Remaining implements domain.LockoutPolicy
func (p *AttemptPolicy) Remaining(state domain.LockState) int {
	if left := p.config.MaxAttempts - state.Attempts; left > 0 {
		return left
	}
	return 0
}

func (p *AttemptPolicy) lockDuration(lockCount int) time.Duration {
	d := p.config.LockDuration
	if !p.config.Escalating || lockCount <= 1 || p.config.Factor <= 1 {
		return d
	}
	scaled := float64(d) * math.Pow(p.config.Factor, float64(lockCount-1))
	if p.config.MaxLockDuration > 0 && scaled > float64(p.config.MaxLockDuration) {
		return p.config.MaxLockDuration
	}
	return time.Duration(scaled)
}
