package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// KVLockoutLedger implements domain.LockoutLedger over the client-local store
type KVLockoutLedger struct {
	kv   domain.KeyValueStore
	keys domain.StorageKeys
}

// NewLockoutLedger creates a ledger bound to the keys of role
func NewLockoutLedger(kv domain.KeyValueStore, role domain.Role) domain.LockoutLedger {
	return &KVLockoutLedger{kv: kv, keys: domain.KeysFor(role)}
}

// Load implements domain.LockoutLedger. Unparseable values read as zero.
func (l *KVLockoutLedger) Load(ctx context.Context) (domain.LockState, error) {
	var state domain.LockState

	attempts, err := l.readInt(ctx, l.keys.Attempts)
	if err != nil {
		return state, err
	}
	count, err := l.readInt(ctx, l.keys.LockCount)
	if err != nil {
		return state, err
	}
	raw, ok, err := l.kv.Get(ctx, l.keys.LockExpiry)
	if err != nil {
		return state, fmt.Errorf("failed to read lock expiry: %w", err)
	}
	if ok {
		if until, perr := time.Parse(time.RFC3339Nano, raw); perr == nil {
			state.LockedUntil = &until
		}
	}

	state.Attempts = attempts
	state.LockCount = count
	return state, nil
}

// Save implements domain.LockoutLedger
func (l *KVLockoutLedger) Save(ctx context.Context, state domain.LockState) error {
	if err := l.kv.Set(ctx, l.keys.Attempts, strconv.Itoa(state.Attempts)); err != nil {
		return fmt.Errorf("failed to save attempts: %w", err)
	}
	if err := l.kv.Set(ctx, l.keys.LockCount, strconv.Itoa(state.LockCount)); err != nil {
		return fmt.Errorf("failed to save lock count: %w", err)
	}
	if state.LockedUntil == nil {
		if err := l.kv.Delete(ctx, l.keys.LockExpiry); err != nil {
			return fmt.Errorf("failed to clear lock expiry: %w", err)
		}
		return nil
	}
	if err := l.kv.Set(ctx, l.keys.LockExpiry, state.LockedUntil.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to save lock expiry: %w", err)
	}
	return nil
}

// ClearLock implements domain.LockoutLedger
func (l *KVLockoutLedger) ClearLock(ctx context.Context) error {
	if err := l.kv.Delete(ctx, l.keys.Attempts, l.keys.LockExpiry); err != nil {
		return fmt.Errorf("failed to clear lock: %w", err)
	}
	return nil
}

// Reset implements domain.LockoutLedger
func (l *KVLockoutLedger) Reset(ctx context.Context) error {
	if err := l.kv.Delete(ctx, l.keys.Attempts, l.keys.LockExpiry, l.keys.LockCount); err != nil {
		return fmt.Errorf("failed to reset ledger: %w", err)
	}
	return nil
}

func (l *KVLockoutLedger) readInt(ctx context.Context, key string) (int, error) {
	raw, ok, err := l.kv.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}
