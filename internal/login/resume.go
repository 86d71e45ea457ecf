package login

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/services"
)

// Mount runs the session resumption guard and decides which form the view
// starts with. It never fails: whatever cannot be read falls back to Phone.
func (c *Controller) Mount(ctx context.Context) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.s.err = domain.ErrUnmounted
		return c.snapshotLocked()
	}
	if c.mounted {
		return c.snapshotLocked()
	}
	c.mounted = true
	c.gen++

	status, known := c.loadStatus(ctx)
	now := c.now()

	state, err := c.deps.Ledger.Load(ctx)
	if err != nil {
		c.log.Warn("could not read lockout ledger", zap.Error(err))
		state = domain.LockState{}
	}
	c.s.attempts = state.Attempts

	if status.IsLoggedIn {
		if !c.stillActive(ctx, status.LoginPhone) {
			return c.snapshotLocked()
		}
		c.resumeAuthenticated(ctx, status.LoginPhone, status.RememberMeExpiry)
		return c.snapshotLocked()
	}

	if state.LockedAt(now) {
		c.enterLocked(*state.LockedUntil, state.Attempts)
		return c.snapshotLocked()
	}
	if state.LockedUntil != nil {
		if err := c.deps.Ledger.ClearLock(ctx); err != nil {
			c.log.Warn("could not clear expired lock", zap.Error(err))
		}
		c.s.attempts = 0
	}

	// an unknown status never resumes a session, the ledger is still honored
	if !known {
		return c.snapshotLocked()
	}

	expiry := status.RememberMeExpiry
	if expiry == nil {
		expiry = c.localRememberMeExpiry(ctx)
	}
	switch {
	case expiry != nil && now.Before(*expiry):
		phone := c.rememberedPhone(ctx, status.LoginPhone)
		if !c.stillActive(ctx, phone) {
			return c.snapshotLocked()
		}
		c.resumeAuthenticated(ctx, phone, expiry)
		gen := c.gen
		c.enqueue("resume", c.resumeOp(), gen)
	case expiry != nil:
		c.deleteKV(ctx, c.keys.RememberMeExpiry, c.keys.RememberMeEnabled)
	}

	// A persisted loginStep is not restored, the form always starts on Phone.
	return c.snapshotLocked()
}

// loadStatus maps any failure of the status query to the empty status.
// known is false when the store could not answer.
func (c *Controller) loadStatus(ctx context.Context) (status domain.AuthStatus, known bool) {
	st, err := c.deps.Store.Status(ctx)
	if err != nil {
		c.log.Warn("status check failed, starting logged out", zap.Error(err))
		return domain.AuthStatus{}, false
	}
	if st == nil {
		return domain.AuthStatus{}, false
	}
	return *st, true
}

// stillActive re-checks a student identity. An inactive or unknown student
// is logged out and shown the phone form with an access denied notice.
func (c *Controller) stillActive(ctx context.Context, phone string) bool {
	if c.cfg.Role != domain.RoleStudent {
		return true
	}
	match, err := services.Lookup(ctx, c.deps.Identities, c.cfg.Role, phone)
	if err != nil {
		c.log.Warn("could not re-check student", zap.Error(err))
		c.s.err = fmt.Errorf("failed to check student: %w", err)
		return false
	}
	if match == domain.MatchActive {
		return true
	}
	c.deny(ctx, phone)
	return false
}

func (c *Controller) deny(ctx context.Context, phone string) {
	c.clearSession(ctx)
	c.transition(domain.PhasePhone)
	c.s.err = domain.ErrAccountDisabled
	c.s.notice = "access denied: this account is disabled"
	c.publish(domain.NewAuthEvent(domain.AccessDeniedEvent, c.cfg.Role, c.clientID, c.now()).
		WithPhone(phone).
		WithMessage(c.s.notice))
}

func (c *Controller) resumeAuthenticated(ctx context.Context, phone string, expiry *time.Time) {
	c.transition(domain.PhaseAuthenticated)
	c.s.phone = phone
	c.s.attempts = 0
	c.s.lockedUntil = nil
	if expiry != nil {
		e := *expiry
		c.s.rememberMeExpiry = &e
	}
	c.loadProfile(ctx, phone)

	c.s.notice = "welcome back"
	if c.s.profile != nil && c.s.profile.Name != "" {
		c.s.notice = "welcome back, " + c.s.profile.Name
	}
	c.publish(domain.NewAuthEvent(domain.WelcomeBackEvent, c.cfg.Role, c.clientID, c.now()).
		WithPhone(phone).
		WithMessage(c.s.notice))
}

// resumeOp asks the store to restore isLoggedIn. A denial from the store
// takes the view back to Phone, a transport failure does not.
func (c *Controller) resumeOp() func(ctx context.Context) (func(), error) {
	return func(ctx context.Context) (func(), error) {
		result, err := c.deps.Store.Resume(ctx)
		if err != nil {
			if domain.KindOf(err) != domain.KindAccess {
				return nil, err
			}
			c.log.Info("remember-me rejected by session store", zap.Error(err))
			return func() {
				c.deleteKV(ctx, c.keys.RememberMeExpiry, c.keys.RememberMeEnabled)
				c.transition(domain.PhasePhone)
				c.s.rememberMeExpiry = nil
				c.s.profile = nil
				c.s.notice = ""
				c.s.err = err
			}, nil
		}
		if result == nil || result.RememberMeExpiry == nil {
			return nil, nil
		}
		return func() { c.s.rememberMeExpiry = result.RememberMeExpiry }, nil
	}
}

func (c *Controller) localRememberMeExpiry(ctx context.Context) *time.Time {
	if c.deps.KV == nil {
		return nil
	}
	raw, ok, err := c.deps.KV.Get(ctx, c.keys.RememberMeExpiry)
	if err != nil || !ok {
		return nil
	}
	expiry, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		// unparseable values are dropped like expired ones
		return &time.Time{}
	}
	return &expiry
}

func (c *Controller) rememberedPhone(ctx context.Context, phone string) string {
	if phone != "" || c.keys.RememberedPhone == "" || c.deps.KV == nil {
		return phone
	}
	raw, ok, err := c.deps.KV.Get(ctx, c.keys.RememberedPhone)
	if err != nil || !ok {
		return phone
	}
	return raw
}
