// Package login implements the phone and one-time code login flow shared by
// the trainer and student views. A Controller is one mounted login view.
package login

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/digits"
	"github.com/armin-soft/Fit-Master-sub001/internal/services"
)

const (
	maxPhoneDigits   = 11
	defaultTick      = time.Second
	defaultStoreWait = 10 * time.Second
)

// Config is the per-role behaviour of a controller
type Config struct {
	Role           domain.Role
	CodeLength     int
	ResendCooldown time.Duration
	RememberMeTTL  time.Duration
	// TickInterval drives the lock and resend countdowns
	TickInterval time.Duration
	StoreTimeout time.Duration
}

// Deps are the collaborators of a controller
type Deps struct {
	Store      domain.SessionStore
	Ledger     domain.LockoutLedger
	KV         domain.KeyValueStore
	Policy     domain.LockoutPolicy
	Identities domain.IdentityRegistry
	Codes      domain.CodeService
	Events     domain.EventPublisher
	Clock      clockwork.Clock
	Logger     *zap.Logger
}

type session struct {
	phase               domain.Phase
	phone               string
	code                string
	attempts            int
	lockedUntil         *time.Time
	rememberMeRequested bool
	rememberMeExpiry    *time.Time
	resendAt            time.Time
	profile             *domain.Profile
	notice              string
	err                 error
}

// Controller drives one login view through Phone, CodeSent, Locked and
// Authenticated. All methods are safe for concurrent use.
type Controller struct {
	clientID string
	cfg      Config
	deps     Deps
	keys     domain.StorageKeys
	log      *zap.Logger

	mu      sync.Mutex
	s       session
	gen     uint64
	mounted bool
	closed  bool

	stopTimer context.CancelFunc
	lastOp    chan struct{}
	timers    sync.WaitGroup
}

// New creates an unmounted controller for clientID
func New(clientID string, cfg Config, deps Deps) *Controller {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTick
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreWait
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Controller{
		clientID: clientID,
		cfg:      cfg,
		deps:     deps,
		keys:     domain.KeysFor(cfg.Role),
		log:      deps.Logger.With(zap.String("role", string(cfg.Role)), zap.String("client_id", clientID)),
		s:        session{phase: domain.PhasePhone},
	}
}

// Role returns the role of the controller
func (c *Controller) Role() domain.Role { return c.cfg.Role }

// ClientID returns the client the controller belongs to
func (c *Controller) ClientID() string { return c.clientID }

// Snapshot returns the current view state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// CanSubmitPhone reports whether the phone form may be submitted with phone
func (c *Controller) CanSubmitPhone(ctx context.Context, phone string) bool {
	phone = digits.Normalize(phone)
	if c.cfg.Role == domain.RoleStudent {
		return len(phone) == maxPhoneDigits
	}
	match, err := services.Lookup(ctx, c.deps.Identities, c.cfg.Role, phone)
	return err == nil && match == domain.MatchActive
}

// SubmitPhone validates phone against the identity registry and dispatches a code
func (c *Controller) SubmitPhone(ctx context.Context, phone string, rememberMe bool) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkPhase(domain.PhasePhone); err != nil {
		return c.fail(err)
	}
	c.s.err = nil
	c.s.notice = ""

	phone = digits.Normalize(phone)
	if phone == "" || len(phone) > maxPhoneDigits {
		return c.fail(domain.ErrInvalidPhone)
	}
	if locked, err := c.lockedByLedger(ctx); err != nil || locked {
		if err == nil {
			err = domain.ErrLocked
		}
		return c.fail(err)
	}

	match, err := services.Lookup(ctx, c.deps.Identities, c.cfg.Role, phone)
	if err != nil {
		return c.fail(fmt.Errorf("failed to check phone: %w", err))
	}
	switch match {
	case domain.MatchInactive:
		c.publish(domain.NewAuthEvent(domain.AccessDeniedEvent, c.cfg.Role, c.clientID, c.now()).WithPhone(phone))
		return c.fail(domain.ErrAccountDisabled)
	case domain.MatchNone:
		return c.fail(domain.ErrPhoneNotAllowed)
	}

	if err := c.checkThrottle(ctx, phone); err != nil {
		return c.fail(err)
	}
	dispatch, err := c.deps.Codes.Send(ctx, c.cfg.Role, phone)
	if err != nil {
		return c.fail(err)
	}

	c.transition(domain.PhaseCodeSent)
	c.s.phone = phone
	c.s.code = ""
	c.s.rememberMeRequested = rememberMe
	c.s.resendAt = c.resendDeadline(dispatch)
	c.startResendTimer()
	c.rememberChoice(ctx, phone, rememberMe)

	gen := c.gen
	c.enqueue("save_step", func(ctx context.Context) (func(), error) {
		return nil, c.deps.Store.SaveStep(ctx, domain.LoginStepCode, phone)
	}, gen)
	c.publish(domain.NewAuthEvent(domain.CodeSentEvent, c.cfg.Role, c.clientID, c.now()).WithPhone(phone))

	return c.snapshotLocked(), nil
}

// SubmitCode checks code. A correct code authenticates, a wrong one counts
// towards the lock threshold.
func (c *Controller) SubmitCode(ctx context.Context, code string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkPhase(domain.PhaseCodeSent); err != nil {
		return c.fail(err)
	}
	c.s.err = nil

	code = digits.Normalize(code)
	c.s.code = code
	if c.cfg.CodeLength > 0 && len(code) != c.cfg.CodeLength {
		return c.fail(domain.ErrInvalidCodeInput)
	}

	// Another tab may have locked this client since the code was sent
	state, err := c.deps.Ledger.Load(ctx)
	if err != nil {
		return c.fail(fmt.Errorf("failed to read lockout ledger: %w", err))
	}
	now := c.now()
	if state.LockedAt(now) {
		c.enterLocked(*state.LockedUntil, state.Attempts)
		return c.fail(domain.ErrLocked)
	}

	ok, err := c.deps.Codes.Verify(ctx, c.cfg.Role, c.s.phone, code)
	if err != nil {
		return c.fail(fmt.Errorf("failed to verify code: %w", err))
	}
	if ok {
		c.authenticate(ctx, now)
		return c.snapshotLocked(), nil
	}

	state.Attempts = c.s.attempts
	decision := c.deps.Policy.RegisterFailure(state, now)
	if err := c.deps.Ledger.Save(ctx, decision.State()); err != nil {
		c.log.Warn("could not persist failed attempt", zap.Error(err))
	}

	if decision.Locked {
		c.enterLocked(*decision.LockedUntil, decision.Attempts)
		c.publish(domain.NewAuthEvent(domain.LockedEvent, c.cfg.Role, c.clientID, now).
			WithPhone(c.s.phone).
			WithMetadata("locked_until", decision.LockedUntil.UTC().Format(time.RFC3339)).
			WithMetadata("lock_count", decision.LockCount))
		return c.fail(domain.ErrLocked)
	}

	c.s.attempts = decision.Attempts
	c.s.code = ""
	remaining := c.deps.Policy.Remaining(decision.State())
	c.publish(domain.NewAuthEvent(domain.LoginFailedEvent, c.cfg.Role, c.clientID, now).
		WithPhone(c.s.phone).
		WithMetadata("attempts", decision.Attempts))
	return c.fail(fmt.Errorf("%w: %d attempts remaining", domain.ErrInvalidCode, remaining))
}

// Resend dispatches a new code once the resend countdown reached zero
func (c *Controller) Resend(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkPhase(domain.PhaseCodeSent); err != nil {
		return c.fail(err)
	}
	c.s.err = nil
	if c.resendCountdown() > 0 {
		return c.fail(domain.ErrResendTooSoon)
	}
	if err := c.checkThrottle(ctx, c.s.phone); err != nil {
		return c.fail(err)
	}

	dispatch, err := c.deps.Codes.Send(ctx, c.cfg.Role, c.s.phone)
	if err != nil {
		return c.fail(err)
	}
	c.s.code = ""
	c.s.resendAt = c.resendDeadline(dispatch)
	c.startResendTimer()
	c.publish(domain.NewAuthEvent(domain.CodeSentEvent, c.cfg.Role, c.clientID, c.now()).
		WithPhone(c.s.phone).
		WithMetadata("resend", true))

	return c.snapshotLocked(), nil
}

// ChangePhone abandons the sent code and returns to the phone form
func (c *Controller) ChangePhone(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkPhase(domain.PhaseCodeSent); err != nil {
		return c.fail(err)
	}
	c.transition(domain.PhasePhone)
	c.s.code = ""
	c.s.err = nil
	c.s.resendAt = time.Time{}
	c.enqueue("clear_step", func(ctx context.Context) (func(), error) {
		return nil, c.deps.Store.ClearStep(ctx)
	}, c.gen)

	return c.snapshotLocked(), nil
}

// Logout clears the session in any phase. A running lock is kept.
func (c *Controller) Logout(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted {
		return c.snapshotLocked(), domain.ErrUnmounted
	}
	c.clearSession(ctx)
	if c.s.phase != domain.PhaseLocked {
		c.transition(domain.PhasePhone)
		c.s.resendAt = time.Time{}
	}
	c.s.err = nil
	c.s.notice = ""
	c.publish(domain.NewAuthEvent(domain.LoggedOutEvent, c.cfg.Role, c.clientID, c.now()))

	return c.snapshotLocked(), nil
}

// Unmount stops the timers and drops the results of calls still in flight.
// Calls already queued against the session store still run.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.mounted = false
	c.gen++
	c.cancelTimer()
}

// Wait blocks until the queued session store calls finished. After Unmount
// it also waits for the timer goroutines.
func (c *Controller) Wait() {
	c.mu.Lock()
	for c.lastOp != nil {
		last := c.lastOp
		c.mu.Unlock()
		// ops run in order, so the newest one closes last
		<-last
		c.mu.Lock()
		if c.lastOp == last {
			break
		}
	}
	closed := c.closed
	c.mu.Unlock()
	if closed {
		c.timers.Wait()
	}
}

func (c *Controller) authenticate(ctx context.Context, now time.Time) {
	if err := c.deps.Ledger.Reset(ctx); err != nil {
		c.log.Warn("could not clear lockout ledger", zap.Error(err))
	}
	c.transition(domain.PhaseAuthenticated)
	c.s.attempts = 0
	c.s.lockedUntil = nil
	c.s.code = ""
	c.s.resendAt = time.Time{}

	phone := c.s.phone
	rememberMe := c.s.rememberMeRequested
	if rememberMe {
		expiry := now.Add(c.cfg.RememberMeTTL).UTC()
		c.s.rememberMeExpiry = &expiry
		c.setKV(ctx, c.keys.RememberMeExpiry, expiry.Format(time.RFC3339Nano))
	}
	c.loadProfile(ctx, phone)

	gen := c.gen
	c.enqueue("login", func(ctx context.Context) (func(), error) {
		result, err := c.deps.Store.Login(ctx, domain.LoginRequest{Phone: phone, RememberMe: rememberMe})
		if err != nil || result == nil || result.RememberMeExpiry == nil {
			return nil, err
		}
		return func() { c.s.rememberMeExpiry = result.RememberMeExpiry }, nil
	}, gen)
	c.publish(domain.NewAuthEvent(domain.LoginSucceededEvent, c.cfg.Role, c.clientID, now).
		WithPhone(phone).
		WithMetadata("remember_me", rememberMe))
}

func (c *Controller) clearSession(ctx context.Context) {
	c.deleteKV(ctx, c.keys.RememberMeExpiry, c.keys.RememberMeEnabled)
	c.s.rememberMeExpiry = nil
	c.s.rememberMeRequested = false
	c.s.profile = nil
	c.s.code = ""
	c.enqueue("logout", func(ctx context.Context) (func(), error) {
		return nil, c.deps.Store.Logout(ctx)
	}, c.gen)
}

func (c *Controller) rememberChoice(ctx context.Context, phone string, rememberMe bool) {
	if !rememberMe {
		c.deleteKV(ctx, c.keys.RememberMeEnabled)
		return
	}
	c.setKV(ctx, c.keys.RememberMeEnabled, "true")
	if c.keys.RememberedPhone != "" {
		c.setKV(ctx, c.keys.RememberedPhone, phone)
	}
}

func (c *Controller) loadProfile(ctx context.Context, phone string) {
	profile, err := c.deps.Identities.Profile(ctx, c.cfg.Role, phone)
	if err != nil {
		c.log.Debug("no cached profile", zap.Error(err))
		c.s.profile = nil
		return
	}
	c.s.profile = profile
}

// checkPhase rejects an action that does not belong to the current phase
func (c *Controller) checkPhase(want domain.Phase) error {
	if !c.mounted {
		return domain.ErrUnmounted
	}
	if c.s.phase == want {
		return nil
	}
	if c.s.phase == domain.PhaseLocked {
		return domain.ErrLocked
	}
	return domain.ErrInvalidPhase
}

// checkThrottle asks the code service whether phone may get another code.
// The cooldown is shared by every view of the same phone.
func (c *Controller) checkThrottle(ctx context.Context, phone string) error {
	ok, wait, err := c.deps.Codes.CanResend(ctx, c.cfg.Role, phone)
	if err != nil {
		return fmt.Errorf("failed to check resend throttle: %w", err)
	}
	if ok {
		return nil
	}
	if c.s.phase == domain.PhaseCodeSent {
		c.s.resendAt = c.now().Add(time.Duration(wait) * time.Second)
		c.startResendTimer()
	}
	return fmt.Errorf("%w: %d seconds remaining", domain.ErrResendTooSoon, wait)
}

func (c *Controller) lockedByLedger(ctx context.Context) (bool, error) {
	state, err := c.deps.Ledger.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read lockout ledger: %w", err)
	}
	if !state.LockedAt(c.now()) {
		return false, nil
	}
	c.enterLocked(*state.LockedUntil, state.Attempts)
	return true, nil
}

func (c *Controller) fail(err error) (Snapshot, error) {
	if !errors.Is(err, domain.ErrUnmounted) {
		c.s.err = err
	}
	if domain.KindOf(err) == domain.KindTransport {
		c.log.Warn("login action failed", zap.Error(err))
	}
	return c.snapshotLocked(), err
}

// transition moves to phase and invalidates every pending timer and result
func (c *Controller) transition(phase domain.Phase) {
	c.gen++
	c.cancelTimer()
	c.s.phase = phase
	if phase != domain.PhaseLocked {
		c.s.lockedUntil = nil
	}
}

func (c *Controller) now() time.Time {
	return c.deps.Clock.Now()
}

func (c *Controller) resendDeadline(dispatch *domain.CodeDispatch) time.Time {
	if dispatch != nil && !dispatch.ResendAt.IsZero() {
		return dispatch.ResendAt
	}
	return c.now().Add(c.cfg.ResendCooldown)
}

func (c *Controller) resendCountdown() int {
	if c.s.phase != domain.PhaseCodeSent || c.s.resendAt.IsZero() {
		return 0
	}
	return ceilSeconds(c.s.resendAt.Sub(c.now()))
}

func (c *Controller) setKV(ctx context.Context, key, value string) {
	if c.deps.KV == nil {
		return
	}
	if err := c.deps.KV.Set(ctx, key, value); err != nil {
		c.log.Warn("could not write client storage", zap.String("key", key), zap.Error(err))
	}
}

func (c *Controller) deleteKV(ctx context.Context, keys ...string) {
	if c.deps.KV == nil {
		return
	}
	if err := c.deps.KV.Delete(ctx, keys...); err != nil {
		c.log.Warn("could not clear client storage", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (c *Controller) publish(event *domain.AuthEvent) {
	if c.deps.Events == nil {
		return
	}
	c.enqueue("publish", func(ctx context.Context) (func(), error) {
		return nil, c.deps.Events.Publish(ctx, event)
	}, c.gen)
}

// enqueue runs op after every previously queued op. The returned apply func,
// if any, runs under the lock only while gen is still current.
func (c *Controller) enqueue(name string, op func(ctx context.Context) (func(), error), gen uint64) {
	prev := c.lastOp
	done := make(chan struct{})
	c.lastOp = done

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.StoreTimeout)
		defer cancel()
		apply, err := op(ctx)
		if err != nil {
			c.log.Warn("session store call failed", zap.String("op", name), zap.Error(err))
			return
		}
		if apply == nil {
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.mounted || c.gen != gen {
			c.log.Debug("dropping stale result", zap.String("op", name))
			return
		}
		apply()
	}()
}
