package login

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// startTicker runs onTick once per TickInterval until it returns true, the
// phase generation changes or the controller is unmounted. Callers hold c.mu.
func (c *Controller) startTicker(onTick func(now time.Time) bool) {
	c.cancelTimer()

	ctx, cancel := context.WithCancel(context.Background())
	c.stopTimer = cancel
	gen := c.gen
	ticker := c.deps.Clock.NewTicker(c.cfg.TickInterval)

	c.timers.Add(1)
	go func() {
		defer c.timers.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				c.mu.Lock()
				if !c.mounted || c.gen != gen {
					c.mu.Unlock()
					return
				}
				done := onTick(c.now())
				c.mu.Unlock()
				if done {
					return
				}
			}
		}
	}()
}

func (c *Controller) cancelTimer() {
	if c.stopTimer != nil {
		c.stopTimer()
		c.stopTimer = nil
	}
}

// startResendTimer counts the resend countdown down to zero
func (c *Controller) startResendTimer() {
	c.startTicker(func(now time.Time) bool {
		return !now.Before(c.s.resendAt)
	})
}

// enterLocked shows the lock screen until until and then returns to Phone
func (c *Controller) enterLocked(until time.Time, attempts int) {
	c.transition(domain.PhaseLocked)
	c.s.lockedUntil = &until
	c.s.attempts = attempts
	c.s.code = ""
	c.s.resendAt = time.Time{}

	c.startTicker(func(now time.Time) bool {
		if now.Before(until) {
			return false
		}
		c.expireLock()
		return true
	})
}

// expireLock clears attempts, lock expiry and the persisted login step once
// the lock ran out. Callers hold c.mu.
func (c *Controller) expireLock() {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.StoreTimeout)
	defer cancel()
	if err := c.deps.Ledger.ClearLock(ctx); err != nil {
		c.log.Warn("could not clear expired lock", zap.Error(err))
	}
	c.gen++
	c.cancelTimer()
	c.s.phase = domain.PhasePhone
	c.s.lockedUntil = nil
	c.s.attempts = 0
	c.s.err = nil
	c.s.code = ""
	c.enqueue("clear_step", func(ctx context.Context) (func(), error) {
		return nil, c.deps.Store.ClearStep(ctx)
	}, c.gen)
	c.log.Info("lock expired")
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
