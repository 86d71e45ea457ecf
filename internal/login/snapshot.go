package login

import (
	"fmt"
	"time"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/digits"
)

// Snapshot is the rendered state of a login view
type Snapshot struct {
	Role                domain.Role      `json:"role"`
	Phase               domain.Phase     `json:"phase"`
	Phone               string           `json:"phone,omitempty"`
	PhoneDisplay        string           `json:"phoneDisplay,omitempty"`
	Attempts            int              `json:"attempts"`
	RemainingAttempts   int              `json:"remainingAttempts"`
	LockedUntil         *time.Time       `json:"lockedUntil,omitempty"`
	LockRemaining       string           `json:"lockRemaining"`
	RememberMeRequested bool             `json:"rememberMeRequested"`
	RememberMeExpiry    *time.Time       `json:"rememberMeExpiry,omitempty"`
	ResendCountdown     int              `json:"resendCountdown"`
	Profile             *domain.Profile  `json:"profile,omitempty"`
	Notice              string           `json:"notice,omitempty"`
	Error               string           `json:"error,omitempty"`
	ErrorKind           domain.ErrorKind `json:"errorKind,omitempty"`
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Role:                c.cfg.Role,
		Phase:               c.s.phase,
		Phone:               c.s.phone,
		PhoneDisplay:        digits.ToPersian(c.s.phone),
		Attempts:            c.s.attempts,
		RememberMeRequested: c.s.rememberMeRequested,
		ResendCountdown:     c.resendCountdown(),
		Profile:             c.s.profile,
		Notice:              c.s.notice,
		LockRemaining:       "0",
	}
	if c.deps.Policy != nil {
		snap.RemainingAttempts = c.deps.Policy.Remaining(domain.LockState{Attempts: c.s.attempts})
	}
	if c.s.lockedUntil != nil {
		until := *c.s.lockedUntil
		snap.LockedUntil = &until
	}
	if c.s.phase == domain.PhaseLocked && c.s.lockedUntil != nil {
		snap.LockRemaining = FormatRemaining(c.s.lockedUntil.Sub(c.now()))
	}
	if c.s.rememberMeExpiry != nil {
		expiry := *c.s.rememberMeExpiry
		snap.RememberMeExpiry = &expiry
	}
	if c.s.err != nil {
		snap.Error = c.s.err.Error()
		snap.ErrorKind = domain.KindOf(c.s.err)
	}
	return snap
}

// FormatRemaining renders the time left on a running lock as HH:MM:SS,
// rounding partial seconds up
func FormatRemaining(d time.Duration) string {
	secs := ceilSeconds(d)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}
