package domain

import "errors"

// Validation errors
var (
	ErrInvalidPhone     = errors.New("phone must be at most 11 digits")
	ErrPhoneNotAllowed  = errors.New("phone is not an allowed login phone")
	ErrInvalidCodeInput = errors.New("code has the wrong length")
	ErrInvalidCode      = errors.New("invalid one-time code")
	ErrInvalidStep      = errors.New("invalid login step")
	ErrInvalidPhase     = errors.New("action not allowed in current login phase")
	ErrResendTooSoon    = errors.New("resend is not available yet")
)

// Policy errors
var (
	ErrLocked = errors.New("too many failed attempts, login is locked")
)

// Access errors
var (
	ErrAccountDisabled   = errors.New("account is disabled")
	ErrCodeNotVerified   = errors.New("no verified code for this login")
	ErrRememberMeExpired = errors.New("remember-me session has expired")
	ErrNotLoggedIn       = errors.New("not logged in")
	ErrUnauthorized      = errors.New("unauthorized access")
)

// Transport errors
var (
	ErrStoreUnavailable = errors.New("session store unavailable")
	ErrCodeNotSent      = errors.New("one-time code could not be sent")
	ErrUnmounted        = errors.New("login view is no longer mounted")
)

// Lookup errors
var (
	ErrStudentNotFound = errors.New("student not found")
	ErrTrainerNotFound = errors.New("trainer profile not found")
	ErrRecordNotFound  = errors.New("auth record not found")
	ErrOTPNotFound     = errors.New("otp not found")
)

// Token errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// ErrorKind is the failure taxonomy surfaced by the login view
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindValidation ErrorKind = "validation"
	KindPolicy     ErrorKind = "policy"
	KindAccess     ErrorKind = "access"
	KindTransport  ErrorKind = "transport"
)

// KindOf classifies err. Unknown errors are transport failures.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidPhone),
		errors.Is(err, ErrPhoneNotAllowed),
		errors.Is(err, ErrInvalidCodeInput),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrInvalidStep),
		errors.Is(err, ErrInvalidPhase),
		errors.Is(err, ErrResendTooSoon):
		return KindValidation
	case errors.Is(err, ErrLocked):
		return KindPolicy
	case errors.Is(err, ErrAccountDisabled),
		errors.Is(err, ErrCodeNotVerified),
		errors.Is(err, ErrRememberMeExpired),
		errors.Is(err, ErrNotLoggedIn),
		errors.Is(err, ErrUnauthorized):
		return KindAccess
	default:
		return KindTransport
	}
}

// errorCodes are the stable wire names of the sentinel errors
var errorCodes = []struct {
	code string
	err  error
}{
	{"invalid_phone", ErrInvalidPhone},
	{"phone_not_allowed", ErrPhoneNotAllowed},
	{"invalid_code_input", ErrInvalidCodeInput},
	{"invalid_code", ErrInvalidCode},
	{"invalid_step", ErrInvalidStep},
	{"invalid_phase", ErrInvalidPhase},
	{"resend_too_soon", ErrResendTooSoon},
	{"locked", ErrLocked},
	{"account_disabled", ErrAccountDisabled},
	{"code_not_verified", ErrCodeNotVerified},
	{"remember_me_expired", ErrRememberMeExpired},
	{"not_logged_in", ErrNotLoggedIn},
	{"unauthorized", ErrUnauthorized},
	{"store_unavailable", ErrStoreUnavailable},
	{"code_not_sent", ErrCodeNotSent},
	{"unmounted", ErrUnmounted},
}

// CodeOf returns the wire code of err, or "internal" for unknown errors
func CodeOf(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}

// ErrorForCode returns the sentinel named by code, or nil
func ErrorForCode(code string) error {
	for _, c := range errorCodes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
