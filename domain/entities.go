package domain

import "time"

// Role selects which identity registry and session store endpoints apply
type Role string

const (
	RoleTrainer Role = "trainer"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleTrainer || r == RoleStudent
}

// Subject returns the authorization subject used in RBAC policies
func (r Role) Subject() string {
	return "role_" + string(r)
}

// Phase is the login state machine state
type Phase string

const (
	PhasePhone         Phase = "phone"
	PhaseCodeSent      Phase = "code_sent"
	PhaseLocked        Phase = "locked"
	PhaseAuthenticated Phase = "authenticated"
)

// LoginStep is the mid-flow marker persisted in the session store
type LoginStep string

const (
	LoginStepPhone LoginStep = "phone"
	LoginStepCode  LoginStep = "code"
)

// Valid reports whether s is a known login step
func (s LoginStep) Valid() bool {
	return s == LoginStepPhone || s == LoginStepCode
}

// TrainerProfile is the single admin-configured trainer identity
type TrainerProfile struct {
	ID        uint
	Name      string
	GymName   string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Student is a registered, individually activatable student identity
type Student struct {
	ID        uint
	Name      string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StudentIdentity is the part of a student the login flow needs
type StudentIdentity struct {
	Phone    string
	IsActive bool
}

// IdentitySnapshot is the registry view for one role at lookup time
type IdentitySnapshot struct {
	Role         Role
	TrainerPhone string
	Students     []StudentIdentity
}

// IdentityMatch is the outcome of matching a phone against a snapshot
type IdentityMatch int

const (
	MatchNone IdentityMatch = iota
	MatchActive
	MatchInactive
)

func (m IdentityMatch) String() string {
	switch m {
	case MatchActive:
		return "active"
	case MatchInactive:
		return "inactive"
	default:
		return "none"
	}
}

// Profile is the cached display data shown in the welcome notice
type Profile struct {
	Role  Role   `json:"role"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// AuthRecord is the server-side persisted auth record for one role and client
type AuthRecord struct {
	Role             Role       `json:"role"`
	ClientID         string     `json:"clientId"`
	IsLoggedIn       bool       `json:"isLoggedIn"`
	RememberMeExpiry *time.Time `json:"rememberMeExpiry,omitempty"`
	LoginStep        LoginStep  `json:"loginStep,omitempty"`
	LoginPhone       string     `json:"loginPhone,omitempty"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// AuthStatus is the status response of the session store.
// The zero value means not logged in.
type AuthStatus struct {
	IsLoggedIn       bool       `json:"isLoggedIn"`
	RememberMeExpiry *time.Time `json:"rememberMeExpiry,omitempty"`
	LoginStep        LoginStep  `json:"loginStep,omitempty"`
	LoginPhone       string     `json:"loginPhone,omitempty"`
}

// LoginRequest is sent to the session store after a code was verified
type LoginRequest struct {
	Phone      string `json:"phone,omitempty"`
	RememberMe bool   `json:"rememberMe"`
}

// LoginResult carries the server-issued remember-me expiry, if any
type LoginResult struct {
	RememberMeExpiry *time.Time `json:"rememberMeExpiry,omitempty"`
}

// LockState is the lockout ledger content for one role
type LockState struct {
	Attempts    int
	LockedUntil *time.Time
	LockCount   int
}

// LockedAt reports whether the state holds a lock that is still running at now
func (s LockState) LockedAt(now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// LockDecision is the policy outcome for one failed code submission
type LockDecision struct {
	Locked      bool
	Attempts    int
	LockedUntil *time.Time
	LockCount   int
}

// State returns the ledger state to persist for this decision
func (d LockDecision) State() LockState {
	return LockState{Attempts: d.Attempts, LockedUntil: d.LockedUntil, LockCount: d.LockCount}
}

// CodeDispatch describes a one-time code that was sent
type CodeDispatch struct {
	Role      Role
	Phone     string
	ExpiresAt time.Time
	ResendAt  time.Time
}

// StorageKeys are the client-local persistence keys of one role
type StorageKeys struct {
	Attempts          string
	LockExpiry        string
	LockCount         string
	RememberMeEnabled string
	RememberMeExpiry  string
	RememberedPhone   string
}

// KeysFor returns the role-scoped client-local keys
func KeysFor(role Role) StorageKeys {
	if role == RoleStudent {
		return StorageKeys{
			Attempts:          "studentLoginAttempts",
			LockExpiry:        "studentLoginLockExpiry",
			LockCount:         "studentLoginLockCount",
			RememberMeEnabled: "studentRememberMeEnabled",
			RememberMeExpiry:  "studentRememberMeExpiry",
			RememberedPhone:   "rememberedStudentPhone",
		}
	}
	return StorageKeys{
		Attempts:          "loginAttempts",
		LockExpiry:        "loginLockExpiry",
		LockCount:         "loginLockCount",
		RememberMeEnabled: "rememberMeEnabled",
		RememberMeExpiry:  "rememberMeExpiry",
	}
}

// RoutePolicy grants a role access to a route pattern
type RoutePolicy struct {
	Role     Role
	Resource string
	Action   string
}

// DefaultRoutePolicies are the grants seeded on startup
func DefaultRoutePolicies() []RoutePolicy {
	return []RoutePolicy{
		{Role: RoleTrainer, Resource: "/api/trainer/*", Action: "GET"},
		{Role: RoleStudent, Resource: "/api/student/me", Action: "GET"},
	}
}
