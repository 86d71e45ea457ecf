package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/services"
)

const (
	// RoleKey holds the authenticated role in the gin context
	RoleKey = "role"
	// LoginPhoneKey holds the phone the client logged in with
	LoginPhoneKey = "login_phone"
)

// RequireLoginMW guards protected routes with the session store status and
// the casbin route policies
type RequireLoginMW struct {
	store      *services.SessionStoreService
	identities domain.IdentityRegistry
	policy     domain.PolicyService
	logger     *zap.Logger
}

// NewRequireLoginMW creates new login guard middleware wrapper
func NewRequireLoginMW(store *services.SessionStoreService, identities domain.IdentityRegistry, policy domain.PolicyService, logger *zap.Logger) *RequireLoginMW {
	return &RequireLoginMW{store: store, identities: identities, policy: policy, logger: logger}
}

// For returns the guard of role
func (mw *RequireLoginMW) For(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		clientID := ClientID(c)

		status, err := mw.store.Status(ctx, role, clientID)
		if err != nil {
			mw.logger.Warn("status check failed", zap.String("role", string(role)), zap.Error(err))
			AbortWithError(c, domain.ErrStoreUnavailable)
			return
		}
		if !status.IsLoggedIn {
			AbortWithError(c, domain.ErrNotLoggedIn)
			return
		}

		// students can be deactivated while logged in
		if role == domain.RoleStudent {
			match, err := services.Lookup(ctx, mw.identities, role, status.LoginPhone)
			if err != nil {
				AbortWithError(c, domain.ErrStoreUnavailable)
				return
			}
			if match != domain.MatchActive {
				if err := mw.store.Logout(ctx, role, clientID); err != nil {
					mw.logger.Warn("failed to log out disabled student", zap.Error(err))
				}
				AbortWithError(c, domain.ErrAccountDisabled)
				return
			}
		}

		allowed, err := mw.policy.CheckPermission(role, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			mw.logger.Error("policy check failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authorization check failed"})
			return
		}
		if !allowed {
			AbortWithError(c, domain.ErrUnauthorized)
			return
		}

		c.Set(RoleKey, role)
		c.Set(LoginPhoneKey, status.LoginPhone)
		c.Next()
	}
}
