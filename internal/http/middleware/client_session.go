package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/config"
)

const (
	// ClientIDKey holds the client ID in the gin context
	ClientIDKey = "client_id"
	// ClientTokenHeader returns a freshly issued client token
	ClientTokenHeader = "X-Client-Token"
)

// ClientSessionMW identifies the browser-like client behind a request. A
// client without a valid token gets a new client ID.
type ClientSessionMW struct {
	tokens domain.TokenService
	cookie config.CookieConfig
	ttl    time.Duration
	logger *zap.Logger
}

// NewClientSessionMW creates new client session middleware wrapper
func NewClientSessionMW(tokens domain.TokenService, cookie config.CookieConfig, ttl time.Duration, logger *zap.Logger) *ClientSessionMW {
	return &ClientSessionMW{tokens: tokens, cookie: cookie, ttl: ttl, logger: logger}
}

// WithClient returns the client session middleware function
func (mw *ClientSessionMW) WithClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := mw.token(c); token != "" {
			claims, err := mw.tokens.ValidateClientToken(token)
			if err == nil {
				c.Set(ClientIDKey, claims.ClientID)
				c.Next()
				return
			}
			mw.logger.Debug("discarding client token", zap.Error(err))
		}

		clientID := uuid.NewString()
		token, err := mw.tokens.GenerateClientToken(clientID)
		if err != nil {
			mw.logger.Error("failed to issue client token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to create client session"})
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(mw.cookie.Name, token, int(mw.ttl.Seconds()), "/", mw.cookie.Domain, mw.cookie.Secure, mw.cookie.HTTPOnly)
		c.Header(ClientTokenHeader, token)
		c.Set(ClientIDKey, clientID)
		c.Next()
	}
}

// token prefers the Authorization header over the cookie
func (mw *ClientSessionMW) token(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	token, err := c.Cookie(mw.cookie.Name)
	if err != nil {
		return ""
	}
	return token
}

// ClientID returns the client ID set by WithClient
func ClientID(c *gin.Context) string {
	return c.GetString(ClientIDKey)
}
