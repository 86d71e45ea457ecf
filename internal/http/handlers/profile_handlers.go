package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/http/middleware"
)

// ProfileHandlers serve the protected profile routes
type ProfileHandlers struct {
	identities domain.IdentityRegistry
}

// NewProfileHandlers creates new profile handlers
func NewProfileHandlers(identities domain.IdentityRegistry) *ProfileHandlers {
	return &ProfileHandlers{identities: identities}
}

// Me returns the profile of the logged in identity of role. It must run
// behind RequireLoginMW.
func (h *ProfileHandlers) Me(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := h.identities.Profile(c.Request.Context(), role, c.GetString(middleware.LoginPhoneKey))
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": profile})
	}
}
