package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/http/middleware"
	"github.com/armin-soft/Fit-Master-sub001/internal/services"
)

// SessionHandlers serve the session store API of one role
type SessionHandlers struct {
	store *services.SessionStoreService
	role  domain.Role
}

// NewSessionHandlers creates new session store handlers
func NewSessionHandlers(store *services.SessionStoreService, role domain.Role) *SessionHandlers {
	return &SessionHandlers{store: store, role: role}
}

// SessionLoginRequest represents a session login request. Students send
// the phone they verified, the trainer may omit it.
type SessionLoginRequest struct {
	Phone      string `json:"phone"`
	RememberMe bool   `json:"rememberMe"`
}

// LoginStepRequest represents a login step update
type LoginStepRequest struct {
	Step  string `json:"step" binding:"required"`
	Phone string `json:"phone"`
}

// Status handles GET status
func (h *SessionHandlers) Status(c *gin.Context) {
	status, err := h.store.Status(c.Request.Context(), h.role, middleware.ClientID(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Login handles POST login
func (h *SessionHandlers) Login(c *gin.Context) {
	var req SessionLoginRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_request"})
			return
		}
	}
	if h.role == domain.RoleStudent && req.Phone == "" {
		middleware.AbortWithError(c, domain.ErrInvalidPhone)
		return
	}

	result, err := h.store.Login(c.Request.Context(), h.role, middleware.ClientID(c), domain.LoginRequest{
		Phone:      req.Phone,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Resume handles POST resume
func (h *SessionHandlers) Resume(c *gin.Context) {
	result, err := h.store.Resume(c.Request.Context(), h.role, middleware.ClientID(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SaveStep handles POST login-step
func (h *SessionHandlers) SaveStep(c *gin.Context) {
	var req LoginStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_request"})
		return
	}
	err := h.store.SaveStep(c.Request.Context(), h.role, middleware.ClientID(c), domain.LoginStep(req.Step), req.Phone)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearStep handles DELETE login-step
func (h *SessionHandlers) ClearStep(c *gin.Context) {
	if err := h.store.ClearStep(c.Request.Context(), h.role, middleware.ClientID(c)); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Logout handles POST logout
func (h *SessionHandlers) Logout(c *gin.Context) {
	if err := h.store.Logout(c.Request.Context(), h.role, middleware.ClientID(c)); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
