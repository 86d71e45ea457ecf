package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/http/middleware"
	"github.com/armin-soft/Fit-Master-sub001/internal/login"
)

// LoginHandlers drive the mounted login views of one role
type LoginHandlers struct {
	manager *login.Manager
	role    domain.Role
}

// NewLoginHandlers creates new login view handlers
func NewLoginHandlers(manager *login.Manager, role domain.Role) *LoginHandlers {
	return &LoginHandlers{manager: manager, role: role}
}

// PhoneRequest represents a phone submission
type PhoneRequest struct {
	Phone      string `json:"phone" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// CodeRequest represents a code submission
type CodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// Mount handles GET, a page load. It replaces any view the client had.
func (h *LoginHandlers) Mount(c *gin.Context) {
	_, snap, err := h.manager.Mount(c.Request.Context(), h.role, middleware.ClientID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mount login view"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snap})
}

// State handles GET state and renders the current view
func (h *LoginHandlers) State(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ctrl.Snapshot()})
}

// CanSubmit handles GET can-submit?phone=
func (h *LoginHandlers) CanSubmit(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"canSubmit": ctrl.CanSubmitPhone(c.Request.Context(), c.Query("phone")),
	}})
}

// SubmitPhone handles POST phone
func (h *LoginHandlers) SubmitPhone(c *gin.Context) {
	var req PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_request"})
		return
	}
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	snap, err := ctrl.SubmitPhone(c.Request.Context(), req.Phone, req.RememberMe)
	respond(c, snap, err)
}

// SubmitCode handles POST code
func (h *LoginHandlers) SubmitCode(c *gin.Context) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_request"})
		return
	}
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	snap, err := ctrl.SubmitCode(c.Request.Context(), req.Code)
	respond(c, snap, err)
}

// Resend handles POST resend
func (h *LoginHandlers) Resend(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	snap, err := ctrl.Resend(c.Request.Context())
	respond(c, snap, err)
}

// ChangePhone handles POST change-phone
func (h *LoginHandlers) ChangePhone(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	snap, err := ctrl.ChangePhone(c.Request.Context())
	respond(c, snap, err)
}

// Logout handles POST logout
func (h *LoginHandlers) Logout(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	snap, err := ctrl.Logout(c.Request.Context())
	respond(c, snap, err)
}

// Unmount handles DELETE, the view being closed
func (h *LoginHandlers) Unmount(c *gin.Context) {
	h.manager.Unmount(h.role, middleware.ClientID(c))
	c.Status(http.StatusNoContent)
}

func (h *LoginHandlers) controller(c *gin.Context) (*login.Controller, bool) {
	ctrl, ok := h.manager.Get(h.role, middleware.ClientID(c))
	if !ok {
		middleware.AbortWithError(c, domain.ErrUnmounted)
		return nil, false
	}
	return ctrl, true
}

func respond(c *gin.Context, snap login.Snapshot, err error) {
	if err != nil {
		body := middleware.ErrorBody(err)
		body["data"] = snap
		c.JSON(middleware.StatusOf(err), body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snap})
}
