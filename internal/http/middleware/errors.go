package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// StatusOf maps an error to the HTTP status it is reported with
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrUnmounted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrStudentNotFound),
		errors.Is(err, domain.ErrTrainerNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPhone),
		errors.Is(err, domain.ErrInvalidCodeInput),
		errors.Is(err, domain.ErrInvalidStep):
		return http.StatusBadRequest
	}

	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	case domain.KindPolicy:
		return http.StatusLocked
	case domain.KindAccess:
		return http.StatusForbidden
	default:
		return http.StatusServiceUnavailable
	}
}

// ErrorBody is the JSON body of an error response
func ErrorBody(err error) gin.H {
	return gin.H{
		"error": err.Error(),
		"code":  domain.CodeOf(err),
		"kind":  domain.KindOf(err),
	}
}

// AbortWithError writes err and stops the handler chain
func AbortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(StatusOf(err), ErrorBody(err))
}
