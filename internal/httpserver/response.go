package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

// writeError maps a domain error onto a status code and a JSON body.
func (h *handlers) writeError(c *gin.Context, err error) {
	body := gin.H{}
	status := http.StatusInternalServerError
	code := "internal_error"

	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		status, code = http.StatusBadRequest, "validation_failed"
		body["field"] = vErr.Field
	case errors.Is(err, domain.ErrValidation):
		status, code = http.StatusBadRequest, "validation_failed"
	case errors.Is(err, domain.ErrEmptyCart):
		status, code = http.StatusBadRequest, "empty_cart"
	case errors.Is(err, domain.ErrDuplicateEmail):
		status, code = http.StatusConflict, "duplicate_email"
	case errors.Is(err, domain.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, domain.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	}

	body["error"] = code
	if status == http.StatusInternalServerError {
		h.logger.Error("http: request failed", zap.String("route", routeOf(c)), zap.Error(err))
		body["message"] = "internal error"
	} else {
		body["message"] = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}

func (h *handlers) badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_body", "message": err.Error()})
}

type sessionResponse struct {
	Identity *domain.Identity `json:"identity"`
	Cart     domain.CartView  `json:"cart"`
}

type lineResponse struct {
	Line *domain.CartLine `json:"line"`
	Cart domain.CartView  `json:"cart"`
}
