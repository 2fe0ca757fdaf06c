package server

import (
	"errors"
	"net/http"

	cmsclient "github.com/entremotivator/rentalappp1/internal/cms"
	commercedomain "github.com/entremotivator/rentalappp1/internal/commerce/domain"
	identitydomain "github.com/entremotivator/rentalappp1/internal/identity/domain"
	propertydomain "github.com/entremotivator/rentalappp1/internal/property/domain"
	"github.com/entremotivator/rentalappp1/internal/session"
	usagedomain "github.com/entremotivator/rentalappp1/internal/usage/domain"
	"github.com/gin-gonic/gin"
)

// APIError is the uniform error body for every non-2xx response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

var (
	ErrUnauthorized = &APIError{
		Status:  http.StatusUnauthorized,
		Code:    "unauthorized",
		Message: "authentication required",
	}
	ErrNotFound = &APIError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: "resource not found",
	}
	ErrTooManyRequests = &APIError{
		Status:  http.StatusTooManyRequests,
		Code:    "rate_limited",
		Message: "too many requests",
	}
	ErrServiceUnavailable = &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "service_unavailable",
		Message: "a required collaborator is unavailable",
	}
)

func invalidRequestError() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body could not be parsed",
	}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
		Field:   field,
	}
}

// AbortWithError maps domain sentinels onto HTTP statuses and writes the
// uniform error body. Unknown errors become opaque 500s; their detail stays
// in the logs, not the response.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, apiErr)
		return
	}

	switch {
	case errors.Is(err, usagedomain.ErrQuotaExceeded):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, &APIError{
			Code:    "quota_exceeded",
			Message: "monthly property search quota reached",
		})
	case errors.Is(err, propertydomain.ErrNoResults),
		errors.Is(err, propertydomain.ErrSearchNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, &APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, identitydomain.ErrInvalidCredentials),
		errors.Is(err, session.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrUnauthorized)
	case errors.Is(err, commercedomain.ErrCollaboratorUnavailable),
		errors.Is(err, identitydomain.ErrCollaboratorUnavailable),
		errors.Is(err, propertydomain.ErrCollaboratorUnavailable),
		errors.Is(err, cmsclient.ErrUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrServiceUnavailable)
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, &APIError{
			Code:    "internal",
			Message: "internal server error",
		})
	}
}
