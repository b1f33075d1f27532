// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/stockgrid/stockgrid/internal/shared"
)

// Sentinel errors for the transport layer.
var (
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("malformed request")
)

// StatusFor returns the HTTP status matching err's kind.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrDuplicateRequest):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInsufficientStock), errors.Is(err, shared.ErrCapacityExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrGenerationExhausted):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	problem := ProblemDetail{
		Title:  http.StatusText(status),
		Status: status,
		Detail: shared.UserSafeMessage(err),
	}
	var validation *shared.ValidationError
	if errors.As(err, &validation) {
		problem.Field = validation.Field
	}
	var insufficient *shared.InsufficientStockError
	if errors.As(err, &insufficient) {
		available := insufficient.Available
		problem.Available = &available
	}
	JSON(w, status, problem)
}
