package shared

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the catalog, registry and ledger. Everything that is
// not one of these is treated as an infrastructure fault.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks caller input that violates a precondition.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a concurrent mutation or a duplicate key.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientStock indicates the source does not hold enough units.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrCapacityExceeded indicates a quantity above the product total.
	ErrCapacityExceeded = errors.New("quantity exceeds product total")
	// ErrGenerationExhausted indicates code generation ran out of attempts.
	ErrGenerationExhausted = errors.New("code generation exhausted")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// ValidationError reports which input field was rejected.
type ValidationError struct {
	Field   string
	Message string
}

// Validation builds a ValidationError.
func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity  string
	Message string
}

// NotFound builds a NotFoundError.
func NotFound(entity, message string) *NotFoundError {
	return &NotFoundError{Entity: entity, Message: message}
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Entity + " not found"
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InsufficientStockError carries the quantity actually available at the source.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

// Unwrap lets errors.Is match ErrInsufficientStock.
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// CapacityError reports the product total a quantity was checked against.
type CapacityError struct {
	Total     int
	Requested int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("quantity %d exceeds product total %d", e.Requested, e.Total)
}

// Unwrap lets errors.Is match ErrCapacityExceeded.
func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

// IsBusiness reports whether err belongs to a caller-recoverable kind.
func IsBusiness(err error) bool {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrGenerationExhausted):
		return true
	}
	return false
}

// UserSafeMessage converts err into text that can be shown to an operator.
// Infrastructure faults are reduced to a generic message.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		validation   *ValidationError
		notFound     *NotFoundError
		insufficient *InsufficientStockError
		capacity     *CapacityError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &insufficient):
		return fmt.Sprintf("Not enough stock at source: %d available, %d requested.", insufficient.Available, insufficient.Requested)
	case errors.As(err, &capacity):
		return fmt.Sprintf("Quantity %d exceeds the product total of %d.", capacity.Requested, capacity.Total)
	case errors.Is(err, ErrConflict):
		return "The record was changed by another operation. Reload and try again."
	case errors.Is(err, ErrGenerationExhausted):
		return "Could not generate a unique barcode. Try again or enter one manually."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrValidation):
		return "The submitted data is invalid."
	case errors.Is(err, ErrNotFound):
		return "The requested record does not exist."
	}
	return "Unexpected error. Please try again later."
}
