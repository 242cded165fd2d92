package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by the stores. Handlers translate them to HTTP
// statuses with Status; the stores themselves never touch HTTP.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports which checkout form group failed validation.
// Group is either "shipping" or "payment".
type ValidationError struct {
	Group  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s details: %s", e.Group, e.Reason)
}

func Validation(group, reason string) *ValidationError {
	return &ValidationError{Group: group, Reason: reason}
}

// Status maps a store error to an HTTP status code.
func Status(err error) int {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrEmptyCart), errors.As(err, &ve):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
