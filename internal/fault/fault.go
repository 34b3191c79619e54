// Package fault defines the error taxonomy shared by every core component.
// Handlers map these to HTTP statuses with errors.Is; business code wraps
// them with context via fmt.Errorf and %w.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput: malformed or missing required field. No state change.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound: referenced entity doesn't exist or doesn't belong to caller.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: operation not valid for the current lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrNotAuthorized: caller lacks the role or ownership the operation needs.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrForbidden: caller is outside the order's participant set.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyResolved: target already reached a terminal state for this
	// operation; surfaced as a non-fatal notice.
	ErrAlreadyResolved = errors.New("already resolved")
	// ErrUnavailable: store or delivery collaborator timed out or failed.
	ErrUnavailable = errors.New("unavailable")
)

// Wrap attaches a human-readable reason to a sentinel, keeping errors.Is
// matching intact.
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)
}

// HTTPStatus maps a taxonomy error to its transport status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrNotAuthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyResolved):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
