package ledger

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound  = errors.New("ledger entry not found")
	ErrDuplicate = errors.New("ledger entry already exists for email")

	// ErrPosted guards the terminal state: a Posted entry is never
	// superseded or transitioned again.
	ErrPosted = errors.New("ledger entry is posted and immutable")

	ErrInvalidTransition = errors.New("invalid ledger status transition")
)

// MapHTTPStatus converts ledger errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrPosted), errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
