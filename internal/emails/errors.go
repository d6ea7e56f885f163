package emails

import (
	"errors"
	"net/http"
)

// Domain errors for email operations.
var (
	ErrNotFound  = errors.New("email not found")
	ErrDuplicate = errors.New("email already ingested")
	ErrMissingID = errors.New("email id missing")
)

// MapHTTPStatus maps email domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrMissingID) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
