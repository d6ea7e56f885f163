package runs

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound  = errors.New("pipeline run not found")
	ErrDuplicate = errors.New("pipeline run already exists")

	// ErrTerminal guards completed and failed runs against further
	// stage records or state changes.
	ErrTerminal = errors.New("pipeline run is terminal")
)

// MapHTTPStatus converts run errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrTerminal):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
