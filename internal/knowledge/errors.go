package knowledge

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound  = errors.New("snippet not found")
	ErrDuplicate = errors.New("snippet already exists")
)

// MapHTTPStatus converts knowledge errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
