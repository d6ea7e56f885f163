package routes

import "net/http"

// Route binds an HTTP method and ServeMux pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}
