package handlers

import "net/http"

// isHTMX reports whether the request originated from an htmx-driven element.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
