// Package middleware holds the HTTP middleware shared by the Tourdesk routes.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORSHandler allows browser calls from allowedOrigins (full origins, no
// trailing slash). Exposed headers let dashboards read the export filename,
// the rate-limit backoff and the request id.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition", "Retry-After", "X-Request-Id"},
		MaxAge:         600,
	})
	return c.Handler
}
