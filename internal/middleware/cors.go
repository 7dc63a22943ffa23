package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS permits unrestricted cross-origin access; the service fronts public
// browser clients with no origin allowlist.
func CORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	})(next)
}
