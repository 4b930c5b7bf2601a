package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS lets the storefront origins call the API with the owner cookie.
// Requests from any other origin get no CORS headers.
func CORS(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Session-ID", "X-Request-ID"},
		ExposedHeaders: []string{"X-Session-ID", "X-Request-ID"},
		MaxAge:         600,
	})
	return c.Handler
}
