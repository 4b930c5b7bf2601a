package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// Gzip compresses responses for clients that accept it. Websocket upgrades
// are passed through untouched.
func Gzip(next http.Handler) http.Handler {
	wrapped := gzhttp.GzipHandler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") != "" {
			next.ServeHTTP(w, r)
			return
		}
		wrapped.ServeHTTP(w, r)
	})
}
