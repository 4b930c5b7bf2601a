package middleware

import (
	"net/http"
	"strings"

	"odil-be/internal/logger"
	"odil-be/internal/utils"

	"github.com/google/uuid"
)

// SessionMiddleware makes sure every request carries a cart session id. A new
// one is issued when the header is missing and echoed back for the client to keep.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.Header.Get(utils.SessionHeader))
		if sessionID == "" || len(sessionID) > 128 {
			sessionID = uuid.NewString()
			r.Header.Set(utils.SessionHeader, sessionID)
		}
		w.Header().Set(utils.SessionHeader, sessionID)

		ctx := logger.WithSessionID(r.Context(), sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
