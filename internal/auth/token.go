package auth

import (
	"net/http"
	"strings"
)

// CookieName carries the owner token for browser sessions.
const CookieName = "owner_token"

// ExtractAccessToken reads the owner token from the cookie, falling back to a
// bearer Authorization header.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil {
		if cookie.Value != "" {
			return cookie.Value
		}
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
