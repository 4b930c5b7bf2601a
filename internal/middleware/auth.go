package middleware

import (
	"net/http"

	"odil-be/internal/auth"
	"odil-be/internal/logger"
	"odil-be/internal/utils"

	"go.uber.org/zap"
)

// AuthMiddleware is passive: requests without a token pass through as
// customers, a valid owner token marks the context, anything else is refused.
func AuthMiddleware(owner *auth.Owner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := owner.ParseJWT(tokenStr)
			if err != nil {
				logger.FromCtx(r.Context()).Info("rejected owner token", zap.Error(err))
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			ctx := utils.SetOwnerContext(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
