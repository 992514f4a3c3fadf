package middleware

import (
	"net/http"

	"pos-be/internal/auth"
	"pos-be/internal/logger"
	"pos-be/internal/utils"

	"go.uber.org/zap"
)

// AuthMiddleware attaches the token principal to the request context.
// Requests without a token pass through anonymously; resolvers decide.
// A token that is present but invalid is rejected outright.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := auth.ParseToken(tokenStr, secret)
			if err != nil {
				logger.FromCtx(r.Context()).Warn("rejected access token", zap.Error(err))
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			ctx := utils.SetUserContext(r.Context(), principal.UserID, principal.CompanyID, principal.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
