package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/user/inventory-audit/pkg/util"
)

type contextKey string

const claimsContextKey contextKey = "authClaims"

// RoleAdmin is the role the read API treats as administrative.
const RoleAdmin = "admin"

// Auth is a middleware factory that validates the Bearer token issued by the
// external authentication flow and stores its claims in the request context.
func Auth(secretKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.Warn("missing bearer token", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				http.Error(w, "Unauthorized: bearer token required", http.StatusUnauthorized)
				return
			}

			claims, err := util.ValidateToken(token, secretKey)
			if err != nil {
				logger.Warn("invalid token", "remote_addr", r.RemoteAddr, "error", err)
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by Auth, if any.
func ClaimsFromContext(ctx context.Context) (*util.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*util.Claims)
	return claims, ok
}
