package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/asa-tools/arkmgr/internal/auth"
)

type userContextKey struct{}

// AuthMiddleware requires a valid session token on every request. The
// token comes from the Authorization header, or from a ?token= query
// parameter for WebSocket clients that cannot set headers.
func AuthMiddleware(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			if strings.HasPrefix(token, "Bearer ") {
				token = token[7:]
			} else if qt := r.URL.Query().Get("token"); qt != "" {
				token = qt
			} else {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			user, err := authSvc.ValidateSession(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
