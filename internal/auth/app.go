package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"Inventory/pkg/kit"
)

const (
	defaultLoginLimitPerMin = 5
	limitWindow             = 60 * time.Second
)

type ctxKey string

const claimsKey ctxKey = "operator_claims"

// Routes serves /login and /whoami. loginLimitPerMin caps login attempts per
// client IP; zero selects the default.
func (s *Server) Routes(loginLimitPerMin int) http.Handler {
	if loginLimitPerMin <= 0 {
		loginLimitPerMin = defaultLoginLimitPerMin
	}
	limiter := kit.NewIPRateLimiter(loginLimitPerMin, limitWindow)

	r := chi.NewRouter()
	r.With(limiter.Middleware).Post("/login", s.handleLogin)
	r.With(RequireOperator(s.JWT)).Get("/whoami", s.handleWhoAmI)
	return r
}

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}

// RequireOperator rejects requests without a valid operator bearer token.
func RequireOperator(jwt *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims, err := jwt.Parse(strings.TrimPrefix(authz, "Bearer "))
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}
			if claims.Role != RoleOperator {
				kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
