// Package auth adapts bearer-token session validation and CSRF
// origin checking for the command/query ingress. It is deliberately
// thin: the core treats auth as a collaborator with a single
// {userId} session shape, not a policy engine.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/meridian-commerce/core/internal/shared/config"
	"github.com/meridian-commerce/core/internal/shared/types"
)

type contextKey string

const userContextKey contextKey = "user"

// Session is the result of validate_session(token) - {userId} or
// unauthenticated (nil).
type Session struct {
	UserID types.ID `json:"userId"`
}

// claims is the internal JWT claim shape; only Subject is load-bearing.
type claims struct {
	jwt.RegisteredClaims
}

// Middleware validates the bearer token on every request and injects
// the resulting Session into the request context. It fails closed:
// missing/invalid tokens never reach the command/query ingress.
func Middleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := ValidateSession(cfg, bearerToken(r))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}

			if !originTrusted(cfg.TrustedOrigins, r.Header.Get("Origin")) {
				writeError(w, http.StatusForbidden, "origin not trusted")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// ValidateSession is the auth adapter's validate_session(token)
// operation: {userId} on success, an error on any failure.
func ValidateSession(cfg config.AuthConfig, token string) (*Session, error) {
	if token == "" {
		return nil, jwt.ErrTokenMalformed
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &Session{UserID: types.ID(c.Subject)}, nil
}

// GetSession extracts the validated session from request context.
func GetSession(ctx context.Context) *Session {
	session, _ := ctx.Value(userContextKey).(*Session)
	return session
}

// originTrusted matches an Origin header against the configured
// trusted-origin list, supporting a wildcard subdomain suffix like
// "https://*.example.com". An empty origin (same-origin / non-browser
// clients) is allowed through.
func originTrusted(trusted []string, origin string) bool {
	if origin == "" {
		return true
	}
	for _, t := range trusted {
		if t == origin {
			return true
		}
		if idx := strings.Index(t, "*."); idx >= 0 {
			suffix := t[idx+1:]
			scheme := t[:idx]
			if strings.HasPrefix(origin, scheme) && strings.HasSuffix(origin, suffix) {
				return true
			}
		}
	}
	return false
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
