package transport

import (
	"context"
	"net/http"
	"strings"

	"github.com/animavault/cerberus/internal/domain/apikey"
)

type keyContextKey struct{}

// KeyResolver resolves a presented bearer token into an API key.
type KeyResolver interface {
	Resolve(ctx context.Context, token string) (*apikey.Key, error)
}

// KeyFromContext returns the authenticated API key from context, if present.
func KeyFromContext(ctx context.Context) (*apikey.Key, bool) {
	key, ok := ctx.Value(keyContextKey{}).(*apikey.Key)
	return key, ok
}

// AuthMiddleware enforces bearer API key authentication. It runs before any
// authorization or existence check; a missing or unknown key short-circuits
// with 401.
func AuthMiddleware(resolver KeyResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				authFailuresTotal.Inc()
				writeMessage(w, http.StatusUnauthorized, "missing api key")
				return
			}

			key, err := resolver.Resolve(r.Context(), token)
			if err != nil || key == nil {
				authFailuresTotal.Inc()
				writeMessage(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			ctx := context.WithValue(r.Context(), keyContextKey{}, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
