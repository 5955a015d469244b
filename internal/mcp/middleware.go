package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/animavault/cerberus/internal/domain/apikey"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const apiKeyKey contextKey = iota

// keyFromContext extracts the authenticated API key from context.
func keyFromContext(ctx context.Context) *apikey.Key {
	key, _ := ctx.Value(apiKeyKey).(*apikey.Key)
	return key
}

// KeyResolver resolves a presented bearer token into an API key.
type KeyResolver interface {
	Resolve(ctx context.Context, token string) (*apikey.Key, error)
}

// authMiddleware implements bearer API key authentication as MCP middleware.
// The same credential the REST surface takes guards the agent surface.
func authMiddleware(resolver KeyResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method == "initialize" || method == "ping" {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing api key")
			}

			key, err := resolver.Resolve(ctx, token)
			if err != nil || key == nil {
				return nil, fmt.Errorf("unauthorized: invalid api key")
			}

			ctx = context.WithValue(ctx, apiKeyKey, key)
			return next(ctx, method, req)
		}
	}
}
