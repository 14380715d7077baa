package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/ance-ai/metered-gateway/internal/auth"
	"github.com/ance-ai/metered-gateway/internal/domain"
)

// accountIDKey is the context key for the authenticated account.
type accountIDKey struct{}

// AuthMiddleware verifies the bearer token and injects the bound account ID
// into the request context. Missing, malformed, and forged tokens all get
// the same 401.
func AuthMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				writeError(w, domain.ErrInvalidToken())
				return
			}

			accountID, err := tokens.Verify(token)
			if err != nil {
				writeError(w, domain.ErrInvalidToken())
				return
			}

			ctx := context.WithValue(r.Context(), accountIDKey{}, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAccountID retrieves the authenticated account ID from context.
// Returns 0 when the auth middleware did not run.
func GetAccountID(ctx context.Context) int64 {
	if id, ok := ctx.Value(accountIDKey{}).(int64); ok {
		return id
	}
	return 0
}

// extractBearerToken pulls the credential from the Authorization header.
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}
