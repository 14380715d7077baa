package server

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware enforces a per-request deadline via context
// cancellation. Handlers cooperate by passing the request context to
// blocking calls (the upstream client does).
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
