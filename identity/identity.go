// Package identity consumes the authenticated user id supplied per request
// by the upstream identity provider. The id is treated as an opaque
// optional integer; this service performs no authentication itself.
package identity

import (
	"context"
	"net/http"
	"strconv"
)

// UserIDHeader is set by the identity proxy in front of this service.
const UserIDHeader = "X-User-ID"

type contextKey struct{}

// Middleware extracts the user id header into the request context.
// Anything non-numeric or non-positive is ignored, leaving the request
// anonymous.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(UserIDHeader); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				r = r.WithContext(WithUserID(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// WithUserID returns a context carrying the given user id.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// UserIDFromContext returns the authenticated user id, or nil for an
// anonymous request.
func UserIDFromContext(ctx context.Context) *int64 {
	if id, ok := ctx.Value(contextKey{}).(int64); ok {
		return &id
	}
	return nil
}
