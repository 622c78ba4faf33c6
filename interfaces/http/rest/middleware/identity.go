package middleware

import (
	"context"
	"net/http"
	"strings"
)

// UserHeader names the caller. Authentication happens in front of the
// service; requests without the header act as AnonymousUser.
const (
	UserHeader    = "X-User-ID"
	AnonymousUser = "anonymous"
)

type contextKey string

const userIDKey contextKey = "userID"

// Identity stores the caller's user id in the request context
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserHeader))
		if userID == "" {
			userID = AnonymousUser
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID returns a context carrying userID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the caller set by Identity, or AnonymousUser
func UserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(string); ok && userID != "" {
		return userID
	}
	return AnonymousUser
}
