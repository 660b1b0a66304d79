package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/utafrali/FocusGate/pkg/httputil"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// Claims is the identity extracted from a bearer token.
type Claims struct {
	UserID string
}

// TokenValidator validates a raw bearer token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

// Auth rejects requests without a valid bearer token and stores the caller's
// user ID in the request context.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeAuthError(w, "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				writeAuthError(w, "invalid authorization header format")
				return
			}

			claims, err := validate(strings.TrimSpace(token))
			if err != nil || claims == nil || claims.UserID == "" {
				writeAuthError(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

// WithUserID returns a context carrying an authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the user ID set by Auth.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: message},
	})
}
