package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ogdenik/bankcore/internal/infrastructure/auth"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	userIDKey   contextKey = "user_id"
)

// AuthMiddleware verifies the bearer token and injects the caller's
// verified identity into the request context. Handlers pass it on
// explicitly; nothing downstream reads ambient security state.
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(jwtManager *auth.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// Wrap wraps an http.Handler with token verification.
func (m *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, `{"error":"missing or malformed authorization header"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, claims.Identifier)
		ctx = context.WithValue(ctx, userIDKey, claims.UserID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext returns the verified caller identity.
func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(identityKey).(string)
	return identity, ok && identity != ""
}

// UserIDFromContext returns the authenticated user's id.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
