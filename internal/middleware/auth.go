package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/eduportal/progress-service/internal/models"
)

// AccessTokenCookie is the cookie the front-end stores the CMS access token in
const AccessTokenCookie = "access_token"

// TokenValidator turns an access token into the identity it was issued for
type TokenValidator interface {
	ValidateAccessToken(token string) (models.Identity, error)
}

// IdentityMiddleware resolves the caller's identity from the access token
//
// A request without a token proceeds as anonymous; a token that does not validate is rejected with 401.
// Downstream handlers read the result with GetIdentity.
func IdentityMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := validator.ValidateAccessToken(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if scope, ok := r.Context().Value(scopeKey).(*requestScope); ok {
				scope.userID = identity.UserID
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// extractToken reads the token from the Authorization header, falling back to the cookie
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// GetIdentity retrieves the caller's identity from context, Anonymous when none was resolved
func GetIdentity(ctx context.Context) models.Identity {
	if identity, ok := ctx.Value(identityKey).(models.Identity); ok {
		return identity
	}
	return models.Anonymous
}

// WithIdentity returns a copy of ctx carrying "identity"
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
