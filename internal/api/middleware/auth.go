// Package middleware provides the authentication and tracing middleware
// applied around the API handlers.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/store"
)

// AuthMiddleware authenticates requests carrying a bearer token. A request
// passes only when the token's signature verifies AND the token is still
// present in the owner's stored token list; a logged-out token fails the
// second check even though its signature is valid.
type AuthMiddleware struct {
	jwtService auth.JWTService
	userStore  store.UserStore
}

// NewAuthMiddleware creates an AuthMiddleware.
func NewAuthMiddleware(jwtService auth.JWTService, userStore store.UserStore) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		userStore:  userStore,
	}
}

// Authenticate validates the Authorization header, resolves the owning
// user, and attaches the user and raw token to the request context. Any
// failure short-circuits with a 401 before the handler runs.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}
		token := parts[1]

		claims, err := m.jwtService.ValidateToken(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				slog.Error("failed to validate token", "error", err)
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		user, err := m.userStore.GetByToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				// Revoked or never issued.
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}
			slog.Error("failed to resolve token owner", "error", err)
			shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			return
		}

		if user.ID != claims.UserID {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserContextKey, user)
		ctx = context.WithValue(ctx, shared.TokenContextKey, token)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUser extracts the authenticated user from the request context.
func GetUser(r *http.Request) (*domain.User, bool) {
	user, ok := r.Context().Value(shared.UserContextKey).(*domain.User)
	return user, ok && user != nil
}

// GetToken extracts the raw bearer token from the request context.
func GetToken(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(shared.TokenContextKey).(string)
	return token, ok && token != ""
}
