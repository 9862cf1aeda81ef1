package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lribeiro-dev/go-auth-api/internal/api"
)

// Define typed context keys
type contextKey string

const UserIDKey contextKey = "userID"
const UserEmailKey contextKey = "userEmail"

// Authenticate is middleware that validates the Bearer session token via the
// service and puts the caller's identity into the request context. Malformed,
// tampered and expired tokens all yield the same 401.
func Authenticate(logger *slog.Logger, svc AuthService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.WarnContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header required")
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
				return
			}

			claims, err := svc.VerifySession(ctx, headerParts[1])
			if err != nil {
				l.WarnContext(ctx, "Session token rejected", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				l.WarnContext(ctx, "Token carries malformed user id", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, UserIDKey, userID)
			ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext returns the authenticated user's id, if present.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserEmailFromContext returns the authenticated user's email, if present.
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}
