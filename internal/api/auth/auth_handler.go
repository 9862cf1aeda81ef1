package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/lribeiro-dev/go-auth-api/app/observability/metrics"
	"github.com/lribeiro-dev/go-auth-api/internal/api"
)

// AuthHandler handles HTTP requests for authentication operations
type AuthHandler struct {
	authService AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register creates a new account and returns the user projection plus token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	l := h.logger.With(slog.String("handler", "Register"))

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateRegisterRequest(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.authService.Register(r.Context(), strings.TrimSpace(req.Email), req.Password, req.FirstName, req.LastName)
	metrics.Get().RegisterDurationSeconds.Record(r.Context(), time.Since(start).Seconds())
	metrics.Get().RegisterRequestsTotal.Add(r.Context(), 1)
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "An account with this email already exists")
			return
		}
		l.ErrorContext(r.Context(), "Registration failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to register user")
		return
	}

	api.SuccessResponse(w, r, http.StatusCreated, AuthResponse{User: user, Token: token})
}

// Login authenticates a user and returns the user projection plus a fresh token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	l := h.logger.With(slog.String("handler", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := h.authService.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	metrics.Get().LoginDurationSeconds.Record(r.Context(), time.Since(start).Seconds())
	metrics.Get().LoginRequestsTotal.Add(r.Context(), 1)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrUnauthenticated):
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, api.ErrAccountDisabled):
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Account is disabled")
		default:
			l.ErrorContext(r.Context(), "Login failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to login")
		}
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, AuthResponse{User: user, Token: token})
}

// Me returns the profile of the authenticated user. Runs behind Authenticate.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("handler", "Me"))

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
			return
		}
		l.ErrorContext(r.Context(), "Profile fetch failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, MeResponse{User: user})
}

// Health reports service liveness.
func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "go-auth-api",
	})
}

func validateRegisterRequest(req RegisterRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return errors.New("email and password are required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		// Display-name forms like "Alice <a@b.com>" parse but are not a bare
		// address; storing them verbatim would alias the same mailbox.
		return errors.New("email is not a valid address")
	}
	if len(req.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
