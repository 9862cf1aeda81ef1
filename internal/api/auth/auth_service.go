package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"github.com/lribeiro-dev/go-auth-api/config"
	"github.com/lribeiro-dev/go-auth-api/internal/api"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the interface for the credential/session lifecycle.
type AuthService interface {
	// Register creates a new active user and issues a session token.
	// Returns api.ErrConflict if the email is already taken.
	Register(ctx context.Context, email, password string, firstName, lastName *string) (*api.User, string, error)

	// Login checks credentials and issues a fresh session token.
	// Unknown email and wrong password both return api.ErrUnauthenticated;
	// a deactivated account returns api.ErrAccountDisabled.
	Login(ctx context.Context, email, password string) (*api.User, string, error)

	// VerifySession validates a session token and returns its claims.
	// Any decode, signature or expiry failure is api.ErrInvalidToken.
	VerifySession(ctx context.Context, token string) (*api.Claims, error)

	// GetUserByID returns the user projection for a known id, or api.ErrNotFound.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*api.User, error)
}

// AuthServiceImpl implements AuthService on top of the credential store and
// the token codec.
type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	tokens *TokenCodec
	// users is a short-lived read-through cache for GetUserByID; entries are
	// invalidated on login since last_login_at changes.
	users *cache.Cache
}

func NewAuthService(repo AuthRepo, cfg *config.Config, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		tokens: NewTokenCodec(cfg.JWT),
		users:  cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Register creates a new user and issues a session token. Duplicate emails are
// rejected by the store's unique constraint, never by a check-then-insert.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password string, firstName, lastName *string) (*api.User, string, error) {
	l := s.logger.With(slog.String("method", "Register"))

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, email, string(hashed), firstName, lastName)
	if err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", user.ID.String()))
	return user, token, nil
}

// Login authenticates a user and issues a session token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*api.User, string, error) {
	l := s.logger.With(slog.String("method", "Login"))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			// Same outcome as a wrong password so account existence never leaks.
			return nil, "", fmt.Errorf("login: %w", api.ErrUnauthenticated)
		}
		return nil, "", fmt.Errorf("login: %w", err)
	}

	if !user.IsActive {
		l.WarnContext(ctx, "Login attempt on disabled account", slog.String("userID", user.ID.String()))
		return nil, "", fmt.Errorf("login: %w", api.ErrAccountDisabled)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("login: %w", api.ErrUnauthenticated)
	}

	lastLogin, err := s.repo.UpdateLastLogin(ctx, user.ID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			// The account vanished mid-login; indistinguishable from any
			// other credential failure.
			return nil, "", fmt.Errorf("login: %w", api.ErrUnauthenticated)
		}
		return nil, "", fmt.Errorf("login: %w", err)
	}
	user.LastLoginAt = &lastLogin
	user.UpdatedAt = lastLogin
	s.users.Delete(user.ID.String())

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}

	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID.String()))
	return user, token, nil
}

// VerifySession delegates to the token codec.
func (s *AuthServiceImpl) VerifySession(ctx context.Context, token string) (*api.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.DebugContext(ctx, "Session verification failed", slog.Any("error", err))
		return nil, err
	}
	return claims, nil
}

// GetUserByID looks up the user projection, serving repeat lookups from cache.
func (s *AuthServiceImpl) GetUserByID(ctx context.Context, userID uuid.UUID) (*api.User, error) {
	if cached, found := s.users.Get(userID.String()); found {
		return cached.(*api.User), nil
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	s.users.Set(userID.String(), user, cache.DefaultExpiration)
	return user, nil
}
