package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lribeiro-dev/go-auth-api/internal/api"
)

// MockAuthService is a mock implementation of the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, password string, firstName, lastName *string) (*api.User, string, error) {
	args := m.Called(ctx, email, password, firstName, lastName)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*api.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*api.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*api.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) VerifySession(ctx context.Context, token string) (*api.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Claims), args.Error(1)
}

func (m *MockAuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*api.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.User), args.Error(1)
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRegisterHandler(t *testing.T) {
	logger := slog.Default()

	t.Run("Created", func(t *testing.T) {
		mockSvc := new(MockAuthService)
		handler := NewAuthHandler(mockSvc, logger)
		now := time.Now()
		user := &api.User{ID: uuid.New(), Email: "alice@example.com", PasswordHash: "$2a$10$hash", IsActive: true, CreatedAt: now, UpdatedAt: now}

		mockSvc.On("Register", mock.Anything, "alice@example.com", "secret123", (*string)(nil), (*string)(nil)).
			Return(user, "a.b.c", nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
			strings.NewReader(`{"email":"alice@example.com","password":"secret123"}`))
		rec := httptest.NewRecorder()
		handler.Register(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, "a.b.c", resp.Token)
		assert.Equal(t, user.Email, resp.User.Email)
		// The projection never carries the hash.
		assert.NotContains(t, rec.Body.String(), "$2a$10$hash")
		assert.NotContains(t, rec.Body.String(), "password")
		mockSvc.AssertExpectations(t)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		mockSvc := new(MockAuthService)
		handler := NewAuthHandler(mockSvc, logger)

		mockSvc.On("Register", mock.Anything, "alice@example.com", "secret123", (*string)(nil), (*string)(nil)).
			Return(nil, "", api.ErrConflict).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
			strings.NewReader(`{"email":"alice@example.com","password":"secret123"}`))
		rec := httptest.NewRecorder()
		handler.Register(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, decodeEnvelope(t, rec).Success)
		mockSvc.AssertExpectations(t)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		handler := NewAuthHandler(new(MockAuthService), logger)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{`))
		rec := httptest.NewRecorder()
		handler.Register(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("DisplayNameEmail", func(t *testing.T) {
		// "Alice <alice@example.com>" parses as an address but is not a bare
		// mailbox; accepting it would create an alias row for the same account.
		handler := NewAuthHandler(new(MockAuthService), logger)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
			strings.NewReader(`{"email":"Alice <alice@example.com>","password":"secret123"}`))
		rec := httptest.NewRecorder()
		handler.Register(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		handler := NewAuthHandler(new(MockAuthService), logger)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
			strings.NewReader(`{"email":"alice@example.com","password":"short"}`))
		rec := httptest.NewRecorder()
		handler.Register(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginHandler(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockSvc := new(MockAuthService)
		handler := NewAuthHandler(mockSvc, logger)
		now := time.Now()
		user := &api.User{ID: uuid.New(), Email: "alice@example.com", IsActive: true, LastLoginAt: &now, CreatedAt: now, UpdatedAt: now}

		mockSvc.On("Login", mock.Anything, "alice@example.com", "secret123").
			Return(user, "a.b.c", nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"alice@example.com","password":"secret123"}`))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, "a.b.c", resp.Token)
		require.NotNil(t, resp.User.LastLoginAt)
		mockSvc.AssertExpectations(t)
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		mockSvc := new(MockAuthService)
		handler := NewAuthHandler(mockSvc, logger)

		mockSvc.On("Login", mock.Anything, "alice@example.com", "wrong-password").
			Return(nil, "", api.ErrUnauthenticated).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"alice@example.com","password":"wrong-password"}`))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("DisabledAccount", func(t *testing.T) {
		mockSvc := new(MockAuthService)
		handler := NewAuthHandler(mockSvc, logger)

		mockSvc.On("Login", mock.Anything, "disabled@example.com", "secret123").
			Return(nil, "", api.ErrAccountDisabled).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"disabled@example.com","password":"secret123"}`))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestMeHandler(t *testing.T) {
	logger := slog.Default()

	protect := func(svc AuthService, h http.HandlerFunc) http.Handler {
		return Authenticate(logger, svc)(h)
	}

	t.Run("Success", func(t *testing.T) {
		mockSvc := new(MockAuthService)
		handler := NewAuthHandler(mockSvc, logger)
		now := time.Now()
		user := &api.User{ID: uuid.New(), Email: "alice@example.com", IsActive: true, CreatedAt: now, UpdatedAt: now}
		claims := &api.Claims{UserID: user.ID.String(), Email: user.Email}

		mockSvc.On("VerifySession", mock.Anything, "a.b.c").Return(claims, nil).Once()
		mockSvc.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer a.b.c")
		rec := httptest.NewRecorder()
		protect(mockSvc, handler.Me).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		var resp MeResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, user.Email, resp.User.Email)
		mockSvc.AssertExpectations(t)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		mockSvc := new(MockAuthService)
		handler := NewAuthHandler(mockSvc, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		rec := httptest.NewRecorder()
		protect(mockSvc, handler.Me).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("BadHeaderFormat", func(t *testing.T) {
		mockSvc := new(MockAuthService)
		handler := NewAuthHandler(mockSvc, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Token a.b.c")
		rec := httptest.NewRecorder()
		protect(mockSvc, handler.Me).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		mockSvc := new(MockAuthService)
		handler := NewAuthHandler(mockSvc, logger)

		mockSvc.On("VerifySession", mock.Anything, "bad-token").
			Return(nil, api.ErrInvalidToken).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()
		protect(mockSvc, handler.Me).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestHealthHandler(t *testing.T) {
	handler := NewAuthHandler(new(MockAuthService), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/health", nil)
	rec := httptest.NewRecorder()
	handler.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "ok", payload["status"])
}
