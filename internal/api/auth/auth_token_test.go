package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lribeiro-dev/go-auth-api/config"
	"github.com/lribeiro-dev/go-auth-api/internal/api"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey: "test-secret",
		TokenTTL:  24 * time.Hour,
		Issuer:    "test-issuer",
		Audience:  "test-audience",
	}
}

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := NewTokenCodec(testJWTConfig())
	userID := uuid.New()
	email := "alice@example.com"

	token, err := codec.Issue(userID, email)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, email, claims.Email)
}

func TestTokenCodecExpired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.TokenTTL = -time.Minute
	codec := NewTokenCodec(cfg)

	token, err := codec.Issue(uuid.New(), "alice@example.com")
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, api.ErrInvalidToken)
}

func TestTokenCodecWrongSecret(t *testing.T) {
	codec := NewTokenCodec(testJWTConfig())
	token, err := codec.Issue(uuid.New(), "alice@example.com")
	require.NoError(t, err)

	otherCfg := testJWTConfig()
	otherCfg.SecretKey = "different-secret"
	other := NewTokenCodec(otherCfg)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, api.ErrInvalidToken)
}

func TestTokenCodecMalformed(t *testing.T) {
	codec := NewTokenCodec(testJWTConfig())

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := codec.Verify(tok)
		assert.ErrorIs(t, err, api.ErrInvalidToken)
	}
}

func TestTokenCodecIssuerMismatch(t *testing.T) {
	codec := NewTokenCodec(testJWTConfig())
	token, err := codec.Issue(uuid.New(), "alice@example.com")
	require.NoError(t, err)

	otherCfg := testJWTConfig()
	otherCfg.Issuer = "someone-else"
	other := NewTokenCodec(otherCfg)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, api.ErrInvalidToken)
}

func TestTokenCodecAudienceMismatch(t *testing.T) {
	codec := NewTokenCodec(testJWTConfig())
	token, err := codec.Issue(uuid.New(), "alice@example.com")
	require.NoError(t, err)

	otherCfg := testJWTConfig()
	otherCfg.Audience = "some-other-service"
	other := NewTokenCodec(otherCfg)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, api.ErrInvalidToken)
}
