package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lribeiro-dev/go-auth-api/config"
	"github.com/lribeiro-dev/go-auth-api/internal/api"
)

// TokenCodec issues and verifies signed session tokens. Verification is
// stateless: validity is determined by signature and expiry alone, so there is
// no server-side session store to consult.
type TokenCodec struct {
	cfg config.JWTConfig
}

func NewTokenCodec(cfg config.JWTConfig) *TokenCodec {
	return &TokenCodec{cfg: cfg}
}

// Issue encodes {user_id, email} plus issued-at and expiry into a compact
// HS256-signed token.
func (c *TokenCodec) Issue(userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := api.Claims{
		UserID: userID.String(),
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Audience:  jwt.ClaimStrings{c.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify decodes the token and checks signature, expiry, issuer and audience.
// Every failure mode collapses into api.ErrInvalidToken; the underlying jwt
// sentinel stays wrapped for logging only.
func (c *TokenCodec) Verify(tokenString string) (*api.Claims, error) {
	claims := &api.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(c.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", api.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, api.ErrInvalidToken
	}
	if claims.Issuer != c.cfg.Issuer {
		return nil, fmt.Errorf("%w: issuer mismatch", api.ErrInvalidToken)
	}
	if !api.VerifyAudience(claims.Audience, c.cfg.Audience) {
		return nil, fmt.Errorf("%w: audience mismatch", api.ErrInvalidToken)
	}

	return claims, nil
}
