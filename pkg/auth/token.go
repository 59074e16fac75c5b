package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenTTL is the access-token lifetime when none is configured.
	DefaultTokenTTL = time.Hour

	tokenTypeAccess = "access"
)

// TokenConfig configures access-token issue and verification.
type TokenConfig struct {
	// Issuer is written to and required in the iss claim.
	Issuer string

	// SigningKey is the HMAC key used to sign and verify tokens.
	SigningKey []byte

	// TTL is the token lifetime.
	TTL time.Duration

	// Now replaces the wall clock.
	Now func() time.Time
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	cfg TokenConfig
}

// NewTokenService creates a token service.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("token issuer is required")
	}
	if len(cfg.SigningKey) == 0 {
		return nil, fmt.Errorf("token signing key is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenService{cfg: cfg}, nil
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.cfg.TTL
}

// Issue signs an access token for the account.
func (s *TokenService) Issue(userID int64, role Role) (string, error) {
	now := s.cfg.Now()
	claims := jwt.MapClaims{
		"iss":        s.cfg.Issuer,
		"sub":        strconv.FormatInt(userID, 10),
		"role":       string(role),
		"token_type": tokenTypeAccess,
		"iat":        now.Unix(),
		"exp":        now.Add(s.cfg.TTL).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies the token carried in ctx.
func (s *TokenService) Authenticate(ctx context.Context) (*Identity, error) {
	token := GetToken(ctx)
	if token == "" {
		return nil, ErrUnauthenticated
	}
	return s.Verify(token)
}

// Verify checks signature, expiry, issuer and token type and returns the
// identity the token was issued for.
func (s *TokenService) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.cfg.SigningKey, nil
	}, jwt.WithTimeFunc(s.cfg.Now), jwt.WithExpirationRequired())
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpiredToken
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if iss, _ := claims["iss"].(string); iss != s.cfg.Issuer {
		return nil, fmt.Errorf("%w: issuer %q", ErrInvalidToken, iss)
	}
	if typ, _ := claims["token_type"].(string); typ != tokenTypeAccess {
		return nil, fmt.Errorf("%w: token type %q", ErrInvalidToken, typ)
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: subject %q", ErrInvalidToken, sub)
	}

	role := Role(fmt.Sprint(claims["role"]))
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidToken, role)
	}

	return &Identity{UserID: userID, Role: role, AuthType: "jwt"}, nil
}

// Verify interface compliance.
var _ Authenticator = (*TokenService)(nil)
