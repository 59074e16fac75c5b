// Package auth provides caller identity, access-token issue and
// verification, and API-key authentication.
package auth

import (
	"context"
	"errors"
)

// contextKey is a private type for context keys.
type contextKey int

const (
	identityContextKey contextKey = iota
	tokenContextKey
)

// Role is an account's privilege level.
type Role string

const (
	// RoleMember is a regular account.
	RoleMember Role = "member"

	// RoleAdmin may act on every account's resources.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

var (
	// ErrUnauthenticated is returned when no credential is present.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInvalidToken is returned for a malformed, forged or wrong-type token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned for a token past its expiry.
	ErrExpiredToken = errors.New("token expired")
)

// Identity is the resolved caller of a request.
type Identity struct {
	UserID   int64  `json:"user_id,string"`
	Role     Role   `json:"role"`
	AuthType string `json:"auth_type"` // "jwt", "apikey"
}

// IsAdmin reports whether the caller holds the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// CanAccess reports whether the caller may act on a resource owned by ownerID.
func (id Identity) CanAccess(ownerID int64) bool {
	return id.IsAdmin() || id.UserID == ownerID
}

// WithIdentity adds the caller identity to the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// GetIdentity retrieves the caller identity from the context.
func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityContextKey).(*Identity); ok {
		return id
	}
	return nil
}

// WithToken adds a raw credential to the context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// GetToken retrieves the raw credential from the context.
func GetToken(ctx context.Context) string {
	if t, ok := ctx.Value(tokenContextKey).(string); ok {
		return t
	}
	return ""
}

// Authenticator resolves the credential in ctx to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context) (*Identity, error)
}

// ChainedAuthenticator tries multiple authenticators in order.
type ChainedAuthenticator struct {
	authenticators []Authenticator
}

// NewChainedAuthenticator creates a new chained authenticator.
func NewChainedAuthenticator(authenticators ...Authenticator) *ChainedAuthenticator {
	return &ChainedAuthenticator{authenticators: authenticators}
}

// Authenticate returns the first successful identity, or the last error.
func (c *ChainedAuthenticator) Authenticate(ctx context.Context) (*Identity, error) {
	if GetToken(ctx) == "" {
		return nil, ErrUnauthenticated
	}

	lastErr := ErrInvalidToken
	for _, a := range c.authenticators {
		id, err := a.Authenticate(ctx)
		if err == nil && id != nil {
			return id, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	return nil, lastErr
}

// Verify interface compliance.
var _ Authenticator = (*ChainedAuthenticator)(nil)
