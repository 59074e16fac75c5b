package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
)

// APIKey binds a static key to an account. Keys let scripts and MCP clients
// act as a user without the login flow.
type APIKey struct {
	Key    string `yaml:"key"`
	Name   string `yaml:"name"`
	UserID int64  `yaml:"user_id"`
	Role   Role   `yaml:"role"`
}

// APIKeyAuthenticator authenticates using API keys.
type APIKeyAuthenticator struct {
	mu   sync.RWMutex
	keys map[string]APIKey
}

// NewAPIKeyAuthenticator creates a new API key authenticator.
func NewAPIKeyAuthenticator(keys []APIKey) *APIKeyAuthenticator {
	a := &APIKeyAuthenticator{keys: make(map[string]APIKey, len(keys))}
	for _, k := range keys {
		a.AddKey(k)
	}
	return a
}

// Authenticate validates the API key and returns its identity.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context) (*Identity, error) {
	token := GetToken(ctx)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	// Constant-time comparison against every key.
	var matched *APIKey
	for k, v := range a.keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(token)) == 1 {
			matched = &v
		}
	}
	if matched == nil {
		return nil, fmt.Errorf("%w: unknown API key", ErrInvalidToken)
	}

	return &Identity{
		UserID:   matched.UserID,
		Role:     matched.Role,
		AuthType: "apikey",
	}, nil
}

// AddKey adds an API key at runtime. A key without a role is a member key.
func (a *APIKeyAuthenticator) AddKey(key APIKey) {
	if key.Role == "" {
		key.Role = RoleMember
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys[key.Key] = key
}

// RemoveKey removes an API key.
func (a *APIKeyAuthenticator) RemoveKey(keyValue string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.keys, keyValue)
}

// Verify interface compliance.
var _ Authenticator = (*APIKeyAuthenticator)(nil)
