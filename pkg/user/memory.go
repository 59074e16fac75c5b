package user

import (
	"context"
	"sync"
)

// MemoryStore implements Store using in-memory maps.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[int64]User
	byEmail map[string]int64
}

// NewMemoryStore creates a new in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[int64]User),
		byEmail: make(map[string]int64),
	}
}

// Create persists a new account.
func (s *MemoryStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[u.Email]; ok {
		return ErrDuplicateEmail
	}
	s.users[u.ID] = *u
	s.byEmail[u.Email] = u.ID
	return nil
}

// GetByID retrieves an account. Returns nil, nil if not found.
func (s *MemoryStore) GetByID(_ context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	return &u, nil
}

// GetByEmail retrieves an account by email. Returns nil, nil if not found.
func (s *MemoryStore) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	u := s.users[id]
	return &u, nil
}

// Exists reports whether the account exists.
func (s *MemoryStore) Exists(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[id]
	return ok, nil
}

// Close is a no-op.
func (*MemoryStore) Close() error {
	return nil
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
