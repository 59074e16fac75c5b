// Package user manages accounts: registration, login and lookup.
package user

import (
	"context"
	"errors"
	"time"

	"github.com/txn2/chat-platform/pkg/auth"
)

var (
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrNotFound is returned for an unknown account.
	ErrNotFound = errors.New("user not found")

	// ErrInvalidPassword is returned when a password does not match.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidInput is returned for malformed registration data.
	ErrInvalidInput = errors.New("invalid user input")
)

// User is a registered account.
type User struct {
	ID           int64     `json:"id,string"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists accounts.
type Store interface {
	// Create persists a new account. Returns ErrDuplicateEmail if the email
	// is taken.
	Create(ctx context.Context, u *User) error

	// GetByID retrieves an account. Returns nil, nil if not found.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves an account by normalized email. Returns nil, nil
	// if not found.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Exists reports whether the account exists.
	Exists(ctx context.Context, id int64) (bool, error)

	// Close releases resources.
	Close() error
}

// Activity is an account event worth counting.
type Activity string

const (
	// ActivitySignup is recorded once per registration.
	ActivitySignup Activity = "signup"

	// ActivityLogin is recorded on each successful login.
	ActivityLogin Activity = "login"
)

// ActivityRecorder receives account events.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, userID int64, activity Activity) error
}
