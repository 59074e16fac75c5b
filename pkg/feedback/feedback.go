// Package feedback records user ratings of answers.
package feedback

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicate is returned when the user already rated the exchange.
	ErrDuplicate = errors.New("feedback already submitted for this exchange")

	// ErrNotFound is returned for unknown feedback.
	ErrNotFound = errors.New("feedback not found")

	// ErrInvalidStatus is returned for an unknown status value.
	ErrInvalidStatus = errors.New("invalid feedback status")
)

// Status tracks admin review of feedback.
type Status string

const (
	// StatusPending is the initial status.
	StatusPending Status = "pending"

	// StatusResolved marks reviewed feedback.
	StatusResolved Status = "resolved"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusResolved
}

// Feedback is one user's rating of one exchange.
type Feedback struct {
	ID         int64     `json:"id,string"`
	UserID     int64     `json:"user_id,string"`
	ExchangeID int64     `json:"exchange_id,string"`
	Positive   bool      `json:"positive"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Filter narrows feedback listings.
type Filter struct {
	UserID    *int64
	Positive  *bool
	Ascending bool
	Limit     int
	Offset    int
}

// Store persists feedback.
type Store interface {
	// Create persists feedback. Returns ErrDuplicate if the user already
	// rated the exchange.
	Create(ctx context.Context, f *Feedback) error

	// Get retrieves feedback. Returns nil, nil if not found.
	Get(ctx context.Context, id int64) (*Feedback, error)

	// Exists reports whether the user already rated the exchange.
	Exists(ctx context.Context, userID, exchangeID int64) (bool, error)

	// List returns feedback matching the filter, newest first unless
	// Ascending is set.
	List(ctx context.Context, filter Filter) ([]*Feedback, error)

	// Count counts feedback matching the filter.
	Count(ctx context.Context, filter Filter) (int, error)

	// UpdateStatus sets the status. Returns ErrNotFound if missing.
	UpdateStatus(ctx context.Context, id int64, status Status) error

	// Close releases resources.
	Close() error
}
