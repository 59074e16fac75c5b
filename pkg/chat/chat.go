// Package chat is the conversational session engine. It resolves which
// thread an incoming question belongs to, runs the generation exchange and
// persists each exchange exactly once.
package chat

import (
	"context"
	"errors"
	"time"
)

// DefaultSessionWindow is how long a thread stays open after its last
// activity.
const DefaultSessionWindow = 30 * time.Minute

var (
	// ErrOwnerNotFound is returned when the caller's account does not exist.
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrGenerationFailure wraps any failure of the text-generation service.
	ErrGenerationFailure = errors.New("generation failed")

	// ErrAccessDenied is returned when the caller may not act on a resource.
	ErrAccessDenied = errors.New("access denied")

	// ErrThreadNotFound is returned for an unknown thread id.
	ErrThreadNotFound = errors.New("thread not found")

	// ErrExchangeNotFound is returned for an unknown exchange id.
	ErrExchangeNotFound = errors.New("exchange not found")

	// ErrAlreadyFinalized is returned by FinalizeExchange for an exchange
	// that already holds its final answer.
	ErrAlreadyFinalized = errors.New("exchange already finalized")

	// ErrInvalidQuery is returned for malformed listing parameters.
	ErrInvalidQuery = errors.New("invalid query")
)

// Thread is one conversation owned by a single user.
type Thread struct {
	ID        int64     `json:"id,string"`
	OwnerID   int64     `json:"ownerId,string"`
	CreatedAt time.Time `json:"createdAt"`

	// LastExchangeAt is the creation time of the newest exchange, nil for an
	// empty thread.
	LastExchangeAt *time.Time `json:"lastExchangeAt,omitempty"`

	// Exchanges is populated only by listing operations.
	Exchanges []Exchange `json:"exchanges,omitempty"`
}

// ReferenceTime is the instant the session window is measured from.
func (t *Thread) ReferenceTime() time.Time {
	if t.LastExchangeAt != nil {
		return *t.LastExchangeAt
	}
	return t.CreatedAt
}

// Exchange is one question and its generated answer.
type Exchange struct {
	ID        int64     `json:"id,string"`
	ThreadID  int64     `json:"sessionId,string"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"createdAt"`

	// FinalizedAt is set once the answer is complete. A finalized exchange
	// is never modified again.
	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`
}

// OwnedExchange is an exchange joined with the owner of its thread.
type OwnedExchange struct {
	Exchange
	OwnerID int64
}

// ThreadFilter selects threads for listing.
type ThreadFilter struct {
	// OwnerID restricts results to one owner. Nil lists every thread.
	OwnerID   *int64
	Ascending bool
	Limit     int
	Offset    int
}

// Store persists threads and exchanges.
type Store interface {
	// CreateThread persists a new thread.
	CreateThread(ctx context.Context, t *Thread) error

	// GetThread retrieves a thread without its exchanges. Returns nil, nil
	// if not found.
	GetThread(ctx context.Context, id int64) (*Thread, error)

	// LatestThread returns the owner's most recently created thread with
	// LastExchangeAt populated. Ties on creation time are broken by the
	// larger id. Returns nil, nil if the owner has no threads.
	LatestThread(ctx context.Context, ownerID int64) (*Thread, error)

	// ListThreads returns threads ordered by creation time, without exchanges.
	ListThreads(ctx context.Context, filter ThreadFilter) ([]*Thread, error)

	// CountThreads counts threads matching the filter, ignoring paging.
	CountThreads(ctx context.Context, filter ThreadFilter) (int, error)

	// DeleteThread removes a thread and its exchanges. Returns
	// ErrThreadNotFound if nothing was deleted.
	DeleteThread(ctx context.Context, id int64) error

	// CreateExchange persists a new exchange.
	CreateExchange(ctx context.Context, e *Exchange) error

	// GetExchange retrieves one exchange. Returns nil, nil if not found.
	GetExchange(ctx context.Context, id int64) (*Exchange, error)

	// FinalizeExchange stores the final answer. Returns ErrAlreadyFinalized
	// if the exchange was finalized before and ErrExchangeNotFound if it
	// does not exist.
	FinalizeExchange(ctx context.Context, id int64, answer string, at time.Time) error

	// ListExchanges returns the exchanges of the given threads ordered by
	// creation time, then id.
	ListExchanges(ctx context.Context, threadIDs ...int64) ([]Exchange, error)

	// ExchangeOwner returns the owner of the exchange's thread.
	ExchangeOwner(ctx context.Context, exchangeID int64) (int64, error)

	// ExchangesBetween returns exchanges created in [from, to) with their owner.
	ExchangesBetween(ctx context.Context, from, to time.Time) ([]OwnedExchange, error)

	// CountExchangesBetween counts exchanges created in [from, to).
	CountExchangesBetween(ctx context.Context, from, to time.Time) (int, error)

	// Close releases resources.
	Close() error
}

// OwnerDirectory reports whether an account exists.
type OwnerDirectory interface {
	Exists(ctx context.Context, ownerID int64) (bool, error)
}

// IDAllocator hands out unique identifiers.
type IDAllocator interface {
	NextID() (int64, error)
}
