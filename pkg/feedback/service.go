package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/txn2/chat-platform/pkg/auth"
	"github.com/txn2/chat-platform/pkg/chat"
)

// ExchangeOwners resolves who owns an exchange.
type ExchangeOwners interface {
	ExchangeOwner(ctx context.Context, exchangeID int64) (int64, error)
}

// IDAllocator supplies feedback ids.
type IDAllocator interface {
	NextID() (int64, error)
}

// Query is a feedback listing request.
type Query struct {
	chat.PageQuery
	Positive *bool
}

// Page is one page of feedback.
type Page struct {
	Feedback      []*Feedback `json:"feedback"`
	Page          int         `json:"page"`
	Size          int         `json:"size"`
	TotalElements int         `json:"total_elements"`
	TotalPages    int         `json:"total_pages"`
}

// Service applies access rules to feedback.
type Service struct {
	store  Store
	owners ExchangeOwners
	ids    IDAllocator
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a feedback service.
func NewService(store Store, owners ExchangeOwners, ids IDAllocator, opts ...Option) *Service {
	s := &Service{store: store, owners: owners, ids: ids, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create records the caller's rating of an exchange. The caller must own the
// exchange's thread or be an admin.
func (s *Service) Create(ctx context.Context, caller auth.Identity, exchangeID int64, positive bool) (*Feedback, error) {
	owner, err := s.owners.ExchangeOwner(ctx, exchangeID)
	if err != nil {
		if errors.Is(err, chat.ErrExchangeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("resolving exchange owner: %w", err)
	}
	if !caller.CanAccess(owner) {
		return nil, chat.ErrAccessDenied
	}

	exists, err := s.store.Exists(ctx, caller.UserID, exchangeID)
	if err != nil {
		return nil, fmt.Errorf("checking feedback: %w", err)
	}
	if exists {
		return nil, ErrDuplicate
	}

	id, err := s.ids.NextID()
	if err != nil {
		return nil, fmt.Errorf("allocating feedback id: %w", err)
	}
	f := &Feedback{
		ID:         id,
		UserID:     caller.UserID,
		ExchangeID: exchangeID,
		Positive:   positive,
		Status:     StatusPending,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.Create(ctx, f); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("creating feedback: %w", err)
	}
	return f, nil
}

// List returns a page of feedback. Admins see everything, other callers
// only their own.
func (s *Service) List(ctx context.Context, caller auth.Identity, q Query) (*Page, error) {
	pq, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	filter := Filter{
		Positive:  q.Positive,
		Ascending: pq.Ascending(),
		Limit:     pq.Size,
		Offset:    pq.Offset(),
	}
	if !caller.IsAdmin() {
		filter.UserID = &caller.UserID
	}

	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("counting feedback: %w", err)
	}
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}

	return &Page{
		Feedback:      items,
		Page:          pq.Page,
		Size:          pq.Size,
		TotalElements: total,
		TotalPages:    chat.PageCount(total, pq.Size),
	}, nil
}

// UpdateStatus changes the review status. Admin only.
func (s *Service) UpdateStatus(ctx context.Context, caller auth.Identity, id int64, status Status) (*Feedback, error) {
	if !caller.IsAdmin() {
		return nil, chat.ErrAccessDenied
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating feedback status: %w", err)
	}

	f, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading feedback: %w", err)
	}
	if f == nil {
		return nil, ErrNotFound
	}
	return f, nil
}
