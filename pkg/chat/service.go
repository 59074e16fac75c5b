package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/txn2/chat-platform/pkg/auth"
)

const (
	// DefaultPageSize is used when a listing does not name a size.
	DefaultPageSize = 10

	// MaxPageSize caps listing page sizes.
	MaxPageSize = 100
)

// PageQuery is a paginated listing request. Page is zero-based; Sort is
// "asc" or "desc" by creation time.
type PageQuery struct {
	Page int
	Size int
	Sort string
}

// Ascending reports whether the normalized query sorts oldest first.
func (q PageQuery) Ascending() bool {
	return q.Sort == "asc"
}

// Offset returns the number of rows to skip.
func (q PageQuery) Offset() int {
	return q.Page * q.Size
}

// PageCount returns the number of pages needed for total rows.
func PageCount(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// ThreadPage is one page of threads.
type ThreadPage struct {
	Threads       []*Thread `json:"threads"`
	Page          int       `json:"page"`
	Size          int       `json:"size"`
	TotalElements int       `json:"total_elements"`
	TotalPages    int       `json:"total_pages"`
}

// Service is the caller-facing entry point. It applies access rules on top of
// the resolver and orchestrator.
type Service struct {
	resolver     *Resolver
	orchestrator *Orchestrator
	store        Store
}

// NewService creates a Service.
func NewService(resolver *Resolver, orchestrator *Orchestrator, store Store) *Service {
	return &Service{resolver: resolver, orchestrator: orchestrator, store: store}
}

// Ask answers a question in the caller's current thread without streaming.
func (s *Service) Ask(ctx context.Context, caller auth.Identity, question, model string) (*Exchange, error) {
	thread, err := s.resolver.Resolve(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.Answer(ctx, thread, question, model)
}

// AskStream answers a question in the caller's current thread as a live
// event sequence. See Orchestrator.Stream.
func (s *Service) AskStream(ctx context.Context, caller auth.Identity, question, model string) (int64, <-chan Event, error) {
	thread, err := s.resolver.Resolve(ctx, caller.UserID)
	if err != nil {
		return 0, nil, err
	}
	return s.orchestrator.Stream(ctx, thread, question, model)
}

// ListThreads returns a page of threads with their exchanges. Admins see
// every thread, other callers only their own.
func (s *Service) ListThreads(ctx context.Context, caller auth.Identity, q PageQuery) (*ThreadPage, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	filter := ThreadFilter{
		Ascending: q.Ascending(),
		Limit:     q.Size,
		Offset:    q.Offset(),
	}
	if !caller.IsAdmin() {
		filter.OwnerID = &caller.UserID
	}

	total, err := s.store.CountThreads(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("counting threads: %w", err)
	}
	threads, err := s.store.ListThreads(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}
	if err := s.attachExchanges(ctx, threads); err != nil {
		return nil, err
	}

	return &ThreadPage{
		Threads:       threads,
		Page:          q.Page,
		Size:          q.Size,
		TotalElements: total,
		TotalPages:    PageCount(total, q.Size),
	}, nil
}

// DeleteThread removes a thread owned by the caller, or any thread for admins.
func (s *Service) DeleteThread(ctx context.Context, caller auth.Identity, threadID int64) error {
	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return fmt.Errorf("loading thread: %w", err)
	}
	if thread == nil {
		return ErrThreadNotFound
	}
	if !caller.CanAccess(thread.OwnerID) {
		return ErrAccessDenied
	}
	return s.store.DeleteThread(ctx, threadID)
}

// ExchangeOwner returns the owner of the exchange's thread.
func (s *Service) ExchangeOwner(ctx context.Context, exchangeID int64) (int64, error) {
	return s.store.ExchangeOwner(ctx, exchangeID)
}

func (s *Service) attachExchanges(ctx context.Context, threads []*Thread) error {
	if len(threads) == 0 {
		return nil
	}

	ids := make([]int64, len(threads))
	byID := make(map[int64]*Thread, len(threads))
	for i, t := range threads {
		ids[i] = t.ID
		byID[t.ID] = t
	}

	exchanges, err := s.store.ListExchanges(ctx, ids...)
	if err != nil {
		return fmt.Errorf("loading exchanges: %w", err)
	}
	for _, e := range exchanges {
		t := byID[e.ThreadID]
		t.Exchanges = append(t.Exchanges, e)
	}
	return nil
}

// Normalize applies defaults and validates the query. Failures wrap
// ErrInvalidQuery.
func (q PageQuery) Normalize() (PageQuery, error) {
	if q.Page < 0 {
		return q, fmt.Errorf("%w: page must not be negative", ErrInvalidQuery)
	}
	switch {
	case q.Size == 0:
		q.Size = DefaultPageSize
	case q.Size < 0 || q.Size > MaxPageSize:
		return q, fmt.Errorf("%w: size must be between 1 and %d", ErrInvalidQuery, MaxPageSize)
	}

	q.Sort = strings.ToLower(q.Sort)
	switch q.Sort {
	case "":
		q.Sort = "desc"
	case "asc", "desc":
	default:
		return q, fmt.Errorf("%w: sort must be asc or desc", ErrInvalidQuery)
	}
	return q, nil
}
