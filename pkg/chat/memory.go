package chat

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore implements Store with in-process maps. Returned values are
// copies; callers may modify them freely.
type MemoryStore struct {
	mu        sync.RWMutex
	threads   map[int64]Thread
	exchanges map[int64]Exchange
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		threads:   make(map[int64]Thread),
		exchanges: make(map[int64]Exchange),
	}
}

// CreateThread persists a new thread.
func (s *MemoryStore) CreateThread(_ context.Context, t *Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *t
	stored.Exchanges = nil
	stored.LastExchangeAt = nil
	s.threads[t.ID] = stored
	return nil
}

// GetThread retrieves a thread. Returns nil, nil if not found.
func (s *MemoryStore) GetThread(_ context.Context, id int64) (*Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.threads[id]
	if !ok {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	return s.withActivity(t), nil
}

// LatestThread returns the owner's newest thread. Returns nil, nil if none.
func (s *MemoryStore) LatestThread(_ context.Context, ownerID int64) (*Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *Thread
	for _, t := range s.threads {
		if t.OwnerID != ownerID {
			continue
		}
		if latest == nil || compareThreads(t, *latest) > 0 {
			latest = &t
		}
	}
	if latest == nil {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	return s.withActivity(*latest), nil
}

// ListThreads returns threads matching the filter.
func (s *MemoryStore) ListThreads(_ context.Context, filter ThreadFilter) ([]*Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.filterThreads(filter)
	slices.SortFunc(matched, compareThreads)
	if !filter.Ascending {
		slices.Reverse(matched)
	}

	start := min(filter.Offset, len(matched))
	end := len(matched)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(matched))
	}

	result := make([]*Thread, 0, end-start)
	for _, t := range matched[start:end] {
		result = append(result, s.withActivity(t))
	}
	return result, nil
}

// CountThreads counts threads matching the filter.
func (s *MemoryStore) CountThreads(_ context.Context, filter ThreadFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.filterThreads(filter)), nil
}

// DeleteThread removes a thread and its exchanges.
func (s *MemoryStore) DeleteThread(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[id]; !ok {
		return ErrThreadNotFound
	}
	delete(s.threads, id)
	for eid, e := range s.exchanges {
		if e.ThreadID == id {
			delete(s.exchanges, eid)
		}
	}
	return nil
}

// CreateExchange persists a new exchange.
func (s *MemoryStore) CreateExchange(_ context.Context, e *Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[e.ThreadID]; !ok {
		return ErrThreadNotFound
	}
	s.exchanges[e.ID] = *e
	return nil
}

// GetExchange retrieves one exchange. Returns nil, nil if not found.
func (s *MemoryStore) GetExchange(_ context.Context, id int64) (*Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.exchanges[id]
	if !ok {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	return &e, nil
}

// FinalizeExchange stores the final answer once.
func (s *MemoryStore) FinalizeExchange(_ context.Context, id int64, answer string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.exchanges[id]
	if !ok {
		return ErrExchangeNotFound
	}
	if e.FinalizedAt != nil {
		return ErrAlreadyFinalized
	}
	e.Answer = answer
	e.FinalizedAt = &at
	s.exchanges[id] = e
	return nil
}

// ListExchanges returns the exchanges of the given threads in creation order.
func (s *MemoryStore) ListExchanges(_ context.Context, threadIDs ...int64) ([]Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Exchange, 0)
	for _, e := range s.exchanges {
		if slices.Contains(threadIDs, e.ThreadID) {
			result = append(result, e)
		}
	}
	slices.SortFunc(result, compareExchanges)
	return result, nil
}

// ExchangeOwner returns the owner of the exchange's thread.
func (s *MemoryStore) ExchangeOwner(_ context.Context, exchangeID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.exchanges[exchangeID]
	if !ok {
		return 0, ErrExchangeNotFound
	}
	t, ok := s.threads[e.ThreadID]
	if !ok {
		return 0, ErrExchangeNotFound
	}
	return t.OwnerID, nil
}

// ExchangesBetween returns exchanges created in [from, to).
func (s *MemoryStore) ExchangesBetween(_ context.Context, from, to time.Time) ([]OwnedExchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []OwnedExchange
	for _, e := range s.exchanges {
		if !inRange(e.CreatedAt, from, to) {
			continue
		}
		result = append(result, OwnedExchange{Exchange: e, OwnerID: s.threads[e.ThreadID].OwnerID})
	}
	slices.SortFunc(result, func(a, b OwnedExchange) int {
		return compareExchanges(a.Exchange, b.Exchange)
	})
	return result, nil
}

// CountExchangesBetween counts exchanges created in [from, to).
func (s *MemoryStore) CountExchangesBetween(_ context.Context, from, to time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.exchanges {
		if inRange(e.CreatedAt, from, to) {
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (*MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) filterThreads(filter ThreadFilter) []Thread {
	var matched []Thread
	for _, t := range s.threads {
		if filter.OwnerID != nil && t.OwnerID != *filter.OwnerID {
			continue
		}
		matched = append(matched, t)
	}
	return matched
}

// withActivity returns a copy of t with LastExchangeAt derived from its
// exchanges. Must hold mu.
func (s *MemoryStore) withActivity(t Thread) *Thread {
	for _, e := range s.exchanges {
		if e.ThreadID != t.ID {
			continue
		}
		if t.LastExchangeAt == nil || e.CreatedAt.After(*t.LastExchangeAt) {
			at := e.CreatedAt
			t.LastExchangeAt = &at
		}
	}
	return &t
}

func compareThreads(a, b Thread) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func compareExchanges(a, b Exchange) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
