package feedback

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

type pairKey struct {
	userID, exchangeID int64
}

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[int64]Feedback
	byRating map[pairKey]int64
}

// NewMemoryStore creates a new in-memory feedback store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:    make(map[int64]Feedback),
		byRating: make(map[pairKey]int64),
	}
}

// Create persists feedback.
func (s *MemoryStore) Create(_ context.Context, f *Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{f.UserID, f.ExchangeID}
	if _, ok := s.byRating[key]; ok {
		return ErrDuplicate
	}
	s.items[f.ID] = *f
	s.byRating[key] = f.ID
	return nil
}

// Get retrieves feedback. Returns nil, nil if not found.
func (s *MemoryStore) Get(_ context.Context, id int64) (*Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.items[id]
	if !ok {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	return &f, nil
}

// Exists reports whether the user already rated the exchange.
func (s *MemoryStore) Exists(_ context.Context, userID, exchangeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byRating[pairKey{userID, exchangeID}]
	return ok, nil
}

// List returns feedback matching the filter.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]*Feedback, error) {
	s.mu.RLock()
	matched := s.match(filter)
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b Feedback) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if filter.Ascending {
			return c
		}
		return -c
	})

	if filter.Offset >= len(matched) {
		return []*Feedback{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	out := make([]*Feedback, len(matched))
	for i := range matched {
		out[i] = &matched[i]
	}
	return out, nil
}

// Count counts feedback matching the filter.
func (s *MemoryStore) Count(_ context.Context, filter Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.match(filter)), nil
}

// UpdateStatus sets the status.
func (s *MemoryStore) UpdateStatus(_ context.Context, id int64, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	f.Status = status
	s.items[id] = f
	return nil
}

// Close is a no-op.
func (*MemoryStore) Close() error {
	return nil
}

// match returns copies of feedback passing the filter. Must hold mu.
func (s *MemoryStore) match(filter Filter) []Feedback {
	var matched []Feedback
	for _, f := range s.items {
		if filter.UserID != nil && f.UserID != *filter.UserID {
			continue
		}
		if filter.Positive != nil && f.Positive != *filter.Positive {
			continue
		}
		matched = append(matched, f)
	}
	return matched
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
