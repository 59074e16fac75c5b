package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/txn2/chat-platform/pkg/user"
)

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu         sync.RWMutex
	activities []Activity
}

// NewMemoryStore creates a new in-memory activity store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Log records an activity.
func (s *MemoryStore) Log(_ context.Context, a Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, a)
	return nil
}

// CountByType counts activity in [from, to) grouped by type.
func (s *MemoryStore) CountByType(_ context.Context, from, to time.Time) (map[user.Activity]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[user.Activity]int)
	for _, a := range s.activities {
		if !a.CreatedAt.Before(from) && a.CreatedAt.Before(to) {
			counts[a.Type]++
		}
	}
	return counts, nil
}

// DeleteBefore removes activity older than cutoff.
func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.activities[:0]
	var removed int64
	for _, a := range s.activities {
		if a.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.activities = kept
	return removed, nil
}

// Close is a no-op.
func (*MemoryStore) Close() error {
	return nil
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
