package analytics

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/txn2/chat-platform/pkg/auth"
	"github.com/txn2/chat-platform/pkg/chat"
	"github.com/txn2/chat-platform/pkg/user"
)

// ExchangeSource reads exchanges for reporting.
type ExchangeSource interface {
	ExchangesBetween(ctx context.Context, from, to time.Time) ([]chat.OwnedExchange, error)
	CountExchangesBetween(ctx context.Context, from, to time.Time) (int, error)
}

// UserLookup resolves report authors. Returns nil, nil for unknown ids.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// IDAllocator supplies activity ids.
type IDAllocator interface {
	NextID() (int64, error)
}

// Service records activity and produces admin reports.
type Service struct {
	store     Store
	exchanges ExchangeSource
	users     UserLookup
	ids       IDAllocator
	now       func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an analytics service.
func NewService(store Store, exchanges ExchangeSource, users UserLookup, ids IDAllocator, opts ...Option) *Service {
	s := &Service{
		store:     store,
		exchanges: exchanges,
		users:     users,
		ids:       ids,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordActivity logs an account event.
func (s *Service) RecordActivity(ctx context.Context, userID int64, activity user.Activity) error {
	id, err := s.ids.NextID()
	if err != nil {
		return fmt.Errorf("allocating activity id: %w", err)
	}
	a := Activity{ID: id, UserID: userID, Type: activity, CreatedAt: s.now().UTC()}
	if err := s.store.Log(ctx, a); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// Stats returns today's counts. Admin only.
func (s *Service) Stats(ctx context.Context, caller auth.Identity) (*DailyStats, error) {
	if !caller.IsAdmin() {
		return nil, chat.ErrAccessDenied
	}

	from, to := dayBounds(s.now())
	counts, err := s.store.CountByType(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("counting activity: %w", err)
	}
	exchanges, err := s.exchanges.CountExchangesBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("counting exchanges: %w", err)
	}

	return &DailyStats{
		Date:      from.Format(time.DateOnly),
		Signups:   counts[user.ActivitySignup],
		Logins:    counts[user.ActivityLogin],
		Exchanges: exchanges,
	}, nil
}

// WriteReport writes today's exchanges as CSV. Admin only.
func (s *Service) WriteReport(ctx context.Context, caller auth.Identity, w io.Writer) error {
	if !caller.IsAdmin() {
		return chat.ErrAccessDenied
	}

	from, to := dayBounds(s.now())
	exchanges, err := s.exchanges.ExchangesBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("listing exchanges: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ReportHeader); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}

	authors := make(map[int64]*user.User)
	for _, e := range exchanges {
		author, ok := authors[e.OwnerID]
		if !ok {
			author, err = s.users.GetByID(ctx, e.OwnerID)
			if err != nil {
				return fmt.Errorf("looking up user %d: %w", e.OwnerID, err)
			}
			authors[e.OwnerID] = author
		}

		var email, name string
		if author != nil {
			email, name = author.Email, author.Name
		}
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.Question,
			e.Answer,
			e.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(e.OwnerID, 10),
			email,
			name,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing report row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing report: %w", err)
	}
	return nil
}

// Cleanup removes activity older than the retention period.
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) error {
	removed, err := s.store.DeleteBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return fmt.Errorf("cleaning up activity: %w", err)
	}
	if removed > 0 {
		slog.Info("removed expired activity", "count", removed)
	}
	return nil
}

// StartCleanupRoutine starts a background goroutine that periodically
// deletes expired activity. The goroutine is stopped when Close is called.
func (s *Service) StartCleanupRoutine(interval, retention time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Cleanup(ctx, retention); err != nil {
					slog.Warn("activity cleanup failed", "error", err)
				}
			}
		}
	}()
}

// Close stops the cleanup goroutine if it was started.
func (s *Service) Close() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	return nil
}

// Verify interface compliance.
var _ user.ActivityRecorder = (*Service)(nil)
