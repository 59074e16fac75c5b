package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Resolver decides whether a question continues the owner's latest thread or
// starts a new one.
//
// Resolution reads the latest thread and creates a new one in two separate
// steps. Two concurrent first questions from the same owner may therefore
// each create a thread; both threads are valid and later questions continue
// the newer one.
type Resolver struct {
	owners OwnerDirectory
	store  Store
	ids    IDAllocator
	window time.Duration
	now    func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSessionWindow sets how long a thread stays open after its last activity.
func WithSessionWindow(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.window = d
		}
	}
}

// WithResolverClock replaces the wall clock.
func WithResolverClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver.
func NewResolver(owners OwnerDirectory, store Store, ids IDAllocator, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		owners: owners,
		store:  store,
		ids:    ids,
		window: DefaultSessionWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Window returns the configured session window.
func (r *Resolver) Window() time.Duration {
	return r.window
}

// Resolve returns the thread the owner's next question belongs to, creating
// one when the latest thread is missing or its window has elapsed.
func (r *Resolver) Resolve(ctx context.Context, ownerID int64) (*Thread, error) {
	ok, err := r.owners.Exists(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("looking up owner: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrOwnerNotFound, ownerID)
	}

	latest, err := r.store.LatestThread(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("loading latest thread: %w", err)
	}

	now := r.now()
	if latest != nil && r.IsOpen(latest, now) {
		return latest, nil
	}

	id, err := r.ids.NextID()
	if err != nil {
		return nil, fmt.Errorf("allocating thread id: %w", err)
	}

	t := &Thread{ID: id, OwnerID: ownerID, CreatedAt: now}
	if err := r.store.CreateThread(ctx, t); err != nil {
		return nil, fmt.Errorf("creating thread: %w", err)
	}

	slog.Debug("thread created", "thread_id", id, "owner_id", ownerID)
	return t, nil
}

// IsOpen reports whether t can still take questions at now. A thread is open
// while no more than the session window has passed since its reference time.
func (r *Resolver) IsOpen(t *Thread, now time.Time) bool {
	return now.Sub(t.ReferenceTime()) <= r.window
}
