package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// hook is one named startup or shutdown step. Either func may be nil.
type hook struct {
	name  string
	start func(context.Context) error
	stop  func(context.Context) error
}

// Lifecycle starts components in registration order and stops them in
// reverse.
type Lifecycle struct {
	mu      sync.Mutex
	hooks   []hook
	started int // number of hooks whose start ran; -1 before Start
}

// NewLifecycle creates a new lifecycle manager.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{started: -1}
}

// Append registers a named step. Stop runs only if start ran (or start is nil).
func (l *Lifecycle) Append(name string, start, stop func(context.Context) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, hook{name: name, start: start, stop: stop})
}

// OnStop registers a shutdown-only step.
func (l *Lifecycle) OnStop(name string, stop func(context.Context) error) {
	l.Append(name, nil, stop)
}

// Closer is something that can be closed.
type Closer interface {
	Close() error
}

// RegisterCloser closes c on shutdown.
func (l *Lifecycle) RegisterCloser(name string, c Closer) {
	l.OnStop(name, func(context.Context) error {
		return c.Close()
	})
}

// Start runs every start step. When one fails, the steps already started are
// stopped in reverse order and the error is returned.
func (l *Lifecycle) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started >= 0 {
		return fmt.Errorf("lifecycle already started")
	}

	for i, h := range l.hooks {
		if h.start == nil {
			continue
		}
		if err := h.start(ctx); err != nil {
			l.stopFrom(ctx, i-1)
			return fmt.Errorf("starting %s: %w", h.name, err)
		}
		slog.Debug("started", "component", h.name)
	}

	l.started = len(l.hooks)
	return nil
}

// Stop runs every stop step in reverse order. All steps run even when some
// fail; the failures are joined.
func (l *Lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started < 0 {
		return nil
	}
	err := l.stopFrom(ctx, l.started-1)
	l.started = -1
	return err
}

// IsStarted returns whether the lifecycle has been started.
func (l *Lifecycle) IsStarted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started >= 0
}

func (l *Lifecycle) stopFrom(ctx context.Context, last int) error {
	var errs []error
	for i := last; i >= 0; i-- {
		h := l.hooks[i]
		if h.stop == nil {
			continue
		}
		if err := h.stop(ctx); err != nil {
			slog.Warn("stop failed", "component", h.name, "error", err)
			errs = append(errs, fmt.Errorf("stopping %s: %w", h.name, err))
		}
	}
	return errors.Join(errs...)
}
