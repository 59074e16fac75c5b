package platform

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLifecycle_StartAndStop(t *testing.T) {
	lc := NewLifecycle()

	var started, stopped bool
	lc.Append("component", func(_ context.Context) error {
		started = true
		return nil
	}, func(_ context.Context) error {
		stopped = true
		return nil
	})

	if err := lc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !started {
		t.Error("start callback not called")
	}
	if !lc.IsStarted() {
		t.Error("IsStarted() = false after Start()")
	}

	if err := lc.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !stopped {
		t.Error("stop callback not called")
	}
	if lc.IsStarted() {
		t.Error("IsStarted() = true after Stop()")
	}
}

func TestLifecycle_StartAlreadyStarted(t *testing.T) {
	lc := NewLifecycle()
	_ = lc.Start(context.Background())

	if err := lc.Start(context.Background()); err == nil {
		t.Error("Start() expected error for already started")
	}
}

func TestLifecycle_StopNotStarted(t *testing.T) {
	lc := NewLifecycle()
	called := false
	lc.OnStop("x", func(context.Context) error {
		called = true
		return nil
	})
	if err := lc.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v, expected nil for not started", err)
	}
	if called {
		t.Error("stop step ran without Start")
	}
}

func TestLifecycle_StopReverseOrder(t *testing.T) {
	lc := NewLifecycle()

	var calls []string
	for _, name := range []string{"a", "b", "c"} {
		lc.OnStop(name, func(context.Context) error {
			calls = append(calls, name)
			return nil
		})
	}

	_ = lc.Start(context.Background())
	_ = lc.Stop(context.Background())

	if got := strings.Join(calls, ","); got != "c,b,a" {
		t.Errorf("stop order = %s, want c,b,a", got)
	}
}

func TestLifecycle_StartRollbackOnError(t *testing.T) {
	lc := NewLifecycle()

	var calls []string
	lc.Append("first", func(context.Context) error {
		calls = append(calls, "start1")
		return nil
	}, func(context.Context) error {
		calls = append(calls, "stop1")
		return nil
	})
	lc.Append("second", func(context.Context) error {
		calls = append(calls, "start2")
		return errors.New("boom")
	}, func(context.Context) error {
		calls = append(calls, "stop2")
		return nil
	})
	lc.Append("third", func(context.Context) error {
		calls = append(calls, "start3")
		return nil
	}, nil)

	err := lc.Start(context.Background())
	if err == nil {
		t.Fatal("Start() expected error")
	}
	if !strings.Contains(err.Error(), "starting second") {
		t.Errorf("error = %v, want component name", err)
	}
	if got := strings.Join(calls, ","); got != "start1,start2,stop1" {
		t.Errorf("calls = %s, want start1,start2,stop1", got)
	}
	if lc.IsStarted() {
		t.Error("IsStarted() = true after failed Start()")
	}
}

func TestLifecycle_StopJoinsErrors(t *testing.T) {
	lc := NewLifecycle()

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ranC := false
	lc.OnStop("a", func(context.Context) error { return errA })
	lc.OnStop("b", func(context.Context) error { return errB })
	lc.OnStop("c", func(context.Context) error {
		ranC = true
		return nil
	})

	_ = lc.Start(context.Background())
	err := lc.Stop(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Stop() error = %v, want both failures", err)
	}
	if !ranC {
		t.Error("later stop steps must still run")
	}
}

type fakeCloser struct {
	closed bool
}

func (f *fakeCloser) Close() error {
	f.closed = true
	return nil
}

func TestLifecycle_RegisterCloser(t *testing.T) {
	lc := NewLifecycle()
	c := &fakeCloser{}
	lc.RegisterCloser("fake", c)

	_ = lc.Start(context.Background())
	if c.closed {
		t.Fatal("closed before Stop")
	}
	_ = lc.Stop(context.Background())
	if !c.closed {
		t.Error("closer not called on Stop")
	}
}
