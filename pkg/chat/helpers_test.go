package chat

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/txn2/chat-platform/pkg/generation"
)

const (
	testOwnerID = int64(1001)
	otherOwner  = int64(2002)
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

// fakeOwners is an OwnerDirectory backed by a set.
type fakeOwners map[int64]bool

func (f fakeOwners) Exists(_ context.Context, id int64) (bool, error) {
	return f[id], nil
}

// seqIDs hands out 1, 2, 3, ...
type seqIDs struct {
	n   atomic.Int64
	err error
}

func (s *seqIDs) NextID() (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.n.Add(1), nil
}

// spyStore wraps MemoryStore to inject failures and count finalizations.
type spyStore struct {
	*MemoryStore

	listExchangesErr  error
	createExchangeErr error
	latestErr         error
	finalizeCalls     atomic.Int32
}

func newSpyStore() *spyStore {
	return &spyStore{MemoryStore: NewMemoryStore()}
}

func (s *spyStore) ListExchanges(ctx context.Context, ids ...int64) ([]Exchange, error) {
	if s.listExchangesErr != nil {
		return nil, s.listExchangesErr
	}
	return s.MemoryStore.ListExchanges(ctx, ids...)
}

func (s *spyStore) CreateExchange(ctx context.Context, e *Exchange) error {
	if s.createExchangeErr != nil {
		return s.createExchangeErr
	}
	return s.MemoryStore.CreateExchange(ctx, e)
}

func (s *spyStore) LatestThread(ctx context.Context, ownerID int64) (*Thread, error) {
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	return s.MemoryStore.LatestThread(ctx, ownerID)
}

func (s *spyStore) FinalizeExchange(ctx context.Context, id int64, answer string, at time.Time) error {
	s.finalizeCalls.Add(1)
	return s.MemoryStore.FinalizeExchange(ctx, id, answer, at)
}

// scriptedGenerator replays fixed output and records requests.
type scriptedGenerator struct {
	fragments []string
	streamErr error
	openErr   error
	panicAt   int // panic when pulling fragment panicAt; 0 disables

	answer      string
	completeErr error

	mu       sync.Mutex
	requests []generation.Request
	streams  []*generation.SliceStream
}

func (g *scriptedGenerator) record(req generation.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
}

func (g *scriptedGenerator) lastRequest(t *testing.T) generation.Request {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		t.Fatal("generator was not called")
	}
	return g.requests[len(g.requests)-1]
}

func (g *scriptedGenerator) Complete(_ context.Context, req generation.Request) (string, error) {
	g.record(req)
	return g.answer, g.completeErr
}

func (g *scriptedGenerator) Stream(_ context.Context, req generation.Request) (generation.FragmentStream, error) {
	g.record(req)
	if g.openErr != nil {
		return nil, g.openErr
	}
	s := generation.NewSliceStream(g.fragments, g.streamErr)
	g.mu.Lock()
	g.streams = append(g.streams, s)
	g.mu.Unlock()
	if g.panicAt > 0 {
		return &panicStream{SliceStream: s, at: g.panicAt}, nil
	}
	return s, nil
}

type panicStream struct {
	*generation.SliceStream
	at    int
	pulls int
}

func (p *panicStream) Next() bool {
	p.pulls++
	if p.pulls == p.at {
		panic("stream exploded")
	}
	return p.SliceStream.Next()
}

// blockingGenerator streams fragments pushed by the test and honours ctx.
type blockingGenerator struct {
	fragments chan string
}

func (*blockingGenerator) Complete(context.Context, generation.Request) (string, error) {
	return "", nil
}

func (g *blockingGenerator) Stream(ctx context.Context, _ generation.Request) (generation.FragmentStream, error) {
	return &blockingStream{ctx: ctx, in: g.fragments}, nil
}

type blockingStream struct {
	ctx context.Context
	in  <-chan string
	cur string
	err error
}

func (s *blockingStream) Next() bool {
	select {
	case f, ok := <-s.in:
		if !ok {
			return false
		}
		s.cur = f
		return true
	case <-s.ctx.Done():
		s.err = s.ctx.Err()
		return false
	}
}

func (s *blockingStream) Fragment() string { return s.cur }
func (s *blockingStream) Err() error       { return s.err }
func (*blockingStream) Close() error       { return nil }

// collect drains events until the channel closes.
func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("event channel did not close")
			return out
		}
	}
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func seedThread(t *testing.T, store Store, id, owner int64, createdAt time.Time) *Thread {
	t.Helper()
	th := &Thread{ID: id, OwnerID: owner, CreatedAt: createdAt}
	if err := store.CreateThread(context.Background(), th); err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	return th
}

func seedExchange(t *testing.T, store Store, id, threadID int64, createdAt time.Time, q, a string) {
	t.Helper()
	e := &Exchange{ID: id, ThreadID: threadID, Question: q, Answer: a, CreatedAt: createdAt, FinalizedAt: &createdAt}
	if err := store.CreateExchange(context.Background(), e); err != nil {
		t.Fatalf("CreateExchange: %v", err)
	}
}
