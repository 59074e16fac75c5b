package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/chat-platform/pkg/auth"
)

var (
	member = auth.Identity{UserID: testOwnerID, Role: auth.RoleMember}
	other  = auth.Identity{UserID: otherOwner, Role: auth.RoleMember}
	admin  = auth.Identity{UserID: 1, Role: auth.RoleAdmin}
)

func newTestService(store Store, gen *scriptedGenerator) *Service {
	ids := &seqIDs{}
	ids.n.Store(1000)
	clock := func() time.Time { return testNow }
	resolver := NewResolver(fakeOwners{testOwnerID: true, otherOwner: true, 1: true}, store, ids, WithResolverClock(clock))
	orch := NewOrchestrator(store, ids, gen, OrchestratorConfig{}, WithOrchestratorClock(clock))
	return NewService(resolver, orch, store)
}

func TestService_AskContinuesThread(t *testing.T) {
	store := NewMemoryStore()
	svc := newTestService(store, &scriptedGenerator{answer: "fine"})
	ctx := context.Background()

	first, err := svc.Ask(ctx, member, "how are you?", "")
	require.NoError(t, err)
	second, err := svc.Ask(ctx, member, "and now?", "")
	require.NoError(t, err)

	assert.Equal(t, first.ThreadID, second.ThreadID)

	owner, err := svc.ExchangeOwner(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, testOwnerID, owner)
}

func TestService_AskUnknownOwner(t *testing.T) {
	svc := newTestService(NewMemoryStore(), &scriptedGenerator{})

	_, err := svc.Ask(context.Background(), auth.Identity{UserID: 404}, "q", "")
	assert.ErrorIs(t, err, ErrOwnerNotFound)

	_, _, err = svc.AskStream(context.Background(), auth.Identity{UserID: 404}, "q", "")
	assert.ErrorIs(t, err, ErrOwnerNotFound)
}

func TestService_AskStream(t *testing.T) {
	store := NewMemoryStore()
	svc := newTestService(store, &scriptedGenerator{fragments: []string{"a", "b"}})

	id, events, err := svc.AskStream(context.Background(), member, "q", "")
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventStart, EventMessage, EventMessage, EventDone}, kinds(collect(t, events)))

	e, err := store.GetExchange(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "ab", e.Answer)
}

func seedListing(t *testing.T, store Store) {
	t.Helper()
	for i := range int64(12) {
		seedThread(t, store, i+1, testOwnerID, testNow.Add(time.Duration(i)*time.Minute))
		seedExchange(t, store, 100+i, i+1, testNow.Add(time.Duration(i)*time.Minute), "q", "a")
	}
	seedThread(t, store, 50, otherOwner, testNow)
}

func TestService_ListThreads(t *testing.T) {
	store := NewMemoryStore()
	seedListing(t, store)
	svc := newTestService(store, &scriptedGenerator{})
	ctx := context.Background()

	page, err := svc.ListThreads(ctx, member, PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, DefaultPageSize, page.Size)
	assert.Equal(t, 12, page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Threads, 10)
	assert.Equal(t, int64(12), page.Threads[0].ID, "newest first by default")
	require.Len(t, page.Threads[0].Exchanges, 1)
	assert.Equal(t, int64(111), page.Threads[0].Exchanges[0].ID)

	second, err := svc.ListThreads(ctx, member, PageQuery{Page: 1, Size: 10, Sort: "ASC"})
	require.NoError(t, err)
	require.Len(t, second.Threads, 2)
	assert.Equal(t, int64(11), second.Threads[0].ID)

	all, err := svc.ListThreads(ctx, admin, PageQuery{Size: 100})
	require.NoError(t, err)
	assert.Equal(t, 13, all.TotalElements)
	assert.Len(t, all.Threads, 13)

	empty, err := svc.ListThreads(ctx, other, PageQuery{Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, empty.TotalElements)
	assert.Empty(t, empty.Threads)
}

func TestService_ListThreadsInvalidQuery(t *testing.T) {
	svc := newTestService(NewMemoryStore(), &scriptedGenerator{})

	for _, q := range []PageQuery{{Page: -1}, {Size: -5}, {Size: MaxPageSize + 1}, {Sort: "sideways"}} {
		_, err := svc.ListThreads(context.Background(), member, q)
		assert.ErrorIs(t, err, ErrInvalidQuery, "%+v", q)
	}
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, PageCount(0, 10))
	assert.Equal(t, 1, PageCount(10, 10))
	assert.Equal(t, 2, PageCount(11, 10))
	assert.Equal(t, 0, PageCount(5, 0))
}

func TestService_DeleteThread(t *testing.T) {
	ctx := context.Background()

	t.Run("owner", func(t *testing.T) {
		store := NewMemoryStore()
		seedThread(t, store, 1, testOwnerID, testNow)
		require.NoError(t, newTestService(store, &scriptedGenerator{}).DeleteThread(ctx, member, 1))
	})

	t.Run("admin", func(t *testing.T) {
		store := NewMemoryStore()
		seedThread(t, store, 1, testOwnerID, testNow)
		require.NoError(t, newTestService(store, &scriptedGenerator{}).DeleteThread(ctx, admin, 1))
	})

	t.Run("someone else", func(t *testing.T) {
		store := NewMemoryStore()
		seedThread(t, store, 1, testOwnerID, testNow)
		err := newTestService(store, &scriptedGenerator{}).DeleteThread(ctx, other, 1)
		assert.ErrorIs(t, err, ErrAccessDenied)

		th, _ := store.GetThread(ctx, 1)
		assert.NotNil(t, th)
	})

	t.Run("unknown", func(t *testing.T) {
		err := newTestService(NewMemoryStore(), &scriptedGenerator{}).DeleteThread(ctx, admin, 1)
		assert.ErrorIs(t, err, ErrThreadNotFound)
	})
}
