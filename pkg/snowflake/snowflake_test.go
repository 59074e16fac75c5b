package snowflake

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testNodeID     = 7
	testWorkers    = 16
	testPerWorker  = 2000
	testFixedMilli = Epoch + 1_000_000
)

// fixedClock returns a clock that always reads ms.
func fixedClock(ms int64) Clock {
	return func() int64 { return ms }
}

func TestNew_NodeRange(t *testing.T) {
	tests := []struct {
		name    string
		nodeID  int64
		wantErr bool
	}{
		{name: "negative", nodeID: -1, wantErr: true},
		{name: "lower bound", nodeID: 0},
		{name: "upper bound", nodeID: MaxNodeID},
		{name: "one past upper bound", nodeID: MaxNodeID + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.nodeID)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfiguration)
				assert.Nil(t, g)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.nodeID, g.NodeID())
		})
	}
}

func TestNextID_Layout(t *testing.T) {
	g, err := New(testNodeID, WithClock(fixedClock(testFixedMilli)))
	require.NoError(t, err)

	first, err := g.NextID()
	require.NoError(t, err)
	second, err := g.NextID()
	require.NoError(t, err)

	want := int64(1_000_000)<<22 | testNodeID<<12
	assert.Equal(t, want, first)
	assert.Equal(t, want+1, second)

	parts := Decompose(second)
	assert.Equal(t, time.UnixMilli(testFixedMilli).UTC(), parts.Time)
	assert.Equal(t, int64(testNodeID), parts.NodeID)
	assert.Equal(t, int64(1), parts.Sequence)
}

func TestNextID_SequenceResetsWhenTimeAdvances(t *testing.T) {
	now := int64(testFixedMilli)
	g, err := New(testNodeID, WithClock(func() int64 { return now }))
	require.NoError(t, err)

	_, err = g.NextID()
	require.NoError(t, err)
	_, err = g.NextID()
	require.NoError(t, err)

	now++
	id, err := g.NextID()
	require.NoError(t, err)
	assert.Equal(t, int64(0), Decompose(id).Sequence)
}

func TestNextID_SequenceWrapWaitsForNextMillisecond(t *testing.T) {
	const spinReads = 3
	calls := 0
	clock := func() int64 {
		calls++
		if calls <= maxSequence+1+spinReads {
			return testFixedMilli
		}
		return testFixedMilli + 1
	}

	g, err := New(testNodeID, WithClock(clock))
	require.NoError(t, err)

	var last int64
	for i := 0; i <= maxSequence; i++ {
		id, err := g.NextID()
		require.NoError(t, err)
		assert.Equal(t, int64(i), Decompose(id).Sequence)
		last = id
	}

	wrapped, err := g.NextID()
	require.NoError(t, err)
	assert.Greater(t, wrapped, last)

	parts := Decompose(wrapped)
	assert.Equal(t, int64(0), parts.Sequence)
	assert.Equal(t, time.UnixMilli(testFixedMilli+1).UTC(), parts.Time)
}

func TestNextID_ClockRegressed(t *testing.T) {
	now := int64(testFixedMilli)
	g, err := New(testNodeID, WithClock(func() int64 { return now }))
	require.NoError(t, err)

	_, err = g.NextID()
	require.NoError(t, err)

	now -= 5
	id, err := g.NextID()
	assert.ErrorIs(t, err, ErrClockRegressed)
	assert.Zero(t, id)

	now += 10
	_, err = g.NextID()
	assert.NoError(t, err, "generator recovers once the clock passes the last timestamp")
}

func TestNextID_BeforeEpoch(t *testing.T) {
	g, err := New(0, WithClock(fixedClock(Epoch-1)))
	require.NoError(t, err)

	_, err = g.NextID()
	assert.ErrorIs(t, err, ErrClockRegressed)
}

func TestNextID_ConcurrentCallersGetDistinctOrderedIDs(t *testing.T) {
	g, err := New(testNodeID)
	require.NoError(t, err)

	results := make([][]int64, testWorkers)
	var wg sync.WaitGroup
	for w := range testWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, testPerWorker)
			for range testPerWorker {
				id, err := g.NextID()
				if err != nil {
					t.Errorf("NextID: %v", err)
					return
				}
				ids = append(ids, id)
			}
			results[w] = ids
		}()
	}
	wg.Wait()

	seen := make(map[int64]struct{}, testWorkers*testPerWorker)
	for _, ids := range results {
		assert.True(t, slices.IsSorted(ids), "ids from one caller follow call order")
		for _, id := range ids {
			_, dup := seen[id]
			require.False(t, dup, "duplicate id %d", id)
			seen[id] = struct{}{}
		}
	}
	assert.Len(t, seen, testWorkers*testPerWorker)
}
