package generation

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestMessages(t *testing.T) {
	req := Request{
		History: []Turn{
			{Question: "q1", Answer: "a1"},
			{Question: "q2", Answer: "a2"},
		},
		Question: "q3",
	}

	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "q2"},
		{Role: RoleAssistant, Content: "a2"},
		{Role: RoleUser, Content: "q3"},
	}, req.Messages())
}

func TestRequestMessages_UnansweredTurnsAlternate(t *testing.T) {
	tests := []struct {
		name    string
		history []Turn
		want    []Message
	}{
		{
			name:    "unanswered before the question",
			history: []Turn{{Question: "q1", Answer: "a1"}, {Question: "q2"}},
			want: []Message{
				{Role: RoleUser, Content: "q1"},
				{Role: RoleAssistant, Content: "a1"},
				{Role: RoleUser, Content: "q2\n\nq3"},
			},
		},
		{
			name:    "unanswered runs in the middle",
			history: []Turn{{Question: "q1"}, {Question: "q2"}, {Question: "q3", Answer: "a3"}},
			want: []Message{
				{Role: RoleUser, Content: "q1\n\nq2\n\nq3"},
				{Role: RoleAssistant, Content: "a3"},
				{Role: RoleUser, Content: "q3"},
			},
		},
		{
			name:    "nothing answered",
			history: []Turn{{Question: "q1"}},
			want:    []Message{{Role: RoleUser, Content: "q1\n\nq3"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := Request{History: tt.history, Question: "q3"}.Messages()
			assert.Equal(t, tt.want, msgs)
			for i, m := range msgs {
				want := RoleUser
				if i%2 == 1 {
					want = RoleAssistant
				}
				assert.Equal(t, want, m.Role, "message %d", i)
				assert.NotEmpty(t, m.Content, "message %d", i)
			}
		})
	}
}

func TestRequestMessages_NoHistory(t *testing.T) {
	msgs := Request{Question: "hi"}.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleUser, msgs[0].Role)
}

func drain(t *testing.T, s FragmentStream) ([]string, error) {
	t.Helper()
	var out []string
	for s.Next() {
		out = append(out, s.Fragment())
	}
	return out, s.Err()
}

func TestSliceStream(t *testing.T) {
	boom := errors.New("boom")
	s := NewSliceStream([]string{"Par", "tial"}, boom)

	assert.Empty(t, s.Fragment())
	assert.NoError(t, s.Err())

	got, err := drain(t, s)
	assert.Equal(t, []string{"Par", "tial"}, got)
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.Next(), "stays exhausted")

	require.NoError(t, s.Close())
	assert.True(t, s.Closed())
}

func TestSliceStream_CloseStopsIteration(t *testing.T) {
	s := NewSliceStream([]string{"a", "b"}, nil)
	require.True(t, s.Next())
	require.NoError(t, s.Close())
	assert.False(t, s.Next())
}

type fakeSource struct {
	chunks []int
	pos    int
	err    error
	closed bool
}

func (f *fakeSource) Next() bool {
	if f.pos >= len(f.chunks) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeSource) Current() int { return f.chunks[f.pos-1] }
func (f *fakeSource) Err() error   { return f.err }
func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func TestFromChunks(t *testing.T) {
	src := &fakeSource{chunks: []int{1, 0, 3}, err: errors.New("cut")}
	s := FromChunks[int](src, func(n int) string { return strings.Repeat("x", n) })

	got, err := drain(t, s)
	assert.Equal(t, []string{"x", "", "xxx"}, got)
	assert.EqualError(t, err, "cut")

	require.NoError(t, s.Close())
	assert.True(t, src.closed)
}

func TestFromSeq(t *testing.T) {
	boom := errors.New("boom")
	seq := func(yield func(string, error) bool) {
		if !yield("Hel", nil) {
			return
		}
		if !yield("lo", nil) {
			return
		}
		yield("", boom)
	}

	s := FromSeq[string](iter.Seq2[string, error](seq), func(v string) string { return v })
	got, err := drain(t, s)
	assert.Equal(t, []string{"Hel", "lo"}, got)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, s.Close())
}

func TestFromSeq_CloseEarlyStopsProducer(t *testing.T) {
	stopped := false
	seq := func(yield func(int, error) bool) {
		defer func() { stopped = true }()
		for i := 0; ; i++ {
			if !yield(i, nil) {
				return
			}
		}
	}

	s := FromSeq[int](iter.Seq2[int, error](seq), func(int) string { return "." })
	require.True(t, s.Next())
	require.NoError(t, s.Close())
	assert.True(t, stopped)
}

func TestEcho(t *testing.T) {
	ctx := context.Background()
	req := Request{Question: "hello there"}

	answer, err := Echo{}.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "You said: hello there", answer)

	s, err := Echo{}.Stream(ctx, req)
	require.NoError(t, err)
	got, err := drain(t, s)
	require.NoError(t, err)
	assert.Equal(t, answer, strings.Join(got, ""))
	assert.Greater(t, len(got), 1)
}

func TestEcho_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Echo{}.Complete(ctx, Request{Question: "q"})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = Echo{}.Stream(ctx, Request{Question: "q"})
	assert.ErrorIs(t, err, context.Canceled)
}
