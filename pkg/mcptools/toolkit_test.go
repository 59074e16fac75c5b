package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/chat-platform/pkg/auth"
	"github.com/txn2/chat-platform/pkg/chat"
)

const testKey = "mcp-key"

var (
	testMember = auth.Identity{UserID: 7, Role: auth.RoleMember}
	testNow    = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
)

// fakeChats records calls and returns canned results.
type fakeChats struct {
	askErr  error
	listErr error

	askCaller  auth.Identity
	askModel   string
	listCaller auth.Identity
	listQuery  chat.PageQuery
}

func (f *fakeChats) Ask(_ context.Context, caller auth.Identity, question, model string) (*chat.Exchange, error) {
	f.askCaller = caller
	f.askModel = model
	if f.askErr != nil {
		return nil, f.askErr
	}
	return &chat.Exchange{ID: 11, ThreadID: 3, Question: question, Answer: "answer to " + question, CreatedAt: testNow}, nil
}

func (f *fakeChats) ListThreads(_ context.Context, caller auth.Identity, q chat.PageQuery) (*chat.ThreadPage, error) {
	f.listCaller = caller
	f.listQuery = q
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &chat.ThreadPage{
		Threads:       []*chat.Thread{{ID: 3, OwnerID: caller.UserID, CreatedAt: testNow}},
		Page:          q.Page,
		Size:          10,
		TotalElements: 1,
		TotalPages:    1,
	}, nil
}

func newTestToolkit(chats *fakeChats) *Toolkit {
	return New(chats, auth.NewAPIKeyAuthenticator([]auth.APIKey{{Key: testKey, UserID: testMember.UserID}}))
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent")
	return tc.Text
}

func TestHandleAsk(t *testing.T) {
	chats := &fakeChats{}
	tk := newTestToolkit(chats)
	ctx := auth.WithIdentity(context.Background(), &testMember)

	result, extra, err := tk.handleAsk(ctx, &mcp.CallToolRequest{}, askInput{Question: "why?", Model: "m1"})
	require.NoError(t, err)
	assert.Nil(t, extra)
	assert.False(t, result.IsError)

	var ex chat.Exchange
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &ex))
	assert.Equal(t, int64(11), ex.ID)
	assert.Equal(t, "answer to why?", ex.Answer)
	assert.Equal(t, testMember, chats.askCaller)
	assert.Equal(t, "m1", chats.askModel)
}

func TestHandleAsk_Errors(t *testing.T) {
	ctx := auth.WithIdentity(context.Background(), &testMember)

	tests := []struct {
		name    string
		ctx     context.Context
		in      askInput
		askErr  error
		want    string
		notWant string
	}{
		{name: "unauthenticated", ctx: context.Background(), in: askInput{Question: "q"}, want: "authentication required"},
		{name: "empty question", ctx: ctx, in: askInput{}, want: "question is required"},
		{name: "unknown owner", ctx: ctx, in: askInput{Question: "q"}, askErr: chat.ErrOwnerNotFound, want: "owner not found"},
		{
			name:    "generation failure hides cause",
			ctx:     ctx,
			in:      askInput{Question: "q"},
			askErr:  fmt.Errorf("%w: upstream 503", chat.ErrGenerationFailure),
			want:    "generation failed",
			notWant: "upstream",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := newTestToolkit(&fakeChats{askErr: tt.askErr})
			result, _, err := tk.handleAsk(tt.ctx, &mcp.CallToolRequest{}, tt.in)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			text := resultText(t, result)
			assert.Contains(t, text, tt.want)
			if tt.notWant != "" {
				assert.NotContains(t, text, tt.notWant)
			}
		})
	}
}

func TestHandleListThreads(t *testing.T) {
	chats := &fakeChats{}
	tk := newTestToolkit(chats)
	ctx := auth.WithToken(context.Background(), testKey)

	result, _, err := tk.handleListThreads(ctx, &mcp.CallToolRequest{}, listThreadsInput{Page: 2, Size: 5, Sort: "asc"})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var page chat.ThreadPage
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &page))
	require.Len(t, page.Threads, 1)
	assert.Equal(t, testMember.UserID, page.Threads[0].OwnerID)
	assert.Equal(t, chat.PageQuery{Page: 2, Size: 5, Sort: "asc"}, chats.listQuery)
	assert.Equal(t, testMember.UserID, chats.listCaller.UserID)

	chats.listErr = chat.ErrInvalidQuery
	result, _, err = tk.handleListThreads(ctx, &mcp.CallToolRequest{}, listThreadsInput{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestIdentify(t *testing.T) {
	tk := newTestToolkit(&fakeChats{})

	t.Run("from header", func(t *testing.T) {
		req := &mcp.CallToolRequest{Extra: &mcp.RequestExtra{Header: http.Header{"X-Api-Key": []string{testKey}}}}
		id, err := tk.identify(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, testMember.UserID, id.UserID)
		assert.Equal(t, auth.RoleMember, id.Role)
	})

	t.Run("bad token", func(t *testing.T) {
		_, err := tk.identify(auth.WithToken(context.Background(), "nope"), nil)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("no authenticator", func(t *testing.T) {
		bare := New(&fakeChats{}, nil)
		_, err := bare.identify(auth.WithToken(context.Background(), testKey), nil)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
}

func TestErrorResult(t *testing.T) {
	result := errorResult(errors.New("boom"))
	assert.True(t, result.IsError)
	assert.Equal(t, "Error: boom", result.Content[0].(*mcp.TextContent).Text)
}

// connectInMemory connects a client to server over in-memory transports,
// carrying ctx values into the server session.
func connectInMemory(ctx context.Context, t *testing.T, server *mcp.Server) *mcp.ClientSession {
	t.Helper()
	t1, t2 := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, t1, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v1"}, nil)
	cs, err := client.Connect(context.Background(), t2, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestServer_ListsTools(t *testing.T) {
	server := NewServer("chat-platform", "test", newTestToolkit(&fakeChats{}))
	cs := connectInMemory(context.Background(), t, server)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{ToolAsk, ToolListThreads}, names)
}

func TestServer_CallAsk(t *testing.T) {
	chats := &fakeChats{}
	server := NewServer("chat-platform", "test", newTestToolkit(chats))
	cs := connectInMemory(auth.WithToken(context.Background(), testKey), t, server)

	result, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolAsk,
		Arguments: map[string]any{"question": "hello"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))
	assert.Contains(t, resultText(t, result), "answer to hello")
	assert.Equal(t, testMember.UserID, chats.askCaller.UserID)
}

// headerRoundTripper adds an API key to every outgoing request.
type headerRoundTripper struct {
	key  string
	base http.RoundTripper
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("X-API-Key", h.key)
	return h.base.RoundTrip(req)
}

func TestServer_StreamableHTTP(t *testing.T) {
	ctx := context.Background()
	chats := &fakeChats{}
	server := NewServer("chat-platform", "test", newTestToolkit(chats))

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	httpServer := httptest.NewServer(handler)
	defer httpServer.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v1"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   httpServer.URL,
		HTTPClient: &http.Client{Transport: &headerRoundTripper{key: testKey, base: http.DefaultTransport}},
	}, nil)
	require.NoError(t, err)
	defer func() { _ = session.Close() }()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      ToolListThreads,
		Arguments: map[string]any{"size": 5},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))
	assert.Equal(t, testMember.UserID, chats.listCaller.UserID)
	assert.Equal(t, 5, chats.listQuery.Size)
}
