// Package mcptools exposes the chat engine as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/chat-platform/pkg/auth"
	"github.com/txn2/chat-platform/pkg/chat"
	mwhttp "github.com/txn2/chat-platform/pkg/http"
)

// Tool names.
const (
	ToolAsk         = "ask"
	ToolListThreads = "list_threads"
)

// Conversations is the part of the chat service the tools use.
type Conversations interface {
	Ask(ctx context.Context, caller auth.Identity, question, model string) (*chat.Exchange, error)
	ListThreads(ctx context.Context, caller auth.Identity, q chat.PageQuery) (*chat.ThreadPage, error)
}

// Toolkit registers chat tools on an MCP server.
type Toolkit struct {
	chats         Conversations
	authenticator auth.Authenticator
}

// New creates a Toolkit. The authenticator resolves callers whose identity is
// not already in the request context.
func New(chats Conversations, authenticator auth.Authenticator) *Toolkit {
	return &Toolkit{chats: chats, authenticator: authenticator}
}

// NewServer creates an MCP server with the toolkit's tools registered.
func NewServer(name, version string, t *Toolkit) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)
	t.RegisterTools(server)
	return server
}

type askInput struct {
	Question string `json:"question" jsonschema:"the question to answer"`
	Model    string `json:"model,omitempty" jsonschema:"generation model override"`
}

type listThreadsInput struct {
	Page int    `json:"page,omitempty" jsonschema:"zero-based page number"`
	Size int    `json:"size,omitempty" jsonschema:"threads per page, at most 100"`
	Sort string `json:"sort,omitempty" jsonschema:"asc or desc by creation time"`
}

// RegisterTools adds the chat tools to server.
func (t *Toolkit) RegisterTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name: ToolAsk,
		Description: "Ask the assistant a question. The question continues the caller's current " +
			"conversation when it is recent, otherwise a new conversation starts.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in askInput) (*mcp.CallToolResult, any, error) {
		return t.handleAsk(ctx, req, in)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolListThreads,
		Description: "List the caller's conversations with their questions and answers, newest first.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in listThreadsInput) (*mcp.CallToolResult, any, error) {
		return t.handleListThreads(ctx, req, in)
	})
}

func (t *Toolkit) handleAsk(ctx context.Context, req *mcp.CallToolRequest, in askInput) (*mcp.CallToolResult, any, error) {
	caller, err := t.identify(ctx, req)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if in.Question == "" {
		return errorResult(errors.New("question is required")), nil, nil
	}

	ex, err := t.chats.Ask(ctx, caller, in.Question, in.Model)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(ex), nil, nil
}

func (t *Toolkit) handleListThreads(ctx context.Context, req *mcp.CallToolRequest, in listThreadsInput) (*mcp.CallToolResult, any, error) {
	caller, err := t.identify(ctx, req)
	if err != nil {
		return errorResult(err), nil, nil
	}

	page, err := t.chats.ListThreads(ctx, caller, chat.PageQuery{Page: in.Page, Size: in.Size, Sort: in.Sort})
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(page), nil, nil
}

// identify resolves the caller from the context identity, the context token,
// or the HTTP headers of the originating request, in that order.
func (t *Toolkit) identify(ctx context.Context, req *mcp.CallToolRequest) (auth.Identity, error) {
	if id := auth.GetIdentity(ctx); id != nil {
		return *id, nil
	}

	token := auth.GetToken(ctx)
	if token == "" && req != nil && req.Extra != nil && req.Extra.Header != nil {
		token = mwhttp.TokenFromHeader(req.Extra.Header)
	}
	if token == "" || t.authenticator == nil {
		return auth.Identity{}, auth.ErrUnauthenticated
	}

	id, err := t.authenticator.Authenticate(auth.WithToken(ctx, token))
	if err != nil {
		return auth.Identity{}, err
	}
	return *id, nil
}

// errorResult reports err to the client. Generation details stay server side.
func errorResult(err error) *mcp.CallToolResult {
	msg := err.Error()
	if errors.Is(err, chat.ErrGenerationFailure) {
		msg = chat.ErrGenerationFailure.Error()
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + msg}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}
