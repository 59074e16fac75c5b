// Package anthropic adapts the Anthropic Messages API to generation.Generator.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/txn2/chat-platform/pkg/generation"
)

const (
	// DefaultModel is used when neither Config nor the request names a model.
	DefaultModel = "claude-3-5-haiku-latest"

	// defaultMaxTokens is required by the Messages API.
	defaultMaxTokens = 1024
)

// ErrEmptyResponse is returned when a message carries no text blocks.
var ErrEmptyResponse = errors.New("anthropic: no text in response")

// Config configures the client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
}

// Client implements generation.Generator.
type Client struct {
	client    anthropicsdk.Client
	model     string
	maxTokens int
}

// New creates a client with retries disabled.
func New(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	c := &Client{
		client:    anthropicsdk.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	return c
}

// Complete sends one message request and concatenates its text blocks.
func (c *Client) Complete(ctx context.Context, req generation.Request) (string, error) {
	message, err := c.client.Messages.New(ctx, c.params(req))
	if err != nil {
		return "", fmt.Errorf("anthropic message: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		b.WriteString(block.Text)
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

// Stream opens a streaming message request. Only text deltas become
// fragments; other events yield empty fragments.
func (c *Client) Stream(ctx context.Context, req generation.Request) (generation.FragmentStream, error) {
	stream := c.client.Messages.NewStreaming(ctx, c.params(req))
	return generation.FromChunks[anthropicsdk.MessageStreamEventUnion](stream, eventText), nil
}

func eventText(event anthropicsdk.MessageStreamEventUnion) string {
	ev, ok := event.AsAny().(anthropicsdk.ContentBlockDeltaEvent)
	if !ok {
		return ""
	}
	if delta, ok := ev.Delta.AsAny().(anthropicsdk.TextDelta); ok {
		return delta.Text
	}
	return ""
}

func (c *Client) params(req generation.Request) anthropicsdk.MessageNewParams {
	msgs := req.Messages()
	messages := make([]anthropicsdk.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		block := anthropicsdk.NewTextBlock(m.Content)
		if m.Role == generation.RoleAssistant {
			messages = append(messages, anthropicsdk.NewAssistantMessage(block))
			continue
		}
		messages = append(messages, anthropicsdk.NewUserMessage(block))
	}

	model := c.model
	if req.Model != "" {
		model = req.Model
	}
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: req.System}}
	}
	return params
}

// Verify interface compliance.
var _ generation.Generator = (*Client)(nil)
