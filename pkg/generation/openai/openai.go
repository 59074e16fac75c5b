// Package openai adapts the OpenAI chat completions API to generation.Generator.
// Any OpenAI-compatible endpoint works by setting Config.BaseURL.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/txn2/chat-platform/pkg/generation"
)

// DefaultModel is used when neither Config nor the request names a model.
const DefaultModel = "gpt-4o-mini"

// ErrEmptyResponse is returned when a completion carries no choices.
var ErrEmptyResponse = errors.New("openai: no choices in response")

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
	client    openaisdk.Client
	model     string
	maxTokens int
}

// New creates a client. Retries are disabled; a failed call surfaces as is.
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

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client:    openaisdk.NewClient(opts...),
		model:     model,
		maxTokens: cfg.MaxTokens,
	}
}

// Complete requests a single completion.
func (c *Client) Complete(ctx context.Context, req generation.Request) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, c.params(req))
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return completion.Choices[0].Message.Content, nil
}

// Stream opens a streaming completion. Transport errors surface through the
// returned stream's Err.
func (c *Client) Stream(ctx context.Context, req generation.Request) (generation.FragmentStream, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(req))
	return generation.FromChunks[openaisdk.ChatCompletionChunk](stream, chunkText), nil
}

func chunkText(chunk openaisdk.ChatCompletionChunk) string {
	if len(chunk.Choices) == 0 {
		return ""
	}
	return chunk.Choices[0].Delta.Content
}

func (c *Client) params(req generation.Request) openaisdk.ChatCompletionNewParams {
	msgs := req.Messages()
	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if req.System != "" {
		messages = append(messages, openaisdk.SystemMessage(req.System))
	}
	for _, m := range msgs {
		switch m.Role {
		case generation.RoleAssistant:
			messages = append(messages, openaisdk.AssistantMessage(m.Content))
		default:
			messages = append(messages, openaisdk.UserMessage(m.Content))
		}
	}

	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(model),
		Messages: messages,
	}

	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(maxTokens))
	}
	return params
}

// Verify interface compliance.
var _ generation.Generator = (*Client)(nil)
