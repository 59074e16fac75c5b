// Package gemini adapts the Google Gen AI SDK to generation.Generator.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/txn2/chat-platform/pkg/generation"
)

// DefaultModel is used when neither Config nor the request names a model.
const DefaultModel = "gemini-2.0-flash"

// ErrEmptyResponse is returned when no candidate carries text.
var ErrEmptyResponse = errors.New("gemini: no text in response")

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
	client    *genai.Client
	model     string
	maxTokens int
}

// New creates a client for the Gemini API backend.
func New(ctx context.Context, cfg Config) (*Client, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: client, model: model, maxTokens: cfg.MaxTokens}, nil
}

// Complete generates a full answer.
func (c *Client) Complete(ctx context.Context, req generation.Request) (string, error) {
	model, contents, config := c.params(req)
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Stream opens a streaming generation.
func (c *Client) Stream(ctx context.Context, req generation.Request) (generation.FragmentStream, error) {
	model, contents, config := c.params(req)
	seq := c.client.Models.GenerateContentStream(ctx, model, contents, config)
	return generation.FromSeq[*genai.GenerateContentResponse](seq, responseText), nil
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func (c *Client) params(req generation.Request) (string, []*genai.Content, *genai.GenerateContentConfig) {
	msgs := req.Messages()
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		if m.Role == generation.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: m.Content}},
			Role:  role,
		})
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens) //nolint:gosec // bounded by config validation
	}

	model := c.model
	if req.Model != "" {
		model = req.Model
	}
	return model, contents, config
}

// Verify interface compliance.
var _ generation.Generator = (*Client)(nil)
