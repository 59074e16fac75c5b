package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/txn2/chat-platform/pkg/generation"
)

func TestResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{name: "nil", resp: nil, want: ""},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, want: ""},
		{
			name: "nil content",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
			want: "",
		},
		{
			name: "skips thoughts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "thinking", Thought: true},
					{Text: "Hello"},
					nil,
					{Text: " world"},
				}},
			}}},
			want: "Hello world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, responseText(tt.resp))
		})
	}
}

func TestParams(t *testing.T) {
	c := &Client{model: DefaultModel, maxTokens: 100}

	model, contents, config := c.params(generation.Request{
		System:   "be brief",
		History:  []generation.Turn{{Question: "q1", Answer: "a1"}},
		Question: "q2",
	})

	assert.Equal(t, DefaultModel, model)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "a1", contents[1].Parts[0].Text)
	assert.Equal(t, "q2", contents[2].Parts[0].Text)

	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, "be brief", config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, int32(100), config.MaxOutputTokens)
}

func TestParams_RequestOverrides(t *testing.T) {
	c := &Client{model: DefaultModel}

	model, _, config := c.params(generation.Request{Model: "other", MaxTokens: 7, Question: "q"})
	assert.Equal(t, "other", model)
	assert.Nil(t, config.SystemInstruction)
	assert.Equal(t, int32(7), config.MaxOutputTokens)
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello"}]}}]}`)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	answer, err := c.Complete(context.Background(), generation.Request{Question: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", answer)
}
