package platform

import (
	"testing"
	"time"

	"github.com/txn2/chat-platform/pkg/generation"
)

func TestWithDB(t *testing.T) {
	opts := &Options{}
	WithDB(nil)(opts)

	if opts.DB != nil {
		t.Error("WithDB should set nil DB")
	}
}

func TestWithGenerator(t *testing.T) {
	opts := &Options{}
	WithGenerator(generation.Echo{})(opts)

	if _, ok := opts.Generator.(generation.Echo); !ok {
		t.Errorf("Generator = %T, want generation.Echo", opts.Generator)
	}
}

func TestWithVersion(t *testing.T) {
	opts := &Options{}
	WithVersion("1.0.0")(opts)

	if opts.Version != "1.0.0" {
		t.Errorf("Version = %q", opts.Version)
	}
}

func TestWithClock(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	opts := &Options{}
	WithClock(func() time.Time { return fixed })(opts)

	if !opts.Now().Equal(fixed) {
		t.Errorf("Now() = %v, want %v", opts.Now(), fixed)
	}
}

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GenerationConfig
		wantErr bool
	}{
		{"echo", GenerationConfig{Provider: ProviderEcho}, false},
		{"openai", GenerationConfig{Provider: ProviderOpenAI, APIKey: "k"}, false},
		{"anthropic", GenerationConfig{Provider: ProviderAnthropic, APIKey: "k"}, false},
		{"gemini", GenerationConfig{Provider: ProviderGemini, APIKey: "k"}, false},
		{"unknown", GenerationConfig{Provider: "mystery"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := newGenerator(t.Context(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newGenerator() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && gen == nil {
				t.Error("newGenerator() returned nil generator")
			}
		})
	}
}
