package generation

import (
	"context"
	"strings"
)

// Echo answers every question by repeating it. It needs no credentials and is
// the default provider for local development.
type Echo struct{}

// Complete returns the echoed question.
func (Echo) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return echoAnswer(req.Question), nil
}

// Stream returns the echoed question one word at a time.
func (Echo) Stream(ctx context.Context, req Request) (FragmentStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewSliceStream(strings.SplitAfter(echoAnswer(req.Question), " "), nil), nil
}

func echoAnswer(question string) string {
	return "You said: " + question
}

var _ Generator = Echo{}
