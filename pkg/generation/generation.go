// Package generation defines the text-generation service consumed by the chat
// engine. Providers live in sub-packages; each adapts one vendor SDK to the
// Generator interface.
package generation

import (
	"context"
	"strings"
)

// Role identifies the author of a Message.
type Role string

const (
	// RoleUser marks a caller question.
	RoleUser Role = "user"

	// RoleAssistant marks a previously generated answer.
	RoleAssistant Role = "assistant"
)

// Turn is one prior question/answer pair of a conversation.
type Turn struct {
	Question string
	Answer   string
}

// Request is a single generation call.
type Request struct {
	// Model overrides the provider's configured model when non-empty.
	Model string

	// System is the instruction prompt sent ahead of the conversation.
	System string

	// History holds earlier turns in creation order.
	History []Turn

	// Question is the new user message.
	Question string

	// MaxTokens caps the answer length. Zero uses the provider default.
	MaxTokens int
}

// Message is a flattened conversation entry.
type Message struct {
	Role    Role
	Content string
}

// Messages flattens the history and question into strictly alternating user
// and assistant messages, starting and ending with a user message. A turn
// with an empty answer has its question carried into the next user message,
// separated by a blank line, so no assistant message is ever empty.
func (r Request) Messages() []Message {
	msgs := make([]Message, 0, len(r.History)*2+1)
	var pending []string
	for _, t := range r.History {
		pending = append(pending, t.Question)
		if t.Answer == "" {
			continue
		}
		msgs = append(msgs,
			Message{Role: RoleUser, Content: strings.Join(pending, "\n\n")},
			Message{Role: RoleAssistant, Content: t.Answer},
		)
		pending = pending[:0]
	}
	pending = append(pending, r.Question)
	return append(msgs, Message{Role: RoleUser, Content: strings.Join(pending, "\n\n")})
}

// Generator produces answers.
type Generator interface {
	// Complete returns the full answer in one call.
	Complete(ctx context.Context, req Request) (string, error)

	// Stream opens a live fragment sequence. The caller must Close it.
	Stream(ctx context.Context, req Request) (FragmentStream, error)
}

// FragmentStream is a pull iterator over answer fragments.
//
//	for s.Next() {
//		use(s.Fragment())
//	}
//	if err := s.Err(); err != nil { ... }
type FragmentStream interface {
	// Next advances to the next fragment. It returns false at the end of the
	// sequence or on error.
	Next() bool

	// Fragment returns the current fragment. It may be empty.
	Fragment() string

	// Err returns the error that ended the sequence, if any.
	Err() error

	// Close releases the underlying connection.
	Close() error
}
