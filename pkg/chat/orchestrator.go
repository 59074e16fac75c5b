package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/txn2/chat-platform/pkg/generation"
)

// DefaultSystemPrompt is sent ahead of every conversation unless configured.
const DefaultSystemPrompt = "You are a helpful AI assistant."

const finalizeTimeout = 10 * time.Second

// EventKind identifies a streaming event.
type EventKind int

const (
	// EventStart is the first event and carries the exchange id.
	EventStart EventKind = iota

	// EventMessage carries one non-empty answer fragment.
	EventMessage

	// EventDone ends a successful exchange.
	EventDone

	// EventError ends a failed exchange. Err wraps ErrGenerationFailure.
	EventError
)

// String returns the wire name of the event.
func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventMessage:
		return "message"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one item of a live exchange.
type Event struct {
	Kind       EventKind
	ExchangeID int64
	Content    string
	Err        error
}

// OrchestratorConfig holds generation defaults.
type OrchestratorConfig struct {
	SystemPrompt string
	DefaultModel string
	MaxTokens    int
}

// Orchestrator runs exchanges against the generation service.
type Orchestrator struct {
	store Store
	ids   IDAllocator
	gen   generation.Generator
	cfg   OrchestratorConfig
	now   func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorClock replaces the wall clock.
func WithOrchestratorClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(store Store, ids IDAllocator, gen generation.Generator, cfg OrchestratorConfig, opts ...OrchestratorOption) *Orchestrator {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	o := &Orchestrator{
		store: store,
		ids:   ids,
		gen:   gen,
		cfg:   cfg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Stream starts a live exchange on thread.
//
// History loading, id allocation and creation of the exchange row happen
// before Stream returns; a failure there is returned directly and no events
// are produced. Generation then runs on its own goroutine. The channel
// yields EventStart, zero or more EventMessage and exactly one EventDone or
// EventError, then closes. The exchange is finalized with the forwarded
// fragments before the terminal event.
//
// The channel is unbuffered and every send blocks until the consumer
// receives. A consumer that stops reading without cancelling ctx therefore
// stalls generation at the next fragment; the worker pulls nothing further
// from the model and the exchange stays unfinalized until the consumer reads
// again or ctx is cancelled.
//
// Cancelling ctx stops generation. The exchange is still finalized with the
// fragments delivered so far, no terminal event is sent and the channel
// closes.
func (o *Orchestrator) Stream(ctx context.Context, thread *Thread, question, model string) (int64, <-chan Event, error) {
	req, err := o.request(ctx, thread, question, model)
	if err != nil {
		return 0, nil, err
	}

	ex, err := o.newExchange(thread.ID, question)
	if err != nil {
		return 0, nil, err
	}
	if err := o.store.CreateExchange(ctx, ex); err != nil {
		return 0, nil, fmt.Errorf("creating exchange: %w", err)
	}

	events := make(chan Event)
	go o.run(ctx, ex.ID, req, events)
	return ex.ID, events, nil
}

// Answer runs a non-streaming exchange and persists it already finalized.
// Nothing is persisted when generation fails.
func (o *Orchestrator) Answer(ctx context.Context, thread *Thread, question, model string) (*Exchange, error) {
	req, err := o.request(ctx, thread, question, model)
	if err != nil {
		return nil, err
	}

	answer, err := o.gen.Complete(ctx, req)
	if err != nil {
		slog.Warn("generation failed", "thread_id", thread.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}

	ex, err := o.newExchange(thread.ID, question)
	if err != nil {
		return nil, err
	}
	finalizedAt := ex.CreatedAt
	ex.Answer = answer
	ex.FinalizedAt = &finalizedAt

	if err := o.store.CreateExchange(ctx, ex); err != nil {
		return nil, fmt.Errorf("creating exchange: %w", err)
	}
	return ex, nil
}

func (o *Orchestrator) request(ctx context.Context, thread *Thread, question, model string) (generation.Request, error) {
	if thread == nil {
		return generation.Request{}, ErrThreadNotFound
	}

	history, err := o.store.ListExchanges(ctx, thread.ID)
	if err != nil {
		return generation.Request{}, fmt.Errorf("loading history: %w", err)
	}

	turns := make([]generation.Turn, 0, len(history))
	for _, e := range history {
		turns = append(turns, generation.Turn{Question: e.Question, Answer: e.Answer})
	}

	if model == "" {
		model = o.cfg.DefaultModel
	}
	return generation.Request{
		Model:     model,
		System:    o.cfg.SystemPrompt,
		History:   turns,
		Question:  question,
		MaxTokens: o.cfg.MaxTokens,
	}, nil
}

func (o *Orchestrator) newExchange(threadID int64, question string) (*Exchange, error) {
	id, err := o.ids.NextID()
	if err != nil {
		return nil, fmt.Errorf("allocating exchange id: %w", err)
	}
	return &Exchange{
		ID:        id,
		ThreadID:  threadID,
		Question:  question,
		CreatedAt: o.now(),
	}, nil
}

func (o *Orchestrator) run(ctx context.Context, exchangeID int64, req generation.Request, events chan<- Event) {
	defer close(events)

	var answer strings.Builder
	var genErr error

	defer func() {
		if r := recover(); r != nil {
			genErr = fmt.Errorf("%w: panic: %v", ErrGenerationFailure, r)
		}

		o.finalize(ctx, exchangeID, answer.String())

		if ctx.Err() != nil {
			slog.Info("exchange abandoned by consumer", "exchange_id", exchangeID, "forwarded_chars", answer.Len())
			return
		}
		if genErr != nil {
			slog.Warn("generation failed", "exchange_id", exchangeID, "error", genErr)
			send(ctx, events, Event{Kind: EventError, ExchangeID: exchangeID, Err: genErr})
			return
		}
		send(ctx, events, Event{Kind: EventDone, ExchangeID: exchangeID})
	}()

	if !send(ctx, events, Event{Kind: EventStart, ExchangeID: exchangeID}) {
		return
	}
	genErr = o.pump(ctx, exchangeID, req, events, &answer)
}

// pump forwards fragments until the stream ends, fails or the consumer goes
// away. Only forwarded fragments are appended to answer.
func (o *Orchestrator) pump(ctx context.Context, exchangeID int64, req generation.Request, events chan<- Event, answer *strings.Builder) error {
	stream, err := o.gen.Stream(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: opening stream: %w", ErrGenerationFailure, err)
	}
	defer func() { _ = stream.Close() }()

	for stream.Next() {
		fragment := stream.Fragment()
		if fragment == "" {
			continue
		}
		if !send(ctx, events, Event{Kind: EventMessage, ExchangeID: exchangeID, Content: fragment}) {
			return nil
		}
		answer.WriteString(fragment)
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}
	return nil
}

// finalize persists the answer. It runs once per exchange and outlives
// request cancellation.
func (o *Orchestrator) finalize(ctx context.Context, exchangeID int64, answer string) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	err := o.store.FinalizeExchange(fctx, exchangeID, answer, o.now())
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyFinalized):
		slog.Warn("exchange finalized twice", "exchange_id", exchangeID)
	default:
		slog.Error("finalizing exchange", "exchange_id", exchangeID, "error", err)
	}
}

func send(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
