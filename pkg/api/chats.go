package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/txn2/chat-platform/pkg/chat"
	mwhttp "github.com/txn2/chat-platform/pkg/http"
)

type askRequest struct {
	Question string `json:"question"`
	Model    string `json:"model,omitempty"`
	Stream   bool   `json:"stream,omitempty"`
}

// exchangeResponse is the non-streamed answer.
type exchangeResponse struct {
	ID        int64     `json:"id,string"`
	SessionID int64     `json:"sessionId,string"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"createdAt"`
}

// ask handles POST /api/v1/chats.
//
//	@Summary		Ask a question
//	@Description	Answers in the caller's current thread. With stream=true the answer is sent as server-sent events: start, message..., then done or error.
//	@Tags			Chats
//	@Accept			json
//	@Produce		json
//	@Produce		text/event-stream
//	@Param			body	body		askRequest	true	"Question"
//	@Success		201		{object}	exchangeResponse
//	@Failure		400		{object}	mwhttp.Problem
//	@Failure		502		{object}	mwhttp.Problem
//	@Security		BearerAuth
//	@Router			/chats [post]
func (h *Handler) ask(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeServiceError(w, r, fmt.Errorf("%w: question is required", errBadRequest))
		return
	}

	if req.Stream {
		h.askStream(w, r, req)
		return
	}

	ex, err := h.deps.Conversations.Ask(r.Context(), id, req.Question, req.Model)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	mwhttp.WriteJSON(w, http.StatusCreated, exchangeResponse{
		ID:        ex.ID,
		SessionID: ex.ThreadID,
		Question:  ex.Question,
		Answer:    ex.Answer,
		CreatedAt: ex.CreatedAt,
	})
}

// askStream relays orchestrator events as SSE. Errors before the first
// event are returned as ordinary problem responses.
func (h *Handler) askStream(w http.ResponseWriter, r *http.Request, req askRequest) {
	id, _ := caller(r)
	ctx := r.Context()

	exchangeID, events, err := h.deps.Conversations.AskStream(ctx, id, req.Question, req.Model)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		// Nothing will read the events; drain so the worker can finish.
		go drain(events)
		writeServiceError(w, r, err)
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(sse, ev); err != nil {
				slog.Debug("sse write failed", "exchange_id", exchangeID, "error", err)
				go drain(events)
				return
			}
		case <-heartbeat.C:
			if err := sse.ping(); err != nil {
				go drain(events)
				return
			}
		}
	}
}

func writeEvent(sse *sseWriter, ev chat.Event) error {
	switch ev.Kind {
	case chat.EventStart:
		return sse.start(ev.ExchangeID)
	case chat.EventMessage:
		return sse.message(ev.Content)
	case chat.EventDone:
		return sse.done()
	case chat.EventError:
		return sse.fail()
	default:
		return nil
	}
}

func drain(events <-chan chat.Event) {
	for range events {
	}
}

// listThreads handles GET /api/v1/chats/threads.
//
//	@Summary		List threads
//	@Description	Returns a page of threads with their exchanges. Admins see all threads.
//	@Tags			Chats
//	@Produce		json
//	@Param			page	query		integer	false	"Zero-based page (default 0)"
//	@Param			size	query		integer	false	"Page size (default 10, max 100)"
//	@Param			sort	query		string	false	"asc or desc by creation time (default desc)"
//	@Success		200		{object}	chat.ThreadPage
//	@Failure		400		{object}	mwhttp.Problem
//	@Security		BearerAuth
//	@Router			/chats/threads [get]
func (h *Handler) listThreads(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	q, err := parsePageQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	page, err := h.deps.Conversations.ListThreads(r.Context(), id, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	mwhttp.WriteJSON(w, http.StatusOK, page)
}

// deleteThread handles DELETE /api/v1/chats/threads/{id}.
//
//	@Summary		Delete thread
//	@Description	Deletes a thread and its exchanges. Owner or admin only.
//	@Tags			Chats
//	@Param			id	path	string	true	"Thread ID"
//	@Success		204
//	@Failure		403	{object}	mwhttp.Problem
//	@Failure		404	{object}	mwhttp.Problem
//	@Security		BearerAuth
//	@Router			/chats/threads/{id} [delete]
func (h *Handler) deleteThread(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	threadID, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.deps.Conversations.DeleteThread(r.Context(), id, threadID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
