package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

var errStreamingUnsupported = errors.New("streaming unsupported by response writer")

// sseWriter frames server-sent events and flushes each one.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, nil
}

type startPayload struct {
	ExchangeID string `json:"exchangeId"`
}

type messagePayload struct {
	Content string `json:"content"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func (s *sseWriter) start(exchangeID int64) error {
	return s.event("start", startPayload{ExchangeID: strconv.FormatInt(exchangeID, 10)})
}

func (s *sseWriter) message(content string) error {
	return s.event("message", messagePayload{Content: content})
}

func (s *sseWriter) done() error {
	return s.event("done", "")
}

func (s *sseWriter) fail() error {
	return s.event("error", errorPayload{Error: "generation failed"})
}

// ping writes an SSE comment to keep idle connections open.
func (s *sseWriter) ping() error {
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) event(name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", name, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
