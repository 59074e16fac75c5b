package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/txn2/chat-platform/pkg/auth"
	"github.com/txn2/chat-platform/pkg/chat"
	"github.com/txn2/chat-platform/pkg/feedback"
	mwhttp "github.com/txn2/chat-platform/pkg/http"
	"github.com/txn2/chat-platform/pkg/user"
)

// errorStatus maps service errors to HTTP status codes. Unlisted errors are
// internal.
var errorStatus = []struct {
	err    error
	status int
}{
	{errBadRequest, http.StatusBadRequest},
	{auth.ErrUnauthenticated, http.StatusUnauthorized},
	{chat.ErrAccessDenied, http.StatusForbidden},
	{chat.ErrThreadNotFound, http.StatusNotFound},
	{chat.ErrExchangeNotFound, http.StatusNotFound},
	{chat.ErrOwnerNotFound, http.StatusNotFound},
	{chat.ErrInvalidQuery, http.StatusBadRequest},
	{chat.ErrGenerationFailure, http.StatusBadGateway},
	{user.ErrNotFound, http.StatusNotFound},
	{user.ErrInvalidPassword, http.StatusUnauthorized},
	{user.ErrDuplicateEmail, http.StatusConflict},
	{user.ErrInvalidInput, http.StatusBadRequest},
	{feedback.ErrNotFound, http.StatusNotFound},
	{feedback.ErrDuplicate, http.StatusConflict},
	{feedback.ErrInvalidStatus, http.StatusBadRequest},
}

func statusFor(err error) int {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// writeServiceError writes err as a problem response. Internal errors are
// logged and replaced with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", mwhttp.GetRequestID(r.Context()),
			"error", err,
		)
		msg = "internal server error"
	case http.StatusBadGateway:
		slog.Warn("generation failed", "request_id", mwhttp.GetRequestID(r.Context()), "error", err)
		msg = chat.ErrGenerationFailure.Error()
	}
	mwhttp.WriteError(w, status, msg)
}
