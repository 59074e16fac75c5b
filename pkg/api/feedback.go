package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/txn2/chat-platform/pkg/feedback"
	mwhttp "github.com/txn2/chat-platform/pkg/http"
)

type feedbackRequest struct {
	ExchangeID string `json:"exchange_id"`
	Positive   *bool  `json:"positive"`
}

type statusUpdateRequest struct {
	Status feedback.Status `json:"status"`
}

// createFeedback handles POST /api/v1/feedbacks.
//
//	@Summary		Rate an answer
//	@Description	Records the caller's rating of an exchange in one of their threads. One rating per user and exchange.
//	@Tags			Feedback
//	@Accept			json
//	@Produce		json
//	@Param			body	body		feedbackRequest	true	"Rating"
//	@Success		201		{object}	feedback.Feedback
//	@Failure		400		{object}	mwhttp.Problem
//	@Failure		403		{object}	mwhttp.Problem
//	@Failure		404		{object}	mwhttp.Problem
//	@Failure		409		{object}	mwhttp.Problem
//	@Security		BearerAuth
//	@Router			/feedbacks [post]
func (h *Handler) createFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req feedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	exchangeID, err := strconv.ParseInt(req.ExchangeID, 10, 64)
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("%w: exchange_id must be a decimal id", errBadRequest))
		return
	}
	if req.Positive == nil {
		writeServiceError(w, r, fmt.Errorf("%w: positive is required", errBadRequest))
		return
	}

	f, err := h.deps.Ratings.Create(r.Context(), id, exchangeID, *req.Positive)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	mwhttp.WriteJSON(w, http.StatusCreated, f)
}

// listFeedback handles GET /api/v1/feedbacks.
//
//	@Summary		List feedback
//	@Description	Returns a page of feedback. Admins see all feedback.
//	@Tags			Feedback
//	@Produce		json
//	@Param			page		query		integer	false	"Zero-based page (default 0)"
//	@Param			size		query		integer	false	"Page size (default 10, max 100)"
//	@Param			sort		query		string	false	"asc or desc by creation time (default desc)"
//	@Param			positive	query		boolean	false	"Filter by rating"
//	@Success		200			{object}	feedback.Page
//	@Failure		400			{object}	mwhttp.Problem
//	@Security		BearerAuth
//	@Router			/feedbacks [get]
func (h *Handler) listFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	pq, err := parsePageQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	positive, err := parseOptionalBool(r, "positive")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	page, err := h.deps.Ratings.List(r.Context(), id, feedback.Query{PageQuery: pq, Positive: positive})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	mwhttp.WriteJSON(w, http.StatusOK, page)
}

// updateFeedbackStatus handles PATCH /api/v1/feedbacks/{id}/status.
//
//	@Summary		Update feedback status
//	@Description	Marks feedback pending or resolved. Admin only.
//	@Tags			Feedback
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Feedback ID"
//	@Param			body	body		statusUpdateRequest	true	"New status"
//	@Success		200		{object}	feedback.Feedback
//	@Failure		400		{object}	mwhttp.Problem
//	@Failure		403		{object}	mwhttp.Problem
//	@Failure		404		{object}	mwhttp.Problem
//	@Security		BearerAuth
//	@Router			/feedbacks/{id}/status [patch]
func (h *Handler) updateFeedbackStatus(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	feedbackID, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req statusUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	f, err := h.deps.Ratings.UpdateStatus(r.Context(), id, feedbackID, req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	mwhttp.WriteJSON(w, http.StatusOK, f)
}
