package api

import (
	"bytes"
	"net/http"
	"time"

	mwhttp "github.com/txn2/chat-platform/pkg/http"
)

// activityStats handles GET /api/v1/analytics/activity.
//
//	@Summary		Daily activity
//	@Description	Signups, logins and exchanges for the current UTC day. Admin only.
//	@Tags			Analytics
//	@Produce		json
//	@Success		200	{object}	analytics.DailyStats
//	@Failure		403	{object}	mwhttp.Problem
//	@Security		BearerAuth
//	@Router			/analytics/activity [get]
func (h *Handler) activityStats(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	stats, err := h.deps.Reports.Stats(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	mwhttp.WriteJSON(w, http.StatusOK, stats)
}

// report handles GET /api/v1/analytics/report.
//
//	@Summary		Exchange report
//	@Description	Today's exchanges with their authors as CSV. Admin only.
//	@Tags			Analytics
//	@Produce		text/csv
//	@Success		200	{string}	string
//	@Failure		403	{object}	mwhttp.Problem
//	@Security		BearerAuth
//	@Router			/analytics/report [get]
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Buffer so a failure midway can still be reported as an error status.
	var buf bytes.Buffer
	if err := h.deps.Reports.WriteReport(r.Context(), id, &buf); err != nil {
		writeServiceError(w, r, err)
		return
	}

	filename := "chat-report-" + time.Now().UTC().Format(time.DateOnly) + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
