package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/server/responses"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// MonitoringHandlers serves health, status and history.
type MonitoringHandlers struct {
	site         Site
	started      time.Time
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates monitoring handlers backed by s.
func NewMonitoringHandlers(s Site, adapter *errors.HTTPErrorAdapter) *MonitoringHandlers {
	if adapter == nil {
		adapter = errors.NewHTTPErrorAdapter(slog.Default())
	}
	return &MonitoringHandlers{site: s, started: time.Now(), errorAdapter: adapter}
}

// HandleHealthCheck reports liveness.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := responses.HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(h.started).Seconds(),
		Timestamp: time.Now().UTC(),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build())
	}
}

// HandleStatus reports collection sizes, anchor matches, git status and activity.
func (h *MonitoringHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.site.Status(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := writeJSONPretty(w, r, http.StatusOK, st); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build())
	}
}

// HandleHistory returns recent events. The limit query parameter defaults to
// 50 and is capped at 500.
func (h *MonitoringHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("limit must be a positive integer").
				WithContext("limit", raw).
				Build())
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	events, err := h.site.History(r.Context(), limit)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := writeJSONPretty(w, r, http.StatusOK, responses.HistoryResponse{Success: true, Events: events}); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build())
	}
}
