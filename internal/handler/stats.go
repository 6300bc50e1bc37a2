package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lunchuis/panel/internal/stats"
)

// StatsHandler serves the admin dashboard summary.
type StatsHandler struct {
	agg *stats.Aggregator
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(agg *stats.Aggregator) *StatsHandler {
	return &StatsHandler{agg: agg}
}

func (h *StatsHandler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.With(adminOnly).Get("/summary", h.Summary)
}

func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.agg.Summary(r.Context(), time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
