package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/service"
)

type StatsHandler struct {
	stats  *service.StatsService
	logger *slog.Logger
}

func NewStatsHandler(stats *service.StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

// HandleMonth returns the month summary.
//
// HTTP: GET /api/stats?monthKey=2025-03&autoCross=true
// autoCross is optional and defaults to false.
func (h *StatsHandler) HandleMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	autoCross := false
	if raw := q.Get("autoCross"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, apperror.ValidationFailed("autoCross", "autoCross must be true or false"))
			return
		}
		autoCross = v
	}

	summary, err := h.stats.MonthSummary(r.Context(), userID(r), q.Get("monthKey"), autoCross)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
