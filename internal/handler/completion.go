package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/service"
	"github.com/sakif/habit-tracker/internal/tracker"
)

type CompletionHandler struct {
	completions *service.CompletionService
	logger      *slog.Logger
}

func NewCompletionHandler(completions *service.CompletionService, logger *slog.Logger) *CompletionHandler {
	return &CompletionHandler{completions: completions, logger: logger}
}

// updateCompletionRequest carries either a status (set directly) or an
// action (tap, clear). Exactly one must be present.
type updateCompletionRequest struct {
	HabitID  string `json:"habitId"`
	MonthKey string `json:"monthKey"`
	Day      int    `json:"day"`
	Status   string `json:"status"`
	Action   string `json:"action"`
}

// HandleList returns the month's records keyed by habit id.
//
// HTTP: GET /api/completions?monthKey=2025-03
// RESPONSE: {"<habitId>": {"days": [1, 2], "crossedDays": [3]}}
func (h *CompletionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.completions.ListMonth(r.Context(), userID(r), r.URL.Query().Get("monthKey"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleUpdate changes one cell and returns the habit's whole record for
// the month.
//
// HTTP: POST /api/completions
// REQUEST BODY: {"habitId": "...", "monthKey": "2025-03", "day": 14, "status": "completed"}
//
//	or {"habitId": "...", "monthKey": "2025-03", "day": 14, "action": "tap"}
//
// RESPONSE: {"days": [...], "crossedDays": [...]}
func (h *CompletionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateCompletionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	change := service.DayChange{HabitID: req.HabitID, MonthKey: req.MonthKey, Day: req.Day}
	ctx, uid := r.Context(), userID(r)

	var (
		result any
		err    error
	)
	switch {
	case req.Status != "" && req.Action != "":
		err = apperror.ValidationFailed("status", "send either status or action, not both")
	case req.Action == "tap":
		result, err = h.completions.Tap(ctx, uid, change)
	case req.Action == "clear":
		result, err = h.completions.Clear(ctx, uid, change)
	case req.Action != "":
		err = apperror.ValidationFailed("action", "action must be tap or clear")
	default:
		var status tracker.Status
		if status, err = tracker.ParseStatus(req.Status); err == nil {
			result, err = h.completions.SetStatus(ctx, uid, change, status)
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
