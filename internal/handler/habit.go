package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/habit-tracker/internal/service"
)

// HabitHandler serves the global habit list and the per-month lists.
type HabitHandler struct {
	habits *service.HabitService
	logger *slog.Logger
}

func NewHabitHandler(habits *service.HabitService, logger *slog.Logger) *HabitHandler {
	return &HabitHandler{habits: habits, logger: logger}
}

type createHabitRequest struct {
	Name string `json:"name"`
}

type monthHabitRequest struct {
	MonthKey string `json:"monthKey"`
	Name     string `json:"name"`
	HabitID  string `json:"habitId"`
}

// HandleList returns the global list, oldest first.
//
// HTTP: GET /api/habits
func (h *HabitHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	habits, err := h.habits.ListHabits(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

// HandleCreate adds a habit to the global list without touching any month.
//
// HTTP: POST /api/habits
// REQUEST BODY: {"name": "Read 20 pages"}
func (h *HabitHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createHabitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	habit, err := h.habits.CreateHabit(r.Context(), userID(r), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

// HandleDelete removes a habit and its day-status records.
//
// HTTP: DELETE /api/habits/{id}
func (h *HabitHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.habits.DeleteHabit(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMonthList resolves the month's habits, creating the month's
// snapshot on first access when it can be derived.
//
// HTTP: GET /api/month-habits?monthKey=2025-03
// RESPONSE: [{"id": "...", "name": "..."}]
func (h *HabitHandler) HandleMonthList(w http.ResponseWriter, r *http.Request) {
	habits, err := h.habits.MonthHabits(r.Context(), userID(r), r.URL.Query().Get("monthKey"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

// HandleMonthAdd creates a habit and appends it to one month.
//
// HTTP: POST /api/month-habits
// REQUEST BODY: {"monthKey": "2025-03", "name": "Meditate"}
// RESPONSE: 201 {"id", "name", "createdAt"}
func (h *HabitHandler) HandleMonthAdd(w http.ResponseWriter, r *http.Request) {
	var req monthHabitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	habit, err := h.habits.AddHabitToMonth(r.Context(), userID(r), req.MonthKey, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

// HandleMonthRemove takes a habit out of one month only.
//
// HTTP: DELETE /api/month-habits
// REQUEST BODY: {"monthKey": "2025-03", "habitId": "..."}
func (h *HabitHandler) HandleMonthRemove(w http.ResponseWriter, r *http.Request) {
	var req monthHabitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.habits.RemoveHabitFromMonth(r.Context(), userID(r), req.MonthKey, req.HabitID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
