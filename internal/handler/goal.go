package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/service"
)

type GoalHandler struct {
	goals  *service.GoalService
	logger *slog.Logger
}

func NewGoalHandler(goals *service.GoalService, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{goals: goals, logger: logger}
}

type saveGoalRequest struct {
	Goal       string   `json:"goal"`
	TargetDate string   `json:"targetDate"`
	Sacrifices []string `json:"sacrifices"`
	Month      int      `json:"month"`
	Year       int      `json:"year"`
}

// HandleGet returns the month's goal card, or the blank card.
//
// HTTP: GET /api/goals?month=3&year=2025
func (h *GoalHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	month, err := intParam(r, "month")
	if err != nil {
		writeError(w, err)
		return
	}
	year, err := intParam(r, "year")
	if err != nil {
		writeError(w, err)
		return
	}

	goal, err := h.goals.Get(r.Context(), userID(r), month, year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// HandleSave upserts the whole card.
//
// HTTP: POST /api/goals
// REQUEST BODY: {"goal", "targetDate", "sacrifices": [...], "month", "year"}
func (h *GoalHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req saveGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	goal := &model.Goal{
		UserID:     userID(r),
		Month:      req.Month,
		Year:       req.Year,
		Goal:       req.Goal,
		TargetDate: req.TargetDate,
		Sacrifices: req.Sacrifices,
	}
	if err := h.goals.Save(r.Context(), goal); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// intParam reads a required integer query parameter.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, apperror.Required(name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be a number")
	}
	return v, nil
}
