package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/habit-tracker/internal/service"
)

type JournalHandler struct {
	journal *service.JournalService
	logger  *slog.Logger
}

func NewJournalHandler(journal *service.JournalService, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{journal: journal, logger: logger}
}

type saveJournalRequest struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

// HandleGet serves two reads on one path:
//
//	GET /api/journal?date=2025-03-14 → the entry, or {} when none was written
//	GET /api/journal                 → every entry, newest date first
func (h *JournalHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("date") {
		entries, err := h.journal.List(r.Context(), userID(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	entry, err := h.journal.GetByDate(r.Context(), userID(r), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	if entry == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleGetByID returns one entry.
//
// HTTP: GET /api/journal/{id}
func (h *JournalHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	entry, err := h.journal.GetByID(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleSave upserts the entry for a date.
//
// HTTP: POST /api/journal
// REQUEST BODY: {"date": "2025-03-14", "content": "..."}
func (h *JournalHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req saveJournalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.journal.Save(r.Context(), userID(r), req.Date, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
