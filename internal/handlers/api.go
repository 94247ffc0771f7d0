package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"Presenca/internal/models"
	"Presenca/internal/roster"
)

// ---------- ADMIN API (JSON) ----------

func jsonError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// GetStudents: реестр в JSON, упорядочен по номеру
func (h *Handler) GetStudents(w http.ResponseWriter, r *http.Request) {
	list, err := h.roster.List(r.Context(), admin(r))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, h.message(r, err, roster.IsRejection))
		return
	}
	if list == nil {
		list = []models.RegisteredStudent{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetStudentByID(w http.ResponseWriter, r *http.Request) {
	id, ok := studentID(w, r)
	if !ok {
		return
	}
	st, err := h.roster.Get(r.Context(), admin(r), id)
	if errors.Is(err, roster.ErrStudentNotFound) {
		jsonError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, h.message(r, err, roster.IsRejection))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
