package handlers

import (
	"net/http"

	"Presenca/internal/attendance"
	"Presenca/internal/sessions"
)

const checkInOK = "Registro enviado com sucesso!"

func (h *Handler) indexData() map[string]any {
	opens, closes := h.window.Hours()
	return map[string]any{
		"Title":  "Registro de Presença",
		"Opens":  opens,
		"Closes": closes,
	}
}

// ShowIndexPage: публичная форма отметки
func (h *Handler) ShowIndexPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "index.html", h.indexData())
}

// HandleCheckIn принимает отметку; результат показывается на той же форме
func (h *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	_, err := h.attendance.CheckIn(r.Context(), r.PostFormValue("numero_chamada"), r.PostFormValue("cpf4"))
	if err != nil {
		flash := sessions.Flash{Category: sessions.Danger, Message: h.message(r, err, attendance.IsRejection)}
		h.render(w, r, "index.html", h.indexData(), flash)
		return
	}
	h.render(w, r, "index.html", h.indexData(), sessions.Flash{Category: sessions.Success, Message: checkInOK})
}
