package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"Presenca/internal/auth"
	"Presenca/internal/sessions"
)

// ShowLoginPage отображает страницу входа администратора
func (h *Handler) ShowLoginPage(w http.ResponseWriter, r *http.Request) {
	if username, ok := h.sessions.AdminUsername(r); ok {
		if _, err := h.auth.Resume(r.Context(), username); err == nil {
			http.Redirect(w, r, "/admin", http.StatusFound)
			return
		}
	}
	h.render(w, r, "admin_login.html", map[string]any{"Title": "Login do administrador"})
}

// HandleLogin обрабатывает POST-запрос входа администратора
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostFormValue("usuario"))
	password := r.PostFormValue("senha")

	a, err := h.auth.Login(r.Context(), username, password)
	if err != nil {
		msg := auth.ErrInvalidCredentials.Error()
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			msg = h.message(r, err, func(error) bool { return false })
		} else {
			h.log.Info("admin login rejected", zap.String("usuario", username))
		}
		h.render(w, r, "admin_login.html",
			map[string]any{"Title": "Login do administrador", "Username": username},
			sessions.Flash{Category: sessions.Danger, Message: msg})
		return
	}

	if err := h.sessions.SetAdmin(w, r, a.Username()); err != nil {
		h.log.Error("session save", zap.Error(err))
		http.Error(w, internalErrMsg, http.StatusInternalServerError)
		return
	}
	h.log.Info("admin logged in", zap.String("usuario", a.Username()))
	http.Redirect(w, r, "/admin", http.StatusFound)
}

// HandleLogout удаляет отметку входа и возвращает на логин
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.ClearAdmin(w, r); err != nil {
		h.log.Warn("session clear", zap.Error(err))
	}
	http.Redirect(w, r, "/admin/login", http.StatusFound)
}
