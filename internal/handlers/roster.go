package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"Presenca/internal/roster"
	"Presenca/internal/sessions"
)

const dashboardPath = "/admin"

// ShowDashboard: реестр по номеру, число отметок в журнале и архив документов
func (h *Handler) ShowDashboard(w http.ResponseWriter, r *http.Request) {
	a := admin(r)
	students, err := h.roster.List(r.Context(), a)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	pending, err := h.archive.Pending(r.Context(), a)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	docs, err := h.archive.List(r.Context(), a)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, "admin_dashboard.html", map[string]any{
		"Title":     "Painel",
		"Students":  students,
		"Pending":   pending,
		"Documents": docs,
	})
}

func (h *Handler) ShowNewStudentForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "cadastrar_aluno.html", map[string]any{
		"Title": "Cadastrar aluno",
		"Form":  roster.StudentForm{},
	})
}

// HandleCreateStudent: при отказе форма показывается снова с введёнными значениями
func (h *Handler) HandleCreateStudent(w http.ResponseWriter, r *http.Request) {
	form, ok := h.studentForm(w, r)
	if !ok {
		return
	}
	if _, err := h.roster.Create(r.Context(), admin(r), form); err != nil {
		h.render(w, r, "cadastrar_aluno.html",
			map[string]any{"Title": "Cadastrar aluno", "Form": form},
			sessions.Flash{Category: sessions.Danger, Message: h.message(r, err, roster.IsRejection)})
		return
	}
	h.redirect(w, r, dashboardPath, sessions.Success, "Aluno cadastrado com sucesso!")
}

func (h *Handler) ShowEditStudentForm(w http.ResponseWriter, r *http.Request) {
	id, ok := studentID(w, r)
	if !ok {
		return
	}
	st, err := h.roster.Get(r.Context(), admin(r), id)
	if errors.Is(err, roster.ErrStudentNotFound) {
		h.redirect(w, r, dashboardPath, sessions.Danger, err.Error())
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, "editar_aluno.html", map[string]any{"Title": "Editar aluno", "Student": st})
}

func (h *Handler) HandleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := studentID(w, r)
	if !ok {
		return
	}
	form, ok := h.studentForm(w, r)
	if !ok {
		return
	}

	_, err := h.roster.Update(r.Context(), admin(r), id, form)
	switch {
	case err == nil:
		h.redirect(w, r, dashboardPath, sessions.Success, "Aluno atualizado com sucesso!")
	case errors.Is(err, roster.ErrStudentNotFound):
		h.redirect(w, r, dashboardPath, sessions.Danger, err.Error())
	default:
		h.redirect(w, r, editPath(id), sessions.Danger, h.message(r, err, roster.IsRejection))
	}
}

// HandleDeleteStudent: подтверждение показывается и для уже удалённого id
func (h *Handler) HandleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := studentID(w, r)
	if !ok {
		return
	}
	if err := h.roster.Delete(r.Context(), admin(r), id); err != nil {
		h.redirect(w, r, dashboardPath, sessions.Danger, h.message(r, err, roster.IsRejection))
		return
	}
	h.redirect(w, r, dashboardPath, sessions.Success, "Aluno excluído com sucesso!")
}

func (h *Handler) studentForm(w http.ResponseWriter, r *http.Request) (roster.StudentForm, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return roster.StudentForm{}, false
	}
	return roster.StudentForm{
		Name:       r.PostFormValue("nome"),
		CallNumber: r.PostFormValue("numero_chamada"),
		CPF4:       r.PostFormValue("cpf4"),
	}, true
}

func studentID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

func editPath(id int) string {
	return "/admin/alunos/" + strconv.Itoa(id) + "/editar"
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.message(r, err, func(error) bool { return false })
	http.Error(w, internalErrMsg, http.StatusInternalServerError)
}
