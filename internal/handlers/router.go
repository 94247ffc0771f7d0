package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	mw "Presenca/internal/middleware"
)

// NewRouter собирает все маршруты. metrics может быть nil (metrics.enabled=false).
func NewRouter(h *Handler, gate *mw.Gate, log *zap.Logger, metrics http.Handler) http.Handler {
	r := chi.NewRouter()

	// базовые middleware
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RedirectSlashes)
	r.Use(mw.SecurityHeaders)

	r.Get("/healthz", h.Healthz)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	// ---------- Публичная форма отметки ----------
	r.Get("/", h.ShowIndexPage)
	r.Post("/", h.HandleCheckIn)

	// ---------- Аутентификация администратора ----------
	r.Get("/admin/login", h.ShowLoginPage)
	r.Post("/admin/login", h.HandleLogin)
	r.Post("/admin/logout", h.HandleLogout)

	// ---------- Панель администратора ----------
	r.Group(func(g chi.Router) {
		g.Use(gate.AdminOnlyMW) // доступ только с валидной сессией

		g.Get("/admin", h.ShowDashboard)

		g.Get("/admin/alunos/novo", h.ShowNewStudentForm)
		g.Post("/admin/alunos/novo", h.HandleCreateStudent)
		g.Get("/admin/alunos/{id}/editar", h.ShowEditStudentForm)
		g.Post("/admin/alunos/{id}/editar", h.HandleUpdateStudent)
		g.Post("/admin/alunos/{id}/excluir", h.HandleDeleteStudent)

		g.Get("/admin/registros/ontem", h.DownloadYesterday)
		g.Post("/admin/presencas/limpar", h.HandleClearLedger)
		g.Get("/admin/arquivos/{name}", h.DownloadDocument)

		g.Get("/admin/api/alunos", h.GetStudents)
		g.Get("/admin/api/alunos/{id}", h.GetStudentByID)
	})

	return r
}
