package handlers

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"Presenca/internal/archive"
	"Presenca/internal/attendance"
	"Presenca/internal/auth"
	mw "Presenca/internal/middleware"
	"Presenca/internal/roster"
	"Presenca/internal/sessions"
)

const internalErrMsg = "Erro interno. Tente novamente."

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Attendance *attendance.Service
	Auth       *auth.Service
	Roster     *roster.Service
	Archive    *archive.Service
	Sessions   *sessions.Store
	Health     Pinger
	Templates  fs.FS
	Window     attendance.Window
	Now        func() time.Time
	Log        *zap.Logger
}

type Handler struct {
	attendance *attendance.Service
	auth       *auth.Service
	roster     *roster.Service
	archive    *archive.Service
	sessions   *sessions.Store
	health     Pinger
	window     attendance.Window
	now        func() time.Time
	log        *zap.Logger
	pages      map[string]*template.Template
}

var pageNames = []string{
	"index.html",
	"admin_login.html",
	"admin_dashboard.html",
	"cadastrar_aluno.html",
	"editar_aluno.html",
}

// New разбирает шаблоны один раз: каждая страница: base.html + свой content
func New(d Deps) (*Handler, error) {
	if d.Now == nil {
		d.Now = time.Now
	}
	loc := d.Window.Location
	if loc == nil {
		loc = time.Local
	}
	funcs := template.FuncMap{
		"kb":    func(n int64) string { return fmt.Sprintf("%.1f", float64(n)/1024) },
		"stamp": func(t time.Time) string { return t.In(loc).Format(archive.TimestampLayout) },
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(d.Templates, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("handlers: parse %s: %w", name, err)
		}
		pages[name] = t
	}

	return &Handler{
		attendance: d.Attendance,
		auth:       d.Auth,
		roster:     d.Roster,
		archive:    d.Archive,
		sessions:   d.Sessions,
		health:     d.Health,
		window:     d.Window,
		now:        d.Now,
		log:        d.Log,
		pages:      pages,
	}, nil
}

// render сам прокидывает .IsAdmin, .Flashes и .Year во все шаблоны.
// Дополнительные flash-сообщения (ответ на POST без редиректа) идут после сессионных.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data map[string]any, extra ...sessions.Flash) {
	if data == nil {
		data = map[string]any{}
	}
	_, isAdmin := h.sessions.AdminUsername(r)
	data["IsAdmin"] = isAdmin
	data["Flashes"] = append(h.sessions.Flashes(w, r), extra...)
	data["Year"] = h.now().Year()

	t, ok := h.pages[page]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		h.log.Error("render template", zap.String("page", page), zap.Error(err))
	}
}

// redirect с flash-сообщением (Post/Redirect/Get)
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, to, category, msg string) {
	if err := h.sessions.AddFlash(w, r, category, msg); err != nil {
		h.log.Warn("save flash", zap.Error(err))
	}
	http.Redirect(w, r, to, http.StatusFound)
}

// message: тексты отказов показываем как есть, остальное: в лог
func (h *Handler) message(r *http.Request, err error, rejection func(error) bool) string {
	if rejection(err) {
		return err.Error()
	}
	h.log.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", chimw.GetReqID(r.Context())),
		zap.Error(err),
	)
	return internalErrMsg
}

func admin(r *http.Request) auth.Admin {
	return mw.AdminFrom(r.Context())
}

// Healthz: живость процесса и доступность БД
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.health.Ping(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		http.Error(w, "db unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
