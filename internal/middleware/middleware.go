package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"Presenca/internal/auth"
	"Presenca/internal/sessions"
)

const loginPath = "/admin/login"

type ctxKey int

const adminKey ctxKey = iota

type Resumer interface {
	Resume(ctx context.Context, username string) (auth.Admin, error)
}

// Gate пускает дальше только с валидной сессией администратора и
// кладёт auth.Admin в контекст запроса
type Gate struct {
	sessions *sessions.Store
	auth     Resumer
	log      *zap.Logger
}

func NewGate(s *sessions.Store, a Resumer, log *zap.Logger) *Gate {
	return &Gate{sessions: s, auth: a, log: log}
}

// AdminOnly: обёртка для конкретных хендлеров:
// r.Post("/path", gate.AdminOnly(handler))
func (g *Gate) AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r, ok := g.admit(w, r); ok {
			next(w, r)
		}
	}
}

// AdminOnlyMW: chi-совместимая мидлварь: g.Use(gate.AdminOnlyMW)
func (g *Gate) AdminOnlyMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r, ok := g.admit(w, r); ok {
			next.ServeHTTP(w, r)
		}
	})
}

func (g *Gate) admit(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	username, _ := g.sessions.AdminUsername(r)
	admin, err := g.auth.Resume(r.Context(), username)
	if err != nil {
		if !errors.Is(err, auth.ErrUnauthenticated) {
			g.log.Error("resume admin session", zap.Error(err))
		}
		http.Redirect(w, r, loginPath, http.StatusFound)
		return nil, false
	}
	return r.WithContext(WithAdmin(r.Context(), admin)), true
}

func WithAdmin(ctx context.Context, a auth.Admin) context.Context {
	return context.WithValue(ctx, adminKey, a)
}

// AdminFrom: администратор текущего запроса; нулевое значение, если вход не выполнен
func AdminFrom(ctx context.Context) auth.Admin {
	a, _ := ctx.Value(adminKey).(auth.Admin)
	return a
}
