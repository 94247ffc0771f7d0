package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"Presenca/internal/auth"
	"Presenca/internal/config"
	"Presenca/internal/sessions"
)

type fakeResumer struct {
	err   error
	calls []string
}

func (f *fakeResumer) Resume(_ context.Context, username string) (auth.Admin, error) {
	f.calls = append(f.calls, username)
	if f.err != nil {
		return auth.Admin{}, f.err
	}
	return auth.Admin{}, nil
}

func newSessions() *sessions.Store {
	return sessions.New(config.SessionConfig{Secret: "middleware-test-secret-middleware-test", MaxAge: time.Hour}, false, zap.NewNop())
}

func TestAdminOnly_RedirectsWithoutSession(t *testing.T) {
	res := &fakeResumer{err: auth.ErrUnauthenticated}
	gate := NewGate(newSessions(), res, zap.NewNop())

	called := false
	h := gate.AdminOnlyMW(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/presencas/limpar", nil))

	if called {
		t.Error("protected handler ran without a session")
	}
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/login" {
		t.Errorf("got %d -> %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(res.calls) != 1 || res.calls[0] != "" {
		t.Errorf("Resume calls = %q", res.calls)
	}
}

func TestAdminOnly_PassesUsernameFromSession(t *testing.T) {
	store := newSessions()
	res := &fakeResumer{}
	gate := NewGate(store, res, zap.NewNop())

	login := httptest.NewRecorder()
	_ = store.SetAdmin(login, httptest.NewRequest(http.MethodPost, "/admin/login", nil), "admin")

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, c := range login.Result().Cookies() {
		r.AddCookie(c)
	}
	called := false
	rec := httptest.NewRecorder()
	gate.AdminOnly(func(w http.ResponseWriter, r *http.Request) { called = true })(rec, r)

	if !called {
		t.Fatalf("handler not called, status %d", rec.Code)
	}
	if len(res.calls) != 1 || res.calls[0] != "admin" {
		t.Errorf("Resume calls = %q", res.calls)
	}
}

func TestAdminOnly_StorageErrorRedirects(t *testing.T) {
	gate := NewGate(newSessions(), &fakeResumer{err: errors.New("db down")}, zap.NewNop())
	rec := httptest.NewRecorder()
	gate.AdminOnly(func(http.ResponseWriter, *http.Request) { t.Error("handler ran") })(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAdminFrom_Empty(t *testing.T) {
	if err := auth.Require(AdminFrom(context.Background())); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("err = %v", err)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = chimw.GetReqID(r.Context())
	}))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "abc-123")
	h.ServeHTTP(rec, r)
	if seen != "abc-123" || rec.Header().Get("X-Request-ID") != "abc-123" {
		t.Errorf("inbound id not kept: ctx=%q header=%q", seen, rec.Header().Get("X-Request-ID"))
	}

	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", strings.Repeat("x", 65))
	h.ServeHTTP(rec, r)
	if len(seen) != 36 {
		t.Errorf("oversized id should be replaced by a uuid, got %q", seen)
	}
}

func TestRequestLogger_DefaultsStatus(t *testing.T) {
	h := RequestLogger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}
