package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Presenca/internal/archive"
	"Presenca/internal/sessions"
)

// DownloadYesterday отдаёт документ за вчера или возвращает на панель с сообщением
func (h *Handler) DownloadYesterday(w http.ResponseWriter, r *http.Request) {
	a := admin(r)
	doc, err := h.archive.ExportYesterday(r.Context(), a)
	if err != nil {
		h.redirect(w, r, dashboardPath, sessions.Danger, h.message(r, err, archive.IsRejection))
		return
	}
	h.sendDocument(w, r, doc.Name)
}

// HandleClearLedger: выгрузка всего журнала в документ и очистка
func (h *Handler) HandleClearLedger(w http.ResponseWriter, r *http.Request) {
	doc, n, err := h.archive.SnapshotAndClear(r.Context(), admin(r))
	switch {
	case errors.Is(err, archive.ErrLedgerEmpty):
		h.redirect(w, r, dashboardPath, sessions.Warning, err.Error())
	case err != nil:
		h.redirect(w, r, dashboardPath, sessions.Danger, h.message(r, err, archive.IsRejection))
	default:
		h.log.Debug("ledger cleared from dashboard", zap.Int("records", n))
		h.redirect(w, r, dashboardPath, sessions.Success,
			fmt.Sprintf("Presenças salvas em '%s' e lista zerada com sucesso!", doc.Name))
	}
}

// DownloadDocument отдаёт архивный документ по имени
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	h.sendDocument(w, r, chi.URLParam(r, "name"))
}

func (h *Handler) sendDocument(w http.ResponseWriter, r *http.Request, name string) {
	f, doc, err := h.archive.Open(r.Context(), admin(r), name)
	if errors.Is(err, archive.ErrDocumentNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", h.archive.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Name))
	http.ServeContent(w, r, doc.Name, doc.ModTime, f)
}
