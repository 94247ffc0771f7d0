package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"Presenca/internal/auth"
	"Presenca/internal/metrics"
	"Presenca/internal/models"
)

var (
	ErrNothingToExport  = errors.New("Nenhum registro disponível para download!")
	ErrLedgerEmpty      = errors.New("Nenhum registro para salvar ou limpar!")
	ErrDocumentNotFound = errors.New("Arquivo não encontrado!")
)

const (
	dailyPrefix    = "registros_"
	snapshotPrefix = "presencas_"
)

type Ledger interface {
	ListAttendanceByDay(ctx context.Context, day string) ([]models.AttendanceRecord, error)
	SnapshotAndClear(ctx context.Context, archive func([]models.AttendanceRecord) error) (int, error)
	DeleteAllAttendance(ctx context.Context) (int64, error)
	CountAttendance(ctx context.Context) (int, error)
}

// Document: файл в каталоге архива
type Document struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

type Service struct {
	dir      string
	renderer Renderer
	ledger   Ledger
	now      func() time.Time
	loc      *time.Location
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewService(dir string, r Renderer, ledger Ledger, now func() time.Time, loc *time.Location, log *zap.Logger, m *metrics.Metrics) *Service {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{dir: dir, renderer: r, ledger: ledger, now: now, loc: loc, log: log, metrics: m}
}

func (s *Service) ContentType() string { return s.renderer.ContentType() }

func (s *Service) today() time.Time { return s.now().In(s.loc) }

// ExportYesterday отдаёт документ за вчерашний день. Уже сгенерированный файл
// переиспользуется; если за вчера отметок нет: ErrNothingToExport.
func (s *Service) ExportYesterday(ctx context.Context, admin auth.Admin) (Document, error) {
	if err := auth.Require(admin); err != nil {
		return Document{}, err
	}
	day := s.today().AddDate(0, 0, -1).Format(models.DayLayout)
	name := dailyPrefix + day + s.renderer.Ext()

	if doc, err := s.stat(name); err == nil {
		return doc, nil
	}

	records, err := s.ledger.ListAttendanceByDay(ctx, day)
	if err != nil {
		return Document{}, err
	}
	if len(records) == 0 {
		return Document{}, ErrNothingToExport
	}
	if err := s.write(name, Title(day), records); err != nil {
		return Document{}, err
	}
	s.metrics.Export("yesterday")
	s.log.Info("daily export written", zap.String("file", name), zap.Int("records", len(records)))
	return s.stat(name)
}

// SnapshotAndClear выгружает весь журнал (по времени) в датированный документ
// и очищает его. Пустой журнал: ErrLedgerEmpty, документ не создаётся.
func (s *Service) SnapshotAndClear(ctx context.Context, admin auth.Admin) (Document, int, error) {
	if err := auth.Require(admin); err != nil {
		return Document{}, 0, err
	}
	doc, n, err := s.snapshot(ctx)
	if err != nil {
		return Document{}, 0, err
	}
	s.metrics.Purge("manual")
	s.log.Info("ledger snapshot and clear",
		zap.String("file", doc.Name), zap.Int("records", n), zap.String("by", admin.Username()))
	return doc, n, nil
}

// ScheduledPurge: действие планировщика: безусловная очистка журнала без выгрузки
func (s *Service) ScheduledPurge(ctx context.Context) (int64, error) {
	n, err := s.ledger.DeleteAllAttendance(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.Purge("scheduled")
	return n, nil
}

// ScheduledSnapshotPurge: вариант планировщика с выгрузкой перед очисткой (purge.snapshot_first)
func (s *Service) ScheduledSnapshotPurge(ctx context.Context) (int64, error) {
	_, n, err := s.snapshot(ctx)
	if errors.Is(err, ErrLedgerEmpty) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	s.metrics.Purge("scheduled")
	return int64(n), nil
}

func (s *Service) snapshot(ctx context.Context) (Document, int, error) {
	now := s.today()
	day := now.Format(models.DayLayout)
	name := snapshotPrefix + day + "_" + now.Format("150405") + s.renderer.Ext()

	written := false
	n, err := s.ledger.SnapshotAndClear(ctx, func(records []models.AttendanceRecord) error {
		if err := s.write(name, Title(day), records); err != nil {
			return err
		}
		written = true
		return nil
	})
	if err != nil {
		// удаление откатилось: документ без очистки не оставляем
		if written {
			_ = os.Remove(filepath.Join(s.dir, name))
		}
		return Document{}, 0, err
	}
	if n == 0 {
		return Document{}, 0, ErrLedgerEmpty
	}
	s.metrics.Export("snapshot")

	doc, err := s.stat(name)
	if err != nil {
		return Document{}, 0, err
	}
	return doc, n, nil
}

// Pending: сколько отметок в журнале ждут выгрузки
func (s *Service) Pending(ctx context.Context, admin auth.Admin) (int, error) {
	if err := auth.Require(admin); err != nil {
		return 0, err
	}
	return s.ledger.CountAttendance(ctx)
}

// List: архивные документы, новые первыми
func (s *Service) List(_ context.Context, admin auth.Admin) ([]Document, error) {
	if err := auth.Require(admin); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var docs []Document
	for _, e := range entries {
		if e.IsDir() || !s.isDocumentName(e.Name()) {
			continue
		}
		if doc, err := s.stat(e.Name()); err == nil {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ModTime.After(docs[j].ModTime) })
	return docs, nil
}

// Open открывает документ по имени; путь не выходит за каталог архива
func (s *Service) Open(_ context.Context, admin auth.Admin, name string) (*os.File, Document, error) {
	if err := auth.Require(admin); err != nil {
		return nil, Document{}, err
	}
	if !s.isDocumentName(name) {
		return nil, Document{}, ErrDocumentNotFound
	}
	doc, err := s.stat(name)
	if err != nil {
		return nil, Document{}, ErrDocumentNotFound
	}
	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, Document{}, ErrDocumentNotFound
	}
	return f, doc, nil
}

func (s *Service) isDocumentName(name string) bool {
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return false
	}
	if filepath.Ext(name) != s.renderer.Ext() {
		return false
	}
	return strings.HasPrefix(name, dailyPrefix) || strings.HasPrefix(name, snapshotPrefix)
}

func (s *Service) stat(name string) (Document, error) {
	path := filepath.Join(s.dir, name)
	fi, err := os.Stat(path)
	if err != nil {
		return Document{}, err
	}
	return Document{Name: name, Path: path, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

// write пишет во временный файл и переименовывает: недописанный документ не виден
func (s *Service) write(name, title string, records []models.AttendanceRecord) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("archive: prepare dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("archive: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.renderer.Render(tmp, title, records); err != nil {
		tmp.Close()
		return fmt.Errorf("archive: render %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("archive: close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("archive: rename %s: %w", name, err)
	}
	return nil
}

// IsRejection: ошибка для показа пользователю
func IsRejection(err error) bool {
	return errors.Is(err, ErrNothingToExport) ||
		errors.Is(err, ErrLedgerEmpty) ||
		errors.Is(err, ErrDocumentNotFound) ||
		errors.Is(err, auth.ErrUnauthenticated)
}
