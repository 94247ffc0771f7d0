package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Purger очищает журнал; возвращает число удалённых строк
type Purger func(ctx context.Context) (int64, error)

// Scheduler запускает еженедельную очистку журнала по cron-выражению
// в часовом поясе приложения
type Scheduler struct {
	cron    *cron.Cron
	purge   Purger
	log     *zap.Logger
	timeout time.Duration
}

func New(spec string, loc *time.Location, purge Purger, log *zap.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		purge:   purge,
		log:     log,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("scheduler: bad schedule %q: %w", spec, err)
	}
	return s, nil
}

// Next: время следующего запуска после t
func (s *Scheduler) Next(t time.Time) time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(t)
}

// Start запускает планировщик и останавливает его при отмене ctx
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.log.Info("purge scheduler started", zap.Time("next", s.Next(time.Now())))
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop ждёт завершения текущей очистки
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.purge(ctx)
	if err != nil {
		s.log.Error("scheduled purge failed", zap.Error(err))
		return
	}
	s.log.Info("scheduled purge done", zap.Int64("rows_deleted", n))
}
