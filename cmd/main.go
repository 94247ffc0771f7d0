package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"Presenca/internal/archive"
	"Presenca/internal/attendance"
	"Presenca/internal/auth"
	"Presenca/internal/config"
	"Presenca/internal/db"
	"Presenca/internal/handlers"
	"Presenca/internal/logger"
	"Presenca/internal/metrics"
	mw "Presenca/internal/middleware"
	"Presenca/internal/models"
	"Presenca/internal/roster"
	"Presenca/internal/scheduler"
	"Presenca/internal/sessions"
	"Presenca/internal/store"
	"Presenca/web"
)

const devAdminPassword = "admin"

func main() {
	configPath := flag.String("config", "", "path to config file (yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	loc, _ := cfg.App.Location() // уже проверено в Validate
	weekdays, _ := cfg.CheckIn.ParsedWeekdays()
	opens, closes, _ := cfg.CheckIn.Window()

	zl.Info("boot", zap.String("mode", cfg.Mode), zap.String("timezone", loc.String()))

	d, err := db.Open(cfg.Database, zl)
	if err != nil {
		zl.Fatal("storage unavailable", zap.Error(err))
	}
	defer d.Close()

	st := store.New(d, loc)
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------- Учётка администратора ----------
	authSvc := auth.NewService(st, zl)
	password := cfg.Admin.Password
	if password == "" {
		zl.Warn("admin.password is empty, using the development default")
		password = devAdminPassword
	}
	if err := authSvc.Seed(ctx, cfg.Admin.Username, password); err != nil {
		zl.Fatal("seed admin", zap.Error(err))
	}

	// ---------- Реестр ----------
	rosterSvc := roster.NewService(st, zl)
	seed := make([]models.RegisteredStudent, 0, len(cfg.Seed.Students))
	for _, s := range cfg.Seed.Students {
		seed = append(seed, models.RegisteredStudent{Name: s.Name, CallNumber: s.CallNumber, CPF4: s.CPF4})
	}
	if err := rosterSvc.Seed(ctx, seed); err != nil {
		zl.Fatal("seed roster", zap.Error(err))
	}

	window := attendance.Window{
		Weekdays:      weekdays,
		Opens:         opens,
		Closes:        closes,
		MaxCallNumber: cfg.CheckIn.MaxCallNumber,
		Location:      loc,
	}
	attendanceSvc := attendance.NewService(window, st, st, time.Now, zl, m)

	// ---------- Архив ----------
	renderer, err := archive.NewRenderer(cfg.Archive.Format)
	if err != nil {
		zl.Fatal("archive renderer", zap.Error(err))
	}
	archiveSvc := archive.NewService(cfg.Archive.Dir, renderer, st, time.Now, loc, zl, m)

	// ---------- Еженедельная очистка ----------
	purge := archiveSvc.ScheduledPurge
	if cfg.Purge.SnapshotFirst {
		purge = archiveSvc.ScheduledSnapshotPurge
	}
	sched, err := scheduler.New(cfg.Purge.Schedule, loc, purge, zl)
	if err != nil {
		zl.Fatal("scheduler", zap.Error(err))
	}
	sched.Start(ctx)

	// ---------- HTTP ----------
	sess := sessions.New(cfg.Session, cfg.Server.HTTPS, zl)
	h, err := handlers.New(handlers.Deps{
		Attendance: attendanceSvc,
		Auth:       authSvc,
		Roster:     rosterSvc,
		Archive:    archiveSvc,
		Sessions:   sess,
		Health:     st,
		Templates:  web.Templates,
		Window:     window,
		Log:        zl,
	})
	if err != nil {
		zl.Fatal("templates", zap.Error(err))
	}

	var metricsHandler http.Handler
	if m != nil {
		metricsHandler = m.Handler()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handlers.NewRouter(h, mw.NewGate(sess, authSvc, zl), zl, metricsHandler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		zl.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("http server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("http shutdown", zap.Error(err))
	}
	sched.Stop()
	zl.Info("stopped")
}
