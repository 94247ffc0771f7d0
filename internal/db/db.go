package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"Presenca/internal/config"
)

// DB: пул соединений вместе с диалектом, под который пишутся запросы
type DB struct {
	*sql.DB
	Driver string
}

// DBTX: общее подмножество *sql.DB и *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open подключается к postgres или sqlite, настраивает пул и накатывает миграции.
// Ошибка здесь фатальна для старта процесса.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	var (
		driverName string
		dsn        string
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		driverName, dsn = "postgres", cfg.DSN
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("db: create dir %s: %w", dir, err)
			}
		}
		driverName, dsn = "sqlite3", sqliteDSN(cfg.Path)
	default:
		return nil, fmt.Errorf("db: unknown driver %q", cfg.Driver)
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open failed: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: ping failed: %w", err)
	}

	d := &DB{DB: conn, Driver: cfg.Driver}
	if err := d.Migrate(log); err != nil {
		conn.Close()
		return nil, err
	}

	// в лог только «куда», без пароля
	log.Info("db connected", zap.String("driver", cfg.Driver), zap.String("target", safeTarget(cfg)))
	return d, nil
}

// _txlock=immediate: транзакция сразу берёт RESERVED-блокировку и не падает
// с SQLITE_BUSY при переходе от чтения к записи
func sqliteDSN(path string) string {
	return path + "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
}

func safeTarget(cfg config.DatabaseConfig) string {
	if cfg.Driver == config.DriverSQLite {
		return cfg.Path
	}
	if u, err := url.Parse(cfg.DSN); err == nil && u.Host != "" {
		return u.Host + u.Path
	}
	return "dsn"
}

// Rebind переводит плейсхолдеры `?` в `$1..$n` для postgres
func Rebind(driver, query string) string {
	if driver != config.DriverPostgres {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// RunInTx выполняет fn в транзакции (nil => COMMIT, ошибка => ROLLBACK)
func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
