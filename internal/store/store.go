package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"Presenca/internal/db"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: unique constraint violated")
)

// Store: SQL-реализация реестра, журнала присутствия и учётки администратора.
// Один и тот же код работает и с postgres, и с sqlite.
type Store struct {
	db  *db.DB
	loc *time.Location
}

func New(d *db.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{db: d, loc: loc}
}

func (s *Store) q(query string) string { return db.Rebind(s.db.Driver, query) }

// Ping: для /healthz
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// translate сводит ошибки драйверов к ErrNotFound / ErrDuplicate
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		return sqErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func exists(ctx context.Context, tx db.DBTX, query string, args ...any) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
