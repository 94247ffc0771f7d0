package store

import (
	"context"

	"Presenca/internal/models"
)

// UpsertAdmin создаёт администратора или перезаписывает его хэш
func (s *Store) UpsertAdmin(ctx context.Context, username, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO admin (usuario, senha) VALUES (?, ?)
		ON CONFLICT (usuario) DO UPDATE SET senha = excluded.senha`), username, passwordHash)
	return err
}

func (s *Store) GetAdmin(ctx context.Context, username string) (models.Administrator, error) {
	var a models.Administrator
	err := s.db.QueryRowContext(ctx, s.q(`SELECT id, usuario, senha FROM admin WHERE usuario = ?`), username).
		Scan(&a.ID, &a.Username, &a.PasswordHash)
	return a, translate(err)
}
