package store

import (
	"context"

	"Presenca/internal/db"
	"Presenca/internal/models"
)

func (s *Store) ListStudents(ctx context.Context) ([]models.RegisteredStudent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nome, cpf4, numero_chamada
		FROM alunos_cadastrados
		ORDER BY numero_chamada ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]models.RegisteredStudent, 0, 32)
	for rows.Next() {
		var st models.RegisteredStudent
		if err := rows.Scan(&st.ID, &st.Name, &st.CPF4, &st.CallNumber); err != nil {
			return nil, err
		}
		list = append(list, st)
	}
	return list, rows.Err()
}

func (s *Store) GetStudent(ctx context.Context, id int) (models.RegisteredStudent, error) {
	var st models.RegisteredStudent
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, nome, cpf4, numero_chamada
		FROM alunos_cadastrados WHERE id = ?`), id).
		Scan(&st.ID, &st.Name, &st.CPF4, &st.CallNumber)
	return st, translate(err)
}

// FindStudent ищет по точному совпадению номера и 4 цифр CPF
func (s *Store) FindStudent(ctx context.Context, callNumber int, cpf4 string) (models.RegisteredStudent, error) {
	var st models.RegisteredStudent
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, nome, cpf4, numero_chamada
		FROM alunos_cadastrados
		WHERE numero_chamada = ? AND cpf4 = ?`), callNumber, cpf4).
		Scan(&st.ID, &st.Name, &st.CPF4, &st.CallNumber)
	return st, translate(err)
}

func (s *Store) StudentExistsByNameCPF(ctx context.Context, name, cpf4 string) (bool, error) {
	return exists(ctx, s.db, s.q(`SELECT 1 FROM alunos_cadastrados WHERE nome = ? AND cpf4 = ?`), name, cpf4)
}

func (s *Store) StudentExistsByCallNumber(ctx context.Context, callNumber int) (bool, error) {
	return exists(ctx, s.db, s.q(`SELECT 1 FROM alunos_cadastrados WHERE numero_chamada = ?`), callNumber)
}

func (s *Store) CountStudents(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alunos_cadastrados`).Scan(&n)
	return n, err
}

// CreateStudent вставляет ученика и проставляет st.ID
func (s *Store) CreateStudent(ctx context.Context, st *models.RegisteredStudent) error {
	err := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO alunos_cadastrados (nome, cpf4, numero_chamada)
		VALUES (?, ?, ?)
		RETURNING id`), st.Name, st.CPF4, st.CallNumber).Scan(&st.ID)
	return translate(err)
}

// UpdateStudent меняет все поля; при конфликте уникальности транзакция откатывается
func (s *Store) UpdateStudent(ctx context.Context, st models.RegisteredStudent) error {
	return s.db.RunInTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		res, err := tx.ExecContext(ctx, s.q(`
			UPDATE alunos_cadastrados
			SET nome = ?, cpf4 = ?, numero_chamada = ?
			WHERE id = ?`), st.Name, st.CPF4, st.CallNumber, st.ID)
		if err != nil {
			return translate(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteStudent идемпотентен: отсутствие строки не ошибка
func (s *Store) DeleteStudent(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM alunos_cadastrados WHERE id = ?`), id)
	return err
}
