package store

import (
	"context"
	"database/sql"
	"time"

	"Presenca/internal/db"
	"Presenca/internal/models"
)

const attendanceColumns = `id, nome, matricula, data_hora, dia, numero_chamada`

// HasCheckIn: есть ли уже отметка этого номера за календарный день
func (s *Store) HasCheckIn(ctx context.Context, callNumber int, day string) (bool, error) {
	return exists(ctx, s.db, s.q(`SELECT 1 FROM alunos WHERE numero_chamada = ? AND dia = ?`), callNumber, day)
}

// InsertAttendance добавляет отметку. Уникальный индекс (numero_chamada, dia)
// превращает вставку в «вставить, если нет»: повтор даёт ErrDuplicate.
func (s *Store) InsertAttendance(ctx context.Context, rec *models.AttendanceRecord) error {
	err := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO alunos (nome, matricula, data_hora, dia, numero_chamada)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		rec.Name, rec.Matricula, rec.Timestamp.UTC(), rec.Day, rec.CallNumber,
	).Scan(&rec.ID)
	return translate(err)
}

// ListAttendanceByDay: отметки за день в порядке времени
func (s *Store) ListAttendanceByDay(ctx context.Context, day string) ([]models.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+attendanceColumns+`
		FROM alunos WHERE dia = ?
		ORDER BY data_hora ASC, id ASC`), day)
	if err != nil {
		return nil, err
	}
	return s.scanAttendance(rows)
}

// ListAttendance: весь журнал в порядке времени
func (s *Store) ListAttendance(ctx context.Context) ([]models.AttendanceRecord, error) {
	return s.listAll(ctx, s.db)
}

func (s *Store) CountAttendance(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alunos`).Scan(&n)
	return n, err
}

// DeleteAllAttendance безусловно очищает журнал
func (s *Store) DeleteAllAttendance(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alunos`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SnapshotAndClear в одной транзакции читает журнал, отдаёт его в archive
// и удаляет ровно прочитанные строки. Пустой журнал не трогается, archive не вызывается.
// Ошибка archive откатывает удаление.
func (s *Store) SnapshotAndClear(ctx context.Context, archive func([]models.AttendanceRecord) error) (int, error) {
	var n int
	err := s.db.RunInTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		records, err := s.listAll(ctx, tx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		if err := archive(records); err != nil {
			return err
		}

		maxID := 0
		for _, r := range records {
			if r.ID > maxID {
				maxID = r.ID
			}
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM alunos WHERE id <= ?`), maxID); err != nil {
			return err
		}
		n = len(records)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) listAll(ctx context.Context, tx db.DBTX) ([]models.AttendanceRecord, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+attendanceColumns+`
		FROM alunos
		ORDER BY data_hora ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	return s.scanAttendance(rows)
}

func (s *Store) scanAttendance(rows *sql.Rows) ([]models.AttendanceRecord, error) {
	defer rows.Close()

	var out []models.AttendanceRecord
	for rows.Next() {
		var (
			r  models.AttendanceRecord
			ts time.Time
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Matricula, &ts, &r.Day, &r.CallNumber); err != nil {
			return nil, err
		}
		r.Timestamp = ts.In(s.loc)
		out = append(out, r)
	}
	return out, rows.Err()
}
