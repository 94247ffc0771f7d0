package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"Presenca/internal/config"
	"Presenca/internal/db"
	"Presenca/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.Open(config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "presencas.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return New(d, time.UTC)
}

func mustCreate(t *testing.T, s *Store, name, cpf4 string, n int) models.RegisteredStudent {
	t.Helper()
	st := models.RegisteredStudent{Name: name, CPF4: cpf4, CallNumber: n}
	if err := s.CreateStudent(context.Background(), &st); err != nil {
		t.Fatalf("CreateStudent(%s): %v", name, err)
	}
	return st
}

func TestRoster_UniqueConstraints(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	thiago := mustCreate(t, s, "Thiago Silva", "1995", 1)
	if thiago.ID == 0 {
		t.Fatal("CreateStudent did not set ID")
	}
	victor := mustCreate(t, s, "Victor Pereira", "5678", 2)

	sameNumber := models.RegisteredStudent{Name: "Outro", CPF4: "0000", CallNumber: 1}
	if err := s.CreateStudent(ctx, &sameNumber); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate call number err = %v, want ErrDuplicate", err)
	}
	samePair := models.RegisteredStudent{Name: "Thiago Silva", CPF4: "1995", CallNumber: 9}
	if err := s.CreateStudent(ctx, &samePair); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate name+cpf4 err = %v, want ErrDuplicate", err)
	}

	// редактирование в чужой номер откатывается, обе записи не меняются
	victor.CallNumber = 1
	victor.Name = "Victor Renomeado"
	if err := s.UpdateStudent(ctx, victor); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("colliding update err = %v, want ErrDuplicate", err)
	}
	got, err := s.GetStudent(ctx, victor.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Victor Pereira" || got.CallNumber != 2 {
		t.Errorf("victor changed after failed update: %+v", got)
	}
	got, err = s.GetStudent(ctx, thiago.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != thiago {
		t.Errorf("thiago changed: %+v", got)
	}

	if err := s.UpdateStudent(ctx, models.RegisteredStudent{ID: 999, Name: "X", CPF4: "1111", CallNumber: 5}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing err = %v, want ErrNotFound", err)
	}
}

func TestRoster_LookupListDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, "Isaque Alves", "1379", 3)
	thiago := mustCreate(t, s, "Thiago Silva", "1995", 1)

	found, err := s.FindStudent(ctx, 1, "1995")
	if err != nil {
		t.Fatalf("FindStudent: %v", err)
	}
	if found.Name != "Thiago Silva" {
		t.Errorf("found %+v", found)
	}
	if _, err := s.FindStudent(ctx, 1, "0000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrong cpf4 err = %v, want ErrNotFound", err)
	}

	ok, err := s.StudentExistsByNameCPF(ctx, "Isaque Alves", "1379")
	if err != nil || !ok {
		t.Errorf("StudentExistsByNameCPF = %v, %v", ok, err)
	}
	ok, err = s.StudentExistsByCallNumber(ctx, 7)
	if err != nil || ok {
		t.Errorf("StudentExistsByCallNumber(7) = %v, %v", ok, err)
	}

	list, err := s.ListStudents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].CallNumber != 1 || list[1].CallNumber != 3 {
		t.Errorf("list not ordered by call number: %+v", list)
	}

	if err := s.DeleteStudent(ctx, thiago.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteStudent(ctx, thiago.ID); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
	if n, _ := s.CountStudents(ctx); n != 1 {
		t.Errorf("count after delete = %d", n)
	}
}

func TestLedger_OnePerDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sat := time.Date(2026, 10, 17, 14, 0, 0, 0, time.UTC)
	rec := models.AttendanceRecord{Name: "Thiago Silva", Matricula: "1995", Timestamp: sat, Day: "2026-10-17", CallNumber: 1}
	if err := s.InsertAttendance(ctx, &rec); err != nil {
		t.Fatalf("InsertAttendance: %v", err)
	}

	has, err := s.HasCheckIn(ctx, 1, "2026-10-17")
	if err != nil || !has {
		t.Errorf("HasCheckIn = %v, %v", has, err)
	}

	again := rec
	again.Timestamp = sat.Add(time.Minute)
	if err := s.InsertAttendance(ctx, &again); !errors.Is(err, ErrDuplicate) {
		t.Errorf("same-day insert err = %v, want ErrDuplicate", err)
	}

	sun := rec
	sun.Timestamp = sat.Add(24 * time.Hour)
	sun.Day = "2026-10-18"
	if err := s.InsertAttendance(ctx, &sun); err != nil {
		t.Errorf("next-day insert: %v", err)
	}

	day, err := s.ListAttendanceByDay(ctx, "2026-10-17")
	if err != nil {
		t.Fatal(err)
	}
	if len(day) != 1 || !day[0].Timestamp.Equal(sat) || day[0].Name != "Thiago Silva" {
		t.Errorf("ListAttendanceByDay = %+v", day)
	}
}

func TestLedger_SnapshotAndClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	called := false
	n, err := s.SnapshotAndClear(ctx, func([]models.AttendanceRecord) error {
		called = true
		return nil
	})
	if err != nil || n != 0 || called {
		t.Fatalf("empty snapshot: n=%d err=%v called=%v", n, err, called)
	}

	base := time.Date(2026, 10, 17, 13, 0, 0, 0, time.UTC)
	for i := 3; i >= 1; i-- {
		rec := models.AttendanceRecord{
			Name: "Aluno", Matricula: "1234", CallNumber: i,
			Timestamp: base.Add(time.Duration(i) * time.Minute), Day: "2026-10-17",
		}
		if err := s.InsertAttendance(ctx, &rec); err != nil {
			t.Fatal(err)
		}
	}

	// ошибка архивации откатывает удаление
	boom := errors.New("disk full")
	if _, err := s.SnapshotAndClear(ctx, func([]models.AttendanceRecord) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if c, _ := s.CountAttendance(ctx); c != 3 {
		t.Fatalf("count after failed snapshot = %d, want 3", c)
	}

	var got []models.AttendanceRecord
	n, err = s.SnapshotAndClear(ctx, func(r []models.AttendanceRecord) error {
		got = r
		return nil
	})
	if err != nil || n != 3 {
		t.Fatalf("snapshot n=%d err=%v", n, err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Errorf("snapshot not ordered by timestamp: %+v", got)
		}
	}
	if c, _ := s.CountAttendance(ctx); c != 0 {
		t.Errorf("count after snapshot = %d, want 0", c)
	}
}

func TestLedger_DeleteAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := models.AttendanceRecord{Name: "A", Matricula: "1111", CallNumber: 1, Timestamp: time.Now(), Day: "2026-10-17"}
	if err := s.InsertAttendance(ctx, &rec); err != nil {
		t.Fatal(err)
	}
	n, err := s.DeleteAllAttendance(ctx)
	if err != nil || n != 1 {
		t.Errorf("DeleteAllAttendance = %d, %v", n, err)
	}
}

func TestAdmin_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetAdmin(ctx, "admin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAdmin before seed err = %v", err)
	}
	if err := s.UpsertAdmin(ctx, "admin", "h1"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertAdmin(ctx, "admin", "h2"); err != nil {
		t.Fatal(err)
	}
	a, err := s.GetAdmin(ctx, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if a.PasswordHash != "h2" {
		t.Errorf("hash = %q, want h2", a.PasswordHash)
	}
}
