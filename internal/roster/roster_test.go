package roster

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"Presenca/internal/auth"
	"Presenca/internal/config"
	"Presenca/internal/db"
	"Presenca/internal/models"
	"Presenca/internal/store"
)

// Тесты идут против настоящего sqlite: конфликты уникальности проверяет БД
func newTestEnv(t *testing.T) (*Service, auth.Admin) {
	t.Helper()
	d, err := db.Open(config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "roster.db"),
		MaxOpenConns: 2,
	}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	st := store.New(d, time.UTC)

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err := st.UpsertAdmin(ctx, "admin", string(hash)); err != nil {
		t.Fatal(err)
	}
	admin, err := auth.NewService(st, zap.NewNop()).Login(ctx, "admin", "pw")
	if err != nil {
		t.Fatal(err)
	}
	return NewService(st, zap.NewNop()), admin
}

func TestCreate_Validation(t *testing.T) {
	svc, admin := newTestEnv(t)

	tests := []struct {
		name string
		form StudentForm
		want error
	}{
		{"blank name", StudentForm{Name: "  ", CallNumber: "1", CPF4: "1995"}, ErrRequiredFields},
		{"blank number", StudentForm{Name: "A", CallNumber: "", CPF4: "1995"}, ErrRequiredFields},
		{"blank cpf", StudentForm{Name: "A", CallNumber: "1", CPF4: ""}, ErrRequiredFields},
		{"number letters", StudentForm{Name: "A", CallNumber: "um", CPF4: "1995"}, ErrCallNumberNotNumeric},
		{"number and cpf bad", StudentForm{Name: "A", CallNumber: "um", CPF4: "19"}, ErrCallNumberNotNumeric},
		{"number zero", StudentForm{Name: "A", CallNumber: "0", CPF4: "1995"}, ErrInvalidCallNumber},
		{"cpf short", StudentForm{Name: "A", CallNumber: "1", CPF4: "199"}, ErrInvalidCPF},
		{"cpf letters", StudentForm{Name: "A", CallNumber: "1", CPF4: "abcd"}, ErrInvalidCPF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), admin, tt.form)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreate_Duplicates(t *testing.T) {
	svc, admin := newTestEnv(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, admin, StudentForm{Name: "Thiago Silva", CallNumber: "1", CPF4: "1995"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, admin, StudentForm{Name: "Outro Aluno", CallNumber: "1", CPF4: "2222"}); !errors.Is(err, ErrDuplicateCallNumber) {
		t.Errorf("same call number err = %v", err)
	}
	if _, err := svc.Create(ctx, admin, StudentForm{Name: "Thiago Silva", CallNumber: "7", CPF4: "1995"}); !errors.Is(err, ErrDuplicateNameCPF) {
		t.Errorf("same name+cpf err = %v", err)
	}
}

func TestUpdate_CollisionLeavesBothUnchanged(t *testing.T) {
	svc, admin := newTestEnv(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, admin, StudentForm{Name: "Thiago Silva", CallNumber: "1", CPF4: "1995"})
	b, _ := svc.Create(ctx, admin, StudentForm{Name: "Victor Pereira", CallNumber: "2", CPF4: "5678"})

	_, err := svc.Update(ctx, admin, b.ID, StudentForm{Name: "Victor P.", CallNumber: "1", CPF4: "5678"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	list, err := svc.List(ctx, admin)
	if err != nil {
		t.Fatal(err)
	}
	want := []models.RegisteredStudent{a, b}
	if len(list) != 2 || list[0] != want[0] || list[1] != want[1] {
		t.Errorf("roster after failed update = %+v, want %+v", list, want)
	}

	updated, err := svc.Update(ctx, admin, b.ID, StudentForm{Name: "Victor P.", CallNumber: "12", CPF4: "5678"})
	if err != nil {
		t.Fatalf("valid update: %v", err)
	}
	if got, _ := svc.Get(ctx, admin, b.ID); got != updated {
		t.Errorf("Get = %+v, want %+v", got, updated)
	}

	if _, err := svc.Update(ctx, admin, 999, StudentForm{Name: "X", CallNumber: "20", CPF4: "0000"}); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("update missing err = %v", err)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	svc, admin := newTestEnv(t)
	ctx := context.Background()

	st, _ := svc.Create(ctx, admin, StudentForm{Name: "Isaque Alves", CallNumber: "3", CPF4: "1379"})
	if err := svc.Delete(ctx, admin, st.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, admin, st.ID); err != nil {
		t.Errorf("second delete: %v", err)
	}
	if _, err := svc.Get(ctx, admin, st.ID); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
}

func TestRequiresAdmin(t *testing.T) {
	svc, _ := newTestEnv(t)
	ctx := context.Background()

	if _, err := svc.List(ctx, auth.Admin{}); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("List err = %v", err)
	}
	if _, err := svc.Create(ctx, auth.Admin{}, StudentForm{Name: "A", CallNumber: "1", CPF4: "1111"}); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("Create err = %v", err)
	}
	if err := svc.Delete(ctx, auth.Admin{}, 1); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("Delete err = %v", err)
	}
}

func TestSeed_OnlyWhenEmpty(t *testing.T) {
	svc, admin := newTestEnv(t)
	ctx := context.Background()
	seed := []models.RegisteredStudent{
		{Name: "Thiago Silva", CallNumber: 1, CPF4: "1995"},
		{Name: "Victor Pereira", CallNumber: 2, CPF4: "5678"},
	}

	if err := svc.Seed(ctx, seed); err != nil {
		t.Fatal(err)
	}
	if err := svc.Seed(ctx, seed); err != nil {
		t.Fatalf("second seed should be a no-op: %v", err)
	}
	list, _ := svc.List(ctx, admin)
	if len(list) != 2 {
		t.Errorf("roster size = %d, want 2", len(list))
	}
}
