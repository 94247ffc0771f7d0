package roster

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"Presenca/internal/auth"
	"Presenca/internal/models"
	"Presenca/internal/store"
)

var (
	ErrRequiredFields       = errors.New("Todos os campos são obrigatórios!")
	ErrCallNumberNotNumeric = errors.New("Número de chamada deve ser numérico!")
	ErrInvalidCallNumber    = errors.New("Número de chamada inválido!")
	ErrInvalidCPF           = errors.New("CPF deve ter 4 dígitos!")
	ErrDuplicateNameCPF     = errors.New("Aluno com esse nome e CPF (últimos 4) já cadastrado!")
	ErrDuplicateCallNumber  = errors.New("Número de chamada já cadastrado!")
	ErrDuplicate            = errors.New("Erro: nome + CPF ou número de chamada duplicados!")
	ErrStudentNotFound      = errors.New("Aluno não encontrado!")
)

// StudentForm: сырые поля формы создания/редактирования
type StudentForm struct {
	Name       string `validate:"required"`
	CallNumber string `validate:"required,number"`
	CPF4       string `validate:"required,len=4,number"`
}

type Store interface {
	ListStudents(ctx context.Context) ([]models.RegisteredStudent, error)
	GetStudent(ctx context.Context, id int) (models.RegisteredStudent, error)
	StudentExistsByNameCPF(ctx context.Context, name, cpf4 string) (bool, error)
	StudentExistsByCallNumber(ctx context.Context, callNumber int) (bool, error)
	CountStudents(ctx context.Context) (int, error)
	CreateStudent(ctx context.Context, st *models.RegisteredStudent) error
	UpdateStudent(ctx context.Context, st models.RegisteredStudent) error
	DeleteStudent(ctx context.Context, id int) error
}

type Service struct {
	store    Store
	log      *zap.Logger
	validate *validator.Validate
}

func NewService(s Store, log *zap.Logger) *Service {
	return &Service{store: s, log: log, validate: validator.New()}
}

func (s *Service) List(ctx context.Context, admin auth.Admin) ([]models.RegisteredStudent, error) {
	if err := auth.Require(admin); err != nil {
		return nil, err
	}
	return s.store.ListStudents(ctx)
}

func (s *Service) Get(ctx context.Context, admin auth.Admin, id int) (models.RegisteredStudent, error) {
	if err := auth.Require(admin); err != nil {
		return models.RegisteredStudent{}, err
	}
	st, err := s.store.GetStudent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.RegisteredStudent{}, ErrStudentNotFound
	}
	return st, err
}

// Create: валидация полей, затем проверки уникальности (имя+CPF, номер)
// с понятными сообщениями; гонку ловит уникальный индекс
func (s *Service) Create(ctx context.Context, admin auth.Admin, form StudentForm) (models.RegisteredStudent, error) {
	if err := auth.Require(admin); err != nil {
		return models.RegisteredStudent{}, err
	}
	st, err := s.parse(form)
	if err != nil {
		return models.RegisteredStudent{}, err
	}

	dup, err := s.store.StudentExistsByNameCPF(ctx, st.Name, st.CPF4)
	if err != nil {
		return models.RegisteredStudent{}, err
	}
	if dup {
		return models.RegisteredStudent{}, ErrDuplicateNameCPF
	}
	dup, err = s.store.StudentExistsByCallNumber(ctx, st.CallNumber)
	if err != nil {
		return models.RegisteredStudent{}, err
	}
	if dup {
		return models.RegisteredStudent{}, ErrDuplicateCallNumber
	}

	if err := s.store.CreateStudent(ctx, &st); err != nil {
		return models.RegisteredStudent{}, s.conflict("create", err)
	}
	s.log.Info("student registered", zap.Int("id", st.ID), zap.Int("numero_chamada", st.CallNumber), zap.String("by", admin.Username()))
	return st, nil
}

func (s *Service) Update(ctx context.Context, admin auth.Admin, id int, form StudentForm) (models.RegisteredStudent, error) {
	if err := auth.Require(admin); err != nil {
		return models.RegisteredStudent{}, err
	}
	st, err := s.parse(form)
	if err != nil {
		return models.RegisteredStudent{}, err
	}
	st.ID = id

	if err := s.store.UpdateStudent(ctx, st); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.RegisteredStudent{}, ErrStudentNotFound
		}
		return models.RegisteredStudent{}, s.conflict("update", err)
	}
	s.log.Info("student updated", zap.Int("id", id), zap.String("by", admin.Username()))
	return st, nil
}

// Delete идемпотентен
func (s *Service) Delete(ctx context.Context, admin auth.Admin, id int) error {
	if err := auth.Require(admin); err != nil {
		return err
	}
	if err := s.store.DeleteStudent(ctx, id); err != nil {
		return err
	}
	s.log.Info("student deleted", zap.Int("id", id), zap.String("by", admin.Username()))
	return nil
}

// Seed заполняет пустой реестр примерами; непустой не трогает
func (s *Service) Seed(ctx context.Context, students []models.RegisteredStudent) error {
	if len(students) == 0 {
		return nil
	}
	n, err := s.store.CountStudents(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, st := range students {
		if err := s.store.CreateStudent(ctx, &st); err != nil {
			return err
		}
	}
	s.log.Info("roster seeded", zap.Int("count", len(students)))
	return nil
}

// conflict: причину пишем в лог, наружу: общее сообщение
func (s *Service) conflict(op string, err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		s.log.Warn("roster write rejected by unique constraint", zap.String("op", op), zap.Error(err))
		return ErrDuplicate
	}
	return err
}

func (s *Service) parse(form StudentForm) (models.RegisteredStudent, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.CallNumber = strings.TrimSpace(form.CallNumber)
	form.CPF4 = strings.TrimSpace(form.CPF4)

	if err := s.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return models.RegisteredStudent{}, err
		}
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return models.RegisteredStudent{}, ErrRequiredFields
			}
		}
		// ошибки идут в порядке полей: сначала номер, потом CPF
		if verrs[0].Field() == "CallNumber" {
			return models.RegisteredStudent{}, ErrCallNumberNotNumeric
		}
		return models.RegisteredStudent{}, ErrInvalidCPF
	}

	n, err := strconv.Atoi(form.CallNumber)
	if err != nil || n < 1 {
		return models.RegisteredStudent{}, ErrInvalidCallNumber
	}
	return models.RegisteredStudent{Name: form.Name, CPF4: form.CPF4, CallNumber: n}, nil
}

// IsRejection: ошибка для показа пользователю
func IsRejection(err error) bool {
	for _, e := range []error{
		ErrRequiredFields, ErrCallNumberNotNumeric, ErrInvalidCallNumber, ErrInvalidCPF,
		ErrDuplicateNameCPF, ErrDuplicateCallNumber, ErrDuplicate, ErrStudentNotFound,
		auth.ErrUnauthenticated,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
