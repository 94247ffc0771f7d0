package attendance

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"Presenca/internal/metrics"
	"Presenca/internal/models"
	"Presenca/internal/store"
)

var (
	// не различаем «нет такого номера» и «неверный CPF»
	ErrInvalidCredentials = errors.New("Número de chamada ou CPF inválido!")
	ErrAlreadyCheckedIn   = errors.New("Você já registrou sua presença hoje!")
)

type RosterLookup interface {
	FindStudent(ctx context.Context, callNumber int, cpf4 string) (models.RegisteredStudent, error)
}

type Ledger interface {
	HasCheckIn(ctx context.Context, callNumber int, day string) (bool, error)
	InsertAttendance(ctx context.Context, rec *models.AttendanceRecord) error
}

type Service struct {
	window  Window
	roster  RosterLookup
	ledger  Ledger
	now     func() time.Time
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewService(w Window, roster RosterLookup, ledger Ledger, now func() time.Time, log *zap.Logger, m *metrics.Metrics) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{window: w, roster: roster, ledger: ledger, now: now, log: log, metrics: m}
}

// CheckIn: проверка формы и окна -> поиск в реестре -> отметка за день.
// Имя берётся из реестра, а не из формы.
func (s *Service) CheckIn(ctx context.Context, callNumber, cpf4 string) (models.AttendanceRecord, error) {
	sub, err := s.window.Validate(callNumber, cpf4, s.now())
	if err != nil {
		s.metrics.CheckIn(resultOf(err))
		return models.AttendanceRecord{}, err
	}

	st, err := s.roster.FindStudent(ctx, sub.CallNumber, sub.CPF4)
	if errors.Is(err, store.ErrNotFound) {
		s.metrics.CheckIn("invalid_credentials")
		return models.AttendanceRecord{}, ErrInvalidCredentials
	}
	if err != nil {
		return s.fail(err)
	}

	day := sub.Day()
	already, err := s.ledger.HasCheckIn(ctx, sub.CallNumber, day)
	if err != nil {
		return s.fail(err)
	}
	if already {
		s.metrics.CheckIn("duplicate")
		return models.AttendanceRecord{}, ErrAlreadyCheckedIn
	}

	rec := models.AttendanceRecord{
		Name:       st.Name,
		Matricula:  sub.CPF4,
		Timestamp:  sub.At,
		Day:        day,
		CallNumber: sub.CallNumber,
	}
	// гонка двух одновременных отметок ловится уникальным индексом
	if err := s.ledger.InsertAttendance(ctx, &rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.metrics.CheckIn("duplicate")
			return models.AttendanceRecord{}, ErrAlreadyCheckedIn
		}
		return s.fail(err)
	}

	s.metrics.CheckIn("accepted")
	s.log.Info("check-in accepted",
		zap.Int("numero_chamada", rec.CallNumber),
		zap.String("dia", rec.Day),
	)
	return rec, nil
}

func (s *Service) fail(err error) (models.AttendanceRecord, error) {
	s.metrics.CheckIn("error")
	s.log.Error("check-in failed", zap.Error(err))
	return models.AttendanceRecord{}, err
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, ErrNotAllowedDay), errors.Is(err, ErrOutsideHours):
		return "outside_window"
	default:
		return "invalid_format"
	}
}

// IsRejection: ошибка, которую можно показать пользователю как есть
func IsRejection(err error) bool {
	for _, e := range []error{
		ErrInvalidCPF, ErrInvalidCallNumber, ErrNotAllowedDay, ErrOutsideHours,
		ErrInvalidCredentials, ErrAlreadyCheckedIn,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
