package attendance

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"Presenca/internal/models"
)

var (
	ErrInvalidCPF        = errors.New("O CPF deve conter exatamente 4 dígitos!")
	ErrInvalidCallNumber = errors.New("Número de chamada inválido!")
	ErrNotAllowedDay     = errors.New("Presença só pode ser registrada aos finais de semana!")
	ErrOutsideHours      = errors.New("Fora do horário permitido!")
)

var validate = validator.New()

// Window: правила приёма отметок: дни недели, окно времени (включительно
// с обеих сторон) и верхняя граница номера. Всё считается в Location.
type Window struct {
	Weekdays      []time.Weekday
	Opens         time.Duration
	Closes        time.Duration
	MaxCallNumber int
	Location      *time.Location
}

// Submission: прошедшая проверку формы отметка
type Submission struct {
	CallNumber int
	CPF4       string
	At         time.Time
}

// Day: календарный день отметки в часовом поясе окна
func (s Submission) Day() string {
	return s.At.Format(models.DayLayout)
}

// Validate проверяет формат и время без обращения к хранилищу.
// Порядок проверок: CPF, номер, день недели, время.
func (w Window) Validate(callNumber, cpf4 string, now time.Time) (Submission, error) {
	callNumber = strings.TrimSpace(callNumber)
	cpf4 = strings.TrimSpace(cpf4)

	if err := validate.Var(cpf4, "len=4,number"); err != nil {
		return Submission{}, ErrInvalidCPF
	}

	n, err := w.parseCallNumber(callNumber)
	if err != nil {
		return Submission{}, err
	}

	loc := w.Location
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)

	if !slices.Contains(w.Weekdays, local.Weekday()) {
		return Submission{}, ErrNotAllowedDay
	}

	if tod := timeOfDay(local); tod < w.Opens || tod > w.Closes {
		return Submission{}, fmt.Errorf("%w Apenas das %s às %s.", ErrOutsideHours, clock(w.Opens), clock(w.Closes))
	}

	return Submission{CallNumber: n, CPF4: cpf4, At: local}, nil
}

func (w Window) parseCallNumber(s string) (int, error) {
	invalid := fmt.Errorf("%w Deve ser entre 1 e %d.", ErrInvalidCallNumber, w.MaxCallNumber)
	if err := validate.Var(s, "required,number"); err != nil {
		return 0, invalid
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > w.MaxCallNumber {
		return 0, invalid
	}
	return n, nil
}

// timeOfDay: время от полуночи по настенным часам (не по прошедшему времени, важно при переходе на летнее)
func timeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

func clock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// Hours: окно приёма в виде "HH:MM" для страницы
func (w Window) Hours() (opens, closes string) {
	return clock(w.Opens), clock(w.Closes)
}
