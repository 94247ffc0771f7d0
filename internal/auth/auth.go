package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"Presenca/internal/models"
	"Presenca/internal/store"
)

var (
	// одна и та же ошибка для неизвестного логина и неверного пароля
	ErrInvalidCredentials = errors.New("Usuário ou senha incorretos!")
	ErrUnauthenticated    = errors.New("Faça login para continuar.")
)

// Admin: подтверждение входа администратора. Получить его можно только
// через Login или Resume, и его требуют все операции управления.
type Admin struct {
	username string
}

func (a Admin) Username() string { return a.username }

// Require проверяет, что значение выдано этим пакетом
func Require(a Admin) error {
	if a.username == "" {
		return ErrUnauthenticated
	}
	return nil
}

type CredentialStore interface {
	UpsertAdmin(ctx context.Context, username, passwordHash string) error
	GetAdmin(ctx context.Context, username string) (models.Administrator, error)
}

type Service struct {
	store CredentialStore
	log   *zap.Logger
	cost  int
	dummy []byte
}

func NewService(s CredentialStore, log *zap.Logger) *Service {
	return newService(s, log, bcrypt.DefaultCost)
}

func newService(s CredentialStore, log *zap.Logger, cost int) *Service {
	// хэш-заглушка: для неизвестного логина сравнение занимает столько же времени
	dummy, _ := bcrypt.GenerateFromPassword([]byte("presenca-dummy"), cost)
	return &Service{store: s, log: log, cost: cost, dummy: dummy}
}

// Seed перехэширует и перезаписывает пароль администратора при каждом старте
func (s *Service) Seed(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if err := s.store.UpsertAdmin(ctx, username, string(hash)); err != nil {
		return fmt.Errorf("auth: seed admin: %w", err)
	}
	s.log.Info("admin credential seeded", zap.String("username", username))
	return nil
}

func (s *Service) Login(ctx context.Context, username, password string) (Admin, error) {
	if username == "" || password == "" {
		return Admin{}, ErrInvalidCredentials
	}

	a, err := s.store.GetAdmin(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
		return Admin{}, ErrInvalidCredentials
	}
	if err != nil {
		return Admin{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return Admin{}, ErrInvalidCredentials
	}
	return Admin{username: a.Username}, nil
}

// Resume восстанавливает Admin по имени из подписанной сессии,
// если такая учётка всё ещё существует
func (s *Service) Resume(ctx context.Context, username string) (Admin, error) {
	if username == "" {
		return Admin{}, ErrUnauthenticated
	}
	a, err := s.store.GetAdmin(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return Admin{}, ErrUnauthenticated
	}
	if err != nil {
		return Admin{}, err
	}
	return Admin{username: a.Username}, nil
}
