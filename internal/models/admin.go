package models

// Administrator: запись из таблицы admin.
// Пароль хранится только как bcrypt-хэш (колонка senha).
type Administrator struct {
	ID           int
	Username     string
	PasswordHash string
}
