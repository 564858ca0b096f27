// identity - пакет с моделью пользователя и интерфейсом хранилища учётных записей.
package identity

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateUsername - пользователь с таким логином уже зарегистрирован.
// Возвращается только хранилищами, которые обеспечивают уникальность логина.
var ErrDuplicateUsername = errors.New("username already exists")

// UserStore - интерфейс хранилища учётных записей пользователей.
// Хранилище ничего не знает о хэшировании, пароль приходит в него уже в виде хэша и соли.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) ([]UserRecord, error)  // Поиск записей по логину, уникальность не гарантируется.
	GetByID(ctx context.Context, id string) (user UserRecord, ok bool, err error) // Получение записи по id.
	Create(ctx context.Context, user UserRecord) (UserRecord, error)             // Создание записи, id назначает хранилище.
	Delete(ctx context.Context, id string) (bool, error)                         // Удаление записи по id.
}

// UserRecord - учётная запись пользователя.
// Хэш пароля и соль никогда не попадают в ответы клиенту.
type UserRecord struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	PasswordDigest string    `json:"-"`
	Salt           string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Credentials - данные для регистрации и аутентификации пользователя.
// Существуют только в памяти на время обработки одного запроса.
type Credentials struct {
	Username string `json:"username"` // логин пользователя
	Password string `json:"password"` // пароль в открытом виде
}
