// session - пакет с описанием хранилища сессий пользователей.
package session

import (
	"context"
	"time"
)

// SessionToken - сериализованная личность аутентифицированного пользователя.
// Содержит только идентификатор пользователя, остальные данные загружаются из хранилища пользователей.
type SessionToken struct {
	ID string `json:"id"`
}

// TokenKeeper - интерфейс хранилища сессий, ключом выступает идентификатор сессии.
type TokenKeeper interface {
	Save(ctx context.Context, sessionID string, token SessionToken, ttl time.Duration) error // Сохранение токена сессии на время ttl.
	Load(ctx context.Context, sessionID string) (token SessionToken, ok bool, err error)   // Получение токена по идентификатору сессии.
	Delete(ctx context.Context, sessionID string) error                                   // Удаление сессии.
}
