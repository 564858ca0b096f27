// serializer - пакет для перевода аутентифицированного пользователя в токен сессии и обратно.
package serializer

import (
	"context"
	"fmt"

	"github.com/abezemskiy/gophauth/internal/repositories/identity"
	"github.com/abezemskiy/gophauth/internal/repositories/session"
)

// Serialize - возвращает токен сессии для пользователя. В токен попадает только идентификатор.
func Serialize(user identity.UserRecord) session.SessionToken {
	return session.SessionToken{ID: user.ID}
}

// Deserializer - восстанавливает пользователя по токену сессии.
type Deserializer struct {
	users identity.UserStore
}

// NewDeserializer - возвращает новый экземпляр Deserializer.
func NewDeserializer(users identity.UserStore) *Deserializer {
	return &Deserializer{
		users: users,
	}
}

// Deserialize - загружает пользователя, на которого ссылается токен.
// Если пользователь удалён, возвращается ok == false, такую сессию следует считать недействительной.
func (d *Deserializer) Deserialize(ctx context.Context, token session.SessionToken) (identity.UserRecord, bool, error) {
	if token.ID == "" {
		return identity.UserRecord{}, false, nil
	}
	user, ok, err := d.users.GetByID(ctx, token.ID)
	if err != nil {
		return identity.UserRecord{}, false, fmt.Errorf("get user by id error, %w", err)
	}
	return user, ok, nil
}
