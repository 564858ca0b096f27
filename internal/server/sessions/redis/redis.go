// redis - хранилище сессий в Redis. Позволяет нескольким экземплярам сервера разделять сессии.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abezemskiy/gophauth/internal/repositories/session"

	goredis "github.com/redis/go-redis/v9"
)

// keyPrefix - префикс ключей сессий в Redis.
const keyPrefix = "gophauth:session:"

// Store - хранилище сессий в Redis.
type Store struct {
	client goredis.UniversalClient
}

// NewStore - возвращает новый экземпляр хранилища сессий поверх клиента Redis.
func NewStore(client goredis.UniversalClient) *Store {
	return &Store{
		client: client,
	}
}

// Connect - подключается к Redis по адресу и проверяет соединение.
func Connect(ctx context.Context, addr string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis error, %w", err)
	}
	return NewStore(client), nil
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// Save - сохраняет токен сессии, срок жизни ключа выставляется равным ttl.
func (s *Store) Save(ctx context.Context, sessionID string, token session.SessionToken, ttl time.Duration) error {
	buf, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal session error, %w", err)
	}
	if err := s.client.Set(ctx, key(sessionID), buf, ttl).Err(); err != nil {
		return fmt.Errorf("save session to redis error, %w", err)
	}
	return nil
}

// Load - получает токен сессии. Отсутствующая или истекшая сессия возвращается с ok == false.
func (s *Store) Load(ctx context.Context, sessionID string) (session.SessionToken, bool, error) {
	buf, err := s.client.Get(ctx, key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return session.SessionToken{}, false, nil
		}
		return session.SessionToken{}, false, fmt.Errorf("load session from redis error, %w", err)
	}
	var tok session.SessionToken
	if err := json.Unmarshal(buf, &tok); err != nil {
		return session.SessionToken{}, false, fmt.Errorf("unmarshal session error, %w", err)
	}
	return tok, true, nil
}

// Delete - удаляет сессию.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session from redis error, %w", err)
	}
	return nil
}

// Close - закрывает соединение с Redis.
func (s *Store) Close() error {
	return s.client.Close()
}
