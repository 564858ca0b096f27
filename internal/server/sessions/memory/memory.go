// memory - хранилище сессий в оперативной памяти процесса на базе bigcache.
// Сессии теряются при перезапуске сервера, после чего пользователю нужно заново пройти вход.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abezemskiy/gophauth/internal/repositories/session"

	"github.com/allegro/bigcache/v3"
)

// entry - запись сессии в кэше. Срок действия хранится вместе с токеном,
// так как bigcache вытесняет записи только по общему окну жизни.
type entry struct {
	Token     session.SessionToken `json:"token"`
	ExpiresAt int64                `json:"expires_at"`
}

// Store - хранилище сессий в памяти.
type Store struct {
	cache *bigcache.BigCache
	now   func() time.Time
}

// NewStore - создаёт хранилище сессий. lifeWindow - максимальное время жизни сессии.
func NewStore(lifeWindow time.Duration) (*Store, error) {
	cache, err := bigcache.NewBigCache(bigcache.DefaultConfig(lifeWindow))
	if err != nil {
		return nil, fmt.Errorf("create session cache error, %w", err)
	}
	return &Store{
		cache: cache,
		now:   time.Now,
	}, nil
}

// Save - сохраняет токен сессии.
func (s *Store) Save(ctx context.Context, sessionID string, token session.SessionToken, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf, err := json.Marshal(entry{Token: token, ExpiresAt: s.now().Add(ttl).UnixNano()})
	if err != nil {
		return fmt.Errorf("marshal session error, %w", err)
	}
	if err := s.cache.Set(sessionID, buf); err != nil {
		return fmt.Errorf("save session to cache error, %w", err)
	}
	return nil
}

// Load - получает токен сессии. Истекшие и отсутствующие сессии возвращаются с ok == false.
func (s *Store) Load(ctx context.Context, sessionID string) (session.SessionToken, bool, error) {
	if err := ctx.Err(); err != nil {
		return session.SessionToken{}, false, err
	}
	buf, err := s.cache.Get(sessionID)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return session.SessionToken{}, false, nil
		}
		return session.SessionToken{}, false, fmt.Errorf("load session from cache error, %w", err)
	}
	var e entry
	if err := json.Unmarshal(buf, &e); err != nil {
		return session.SessionToken{}, false, fmt.Errorf("unmarshal session error, %w", err)
	}
	if s.now().UnixNano() >= e.ExpiresAt {
		_ = s.cache.Delete(sessionID)
		return session.SessionToken{}, false, nil
	}
	return e.Token, true, nil
}

// Delete - удаляет сессию. Удаление отсутствующей сессии не является ошибкой.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.cache.Delete(sessionID)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("delete session from cache error, %w", err)
	}
	return nil
}

// Close - освобождает ресурсы кэша.
func (s *Store) Close() error {
	return s.cache.Close()
}
