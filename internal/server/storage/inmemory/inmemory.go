// inmemory - хранилище учётных записей пользователей в оперативной памяти.
// Используется для локального запуска и тестов, данные теряются при перезапуске сервера.
package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abezemskiy/gophauth/internal/common/identity/tools/id"
	"github.com/abezemskiy/gophauth/internal/repositories/identity"
)

// Option - функция настройки хранилища.
type Option func(*Store)

// WithUniqueUsernames - включает проверку уникальности логина при создании пользователя.
// По умолчанию уникальность не проверяется и два пользователя с одним логином могут сосуществовать.
func WithUniqueUsernames() Option {
	return func(s *Store) {
		s.unique = true
	}
}

// Store - потокобезопасное хранилище пользователей в оперативной памяти.
type Store struct {
	mu     sync.RWMutex
	unique bool
	users  map[string]identity.UserRecord
	// order - порядок создания пользователей, чтобы FindByUsername возвращал записи детерминированно
	order []string
}

// NewStore - фабричная функция для создания хранилища пользователей в памяти.
func NewStore(opts ...Option) *Store {
	s := &Store{
		users: make(map[string]identity.UserRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindByUsername - возвращает все записи с переданным логином в порядке создания.
func (s *Store) FindByUsername(ctx context.Context, username string) ([]identity.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []identity.UserRecord
	for _, userID := range s.order {
		if u := s.users[userID]; u.Username == username {
			result = append(result, u)
		}
	}
	return result, nil
}

// GetByID - возвращает пользователя по идентификатору.
func (s *Store) GetByID(ctx context.Context, userID string) (identity.UserRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return identity.UserRecord{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	return u, ok, nil
}

// Create - сохраняет нового пользователя, назначая ему идентификатор и время создания.
func (s *Store) Create(ctx context.Context, user identity.UserRecord) (identity.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return identity.UserRecord{}, err
	}
	userID, err := id.GenerateId()
	if err != nil {
		return identity.UserRecord{}, fmt.Errorf("generate user id error, %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unique {
		for _, u := range s.users {
			if u.Username == user.Username {
				return identity.UserRecord{}, identity.ErrDuplicateUsername
			}
		}
	}

	user.ID = userID
	user.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	s.users[userID] = user
	s.order = append(s.order, userID)
	return user, nil
}

// Delete - удаляет пользователя. Если пользователь не найден, возвращается false.
func (s *Store) Delete(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return false, nil
	}
	delete(s.users, userID)
	for i, v := range s.order {
		if v == userID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}
