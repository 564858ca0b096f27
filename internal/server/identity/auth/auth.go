// auth - пакет, который реализует middleware для восстановления пользователя по сессии.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/abezemskiy/gophauth/internal/common/identity/tools/header"
	"github.com/abezemskiy/gophauth/internal/common/identity/tools/token"
	"github.com/abezemskiy/gophauth/internal/repositories/identity"
	"github.com/abezemskiy/gophauth/internal/repositories/session"
	"github.com/abezemskiy/gophauth/internal/server/logger"

	"go.uber.org/zap"
)

type contextKey string

const (
	// UserKey - ключ для установки пользователя в контекст.
	UserKey = contextKey("user")
	// SessionIDKey - ключ для установки id сессии в контекст.
	SessionIDKey = contextKey("sessionID")
)

// Deserializer - восстановление пользователя по токену сессии.
type Deserializer interface {
	Deserialize(ctx context.Context, token session.SessionToken) (identity.UserRecord, bool, error)
}

// Resolver - восстанавливает пользователя по подписанному токену из запроса.
type Resolver struct {
	sessions     session.TokenKeeper
	deserializer Deserializer
}

// NewResolver - возвращает новый экземпляр Resolver.
func NewResolver(sessions session.TokenKeeper, deserializer Deserializer) *Resolver {
	return &Resolver{
		sessions:     sessions,
		deserializer: deserializer,
	}
}

// Resolve - возвращает пользователя и id сессии для токена.
// Неверный или просроченный токен, неизвестная сессия и удалённый пользователь дают ok == false.
// Ошибка возвращается только при сбое хранилищ.
func (r *Resolver) Resolve(ctx context.Context, rawToken string) (identity.UserRecord, string, bool, error) {
	sessionID, err := token.GetSessionIDFromToken(rawToken)
	if err != nil {
		logger.ServerLog.Debug("session token rejected", zap.Error(err))
		return identity.UserRecord{}, "", false, nil
	}

	tok, ok, err := r.sessions.Load(ctx, sessionID)
	if err != nil {
		return identity.UserRecord{}, "", false, fmt.Errorf("load session error, %w", err)
	}
	if !ok {
		return identity.UserRecord{}, "", false, nil
	}

	user, ok, err := r.deserializer.Deserialize(ctx, tok)
	if err != nil {
		return identity.UserRecord{}, "", false, fmt.Errorf("deserialize session error, %w", err)
	}
	if !ok {
		// пользователь удалён, сессия больше не нужна
		if err := r.sessions.Delete(ctx, sessionID); err != nil {
			logger.ServerLog.Warn("delete stale session error", zap.String("session", sessionID), zap.Error(err))
		}
		return identity.UserRecord{}, "", false, nil
	}
	return user, sessionID, true, nil
}

// Middleware - восстанавливает пользователя по сессии и устанавливает его в контекст запроса.
// Если пользователя восстановить не удалось, запрос обрабатывается как неаутентифицированный.
func Middleware(resolver *Resolver) func(http.Handler) http.HandlerFunc {
	return func(h http.Handler) http.HandlerFunc {
		return func(res http.ResponseWriter, req *http.Request) {
			// устаревшая cookie не должна скрывать действующий токен из заголовка
			for _, rawToken := range header.GetTokens(req) {
				user, sessionID, ok, err := resolver.Resolve(req.Context(), rawToken)
				if err != nil {
					logger.ServerLog.Error("failed to resolve session", zap.String("address", req.URL.String()), zap.String("error", error.Error(err)))
					http.Error(res, "failed to resolve session", http.StatusInternalServerError)
					return
				}
				if !ok {
					continue
				}

				ctx := context.WithValue(req.Context(), UserKey, user)
				ctx = context.WithValue(ctx, SessionIDKey, sessionID)
				h.ServeHTTP(res, req.WithContext(ctx))
				return
			}
			h.ServeHTTP(res, req)
		}
	}
}

// ErrUnauthorized - в контексте запроса нет пользователя.
var ErrUnauthorized = errors.New("user is not authenticated")

// Required - пропускает к обработчику только запросы с восстановленным пользователем.
func Required(h http.Handler) http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		if _, ok := UserFromContext(req.Context()); !ok {
			logger.ServerLog.Debug("unauthenticated request", zap.String("address", req.URL.String()))
			http.Error(res, ErrUnauthorized.Error(), http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(res, req)
	}
}

// UserFromContext - возвращает пользователя, установленного Middleware.
func UserFromContext(ctx context.Context) (identity.UserRecord, bool) {
	user, ok := ctx.Value(UserKey).(identity.UserRecord)
	return user, ok
}

// SessionIDFromContext - возвращает id сессии, установленный Middleware.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(SessionIDKey).(string)
	return sid, ok
}
