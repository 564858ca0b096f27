// login - пакет с конечным автоматом входа пользователя по логину и паролю.
// Каждая попытка входа проходит состояния AwaitingCredentials -> Verifying -> Established | Rejected.
package login

import (
	"context"
	"fmt"
	"time"

	"github.com/abezemskiy/gophauth/internal/common/identity/tools/id"
	"github.com/abezemskiy/gophauth/internal/repositories/identity"
	"github.com/abezemskiy/gophauth/internal/repositories/session"
	"github.com/abezemskiy/gophauth/internal/server/identity/authenticator"
	"github.com/abezemskiy/gophauth/internal/server/identity/serializer"
	"github.com/abezemskiy/gophauth/internal/server/logger"

	"go.uber.org/zap"
)

// State - состояние попытки входа.
type State int

const (
	// AwaitingCredentials - учётные данные ещё не переданы.
	AwaitingCredentials State = iota
	// Verifying - учётные данные проверяются.
	Verifying
	// Established - пользователь аутентифицирован, сессия сохранена.
	Established
	// Rejected - учётные данные отклонены, сессия не создана.
	Rejected
)

func (s State) String() string {
	switch s {
	case AwaitingCredentials:
		return "awaiting credentials"
	case Verifying:
		return "verifying"
	case Established:
		return "established"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result - итог попытки входа.
type Result struct {
	State     State
	SessionID string               // заполняется только для Established
	User      identity.UserRecord  // заполняется только для Established
	Reason    authenticator.Reason // причина отказа для Rejected
}

// Authenticator - проверка учётных данных.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (authenticator.Outcome, error)
}

// Controller - управляет попытками входа и записью сессий в хранилище.
type Controller struct {
	auth     Authenticator
	sessions session.TokenKeeper
	ttl      time.Duration
}

// NewController - возвращает новый экземпляр Controller. ttl - время жизни создаваемых сессий.
func NewController(auth Authenticator, sessions session.TokenKeeper, ttl time.Duration) *Controller {
	return &Controller{
		auth:     auth,
		sessions: sessions,
		ttl:      ttl,
	}
}

// Attempt - обрабатывает одну попытку входа. Состояние предыдущих попыток не учитывается.
// Ошибка возвращается только при сбое хранилищ, в этом случае сессия не создаётся.
func (c *Controller) Attempt(ctx context.Context, creds identity.Credentials) (Result, error) {
	state := AwaitingCredentials
	state = c.transit(state, Verifying, creds.Username)

	outcome, err := c.auth.Authenticate(ctx, creds.Username, creds.Password)
	if err != nil {
		return Result{State: state}, fmt.Errorf("authenticate user error, %w", err)
	}

	if !outcome.Success() {
		state = c.transit(state, Rejected, creds.Username)
		logger.ServerLog.Info("login rejected", zap.String("username", creds.Username), zap.String("reason", outcome.Reason().String()))
		return Result{State: state, Reason: outcome.Reason()}, nil
	}

	sessionID, err := id.GenerateId()
	if err != nil {
		return Result{State: state}, fmt.Errorf("generate session id error, %w", err)
	}
	user := outcome.User()
	if err := c.sessions.Save(ctx, sessionID, serializer.Serialize(user), c.ttl); err != nil {
		return Result{State: state}, fmt.Errorf("save session error, %w", err)
	}
	state = c.transit(state, Established, creds.Username)

	return Result{
		State:     state,
		SessionID: sessionID,
		User:      user,
	}, nil
}

// Logout - удаляет сессию из хранилища.
func (c *Controller) Logout(ctx context.Context, sessionID string) error {
	if err := c.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session error, %w", err)
	}
	logger.ServerLog.Debug("session closed", zap.String("session", sessionID))
	return nil
}

func (c *Controller) transit(from, to State, username string) State {
	logger.ServerLog.Debug("login state changed", zap.String("username", username),
		zap.Stringer("from", from), zap.Stringer("to", to))
	return to
}
