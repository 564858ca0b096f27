// authenticator - пакет для проверки учётных данных пользователя и подготовки пароля к сохранению.
package authenticator

import (
	"context"
	"errors"
	"fmt"

	"github.com/abezemskiy/gophauth/internal/common/identity/tools/checker"
	"github.com/abezemskiy/gophauth/internal/common/identity/tools/hasher"
	"github.com/abezemskiy/gophauth/internal/repositories/identity"
)

// Reason - причина неуспешной аутентификации.
type Reason int

const (
	// NoReason - аутентификация успешна.
	NoReason Reason = iota
	// NoSuchUser - пользователь с переданным логином не найден.
	NoSuchUser
	// BadPassword - пароль не совпадает с сохранённым.
	BadPassword
)

// Ошибки для диагностики причины отказа. Клиенту они не передаются.
var (
	ErrNoSuchUser  = errors.New("no such user")
	ErrBadPassword = errors.New("bad password")
)

func (r Reason) String() string {
	switch r {
	case NoReason:
		return "none"
	case NoSuchUser:
		return ErrNoSuchUser.Error()
	case BadPassword:
		return ErrBadPassword.Error()
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Outcome - результат аутентификации: либо найденный пользователь, либо причина отказа.
type Outcome struct {
	user   identity.UserRecord
	reason Reason
}

// Success - возвращает true, если учётные данные подтверждены.
func (o Outcome) Success() bool {
	return o.reason == NoReason
}

// User - пользователь, прошедший аутентификацию. Для неуспешного результата пустая запись.
func (o Outcome) User() identity.UserRecord {
	return o.user
}

// Reason - причина отказа.
func (o Outcome) Reason() Reason {
	return o.reason
}

// Err - причина отказа в виде ошибки, nil для успешного результата.
func (o Outcome) Err() error {
	switch o.reason {
	case NoReason:
		return nil
	case NoSuchUser:
		return ErrNoSuchUser
	default:
		return ErrBadPassword
	}
}

func success(user identity.UserRecord) Outcome {
	return Outcome{user: user}
}

func failure(reason Reason) Outcome {
	return Outcome{reason: reason}
}

// Authenticator - проверяет пару логин+пароль по данным из хранилища пользователей.
type Authenticator struct {
	users identity.UserStore
}

// New - возвращает новый экземпляр Authenticator.
func New(users identity.UserStore) *Authenticator {
	return &Authenticator{
		users: users,
	}
}

// Authenticate - проверяет учётные данные пользователя.
// Отказ по логину или паролю возвращается как Outcome, ошибка означает недоступность хранилища.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (Outcome, error) {
	records, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		return Outcome{}, fmt.Errorf("find user by username error, %w", err)
	}

	if len(records) == 0 {
		// хэш всё равно вычисляется, чтобы время ответа не выдавало отсутствие пользователя
		if _, _, err := PrepareForStorage(password); err != nil {
			return Outcome{}, err
		}
		return failure(NoSuchUser), nil
	}
	// уникальность логина хранилищем не гарантируется, берётся первая запись
	user := records[0]

	digest, err := hasher.Digest(password, user.Salt)
	if err != nil {
		return Outcome{}, fmt.Errorf("calculate password digest error, %w", err)
	}
	if !checker.IsAuthorize(user.PasswordDigest, digest) {
		return failure(BadPassword), nil
	}
	return success(user), nil
}

// PrepareForStorage - вычисляет хэш пароля со свежей солью.
// Вызывается один раз при создании пользователя, до передачи записи в хранилище.
func PrepareForStorage(password string) (digest, salt string, err error) {
	salt, err = hasher.GenerateSalt()
	if err != nil {
		return "", "", fmt.Errorf("generate salt error, %w", err)
	}
	digest, err = hasher.Digest(password, salt)
	if err != nil {
		return "", "", fmt.Errorf("calculate password digest error, %w", err)
	}
	return digest, salt, nil
}
