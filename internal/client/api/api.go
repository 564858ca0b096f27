// api - HTTP клиент сервиса аутентификации.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/abezemskiy/gophauth/internal/client/logger"
	"github.com/abezemskiy/gophauth/internal/common/identity/tools/header"
	"github.com/abezemskiy/gophauth/internal/repositories/identity"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	usersPattern  = "/api/users"  // паттерн api для регистрации пользователя
	loginPattern  = "/api/login"  // паттерн api для входа
	logoutPattern = "/api/logout" // паттерн api для выхода
	userPattern   = "/api/user"   // паттерн api текущего пользователя
)

// Ошибки ответов сервера.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("session is not established")
	ErrConflict           = errors.New("username already exists")
)

// LoginResult - ответ сервера на успешный вход.
type LoginResult struct {
	Redirect string `json:"redirect"`
}

// Client - клиент сервиса. Хранит токен сессии после успешного входа.
type Client struct {
	rc *resty.Client

	mu    sync.RWMutex
	token string
}

// New - возвращает клиента для сервера по адресу baseURL.
func New(baseURL string) *Client {
	c := &Client{
		rc: resty.New().SetBaseURL(baseURL),
	}
	c.rc.OnBeforeRequest(c.onBeforeRequest)
	c.rc.OnAfterResponse(c.onAfterResponse)
	return c
}

// Token - токен текущей сессии.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

// onBeforeRequest - устанавливает токен сессии в заголовок запроса.
func (c *Client) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	if tok := c.Token(); tok != "" {
		req.SetAuthToken(tok)
	}
	return nil
}

// onAfterResponse - запоминает токен из ответа сервера на вход.
func (c *Client) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	if res.RawResponse == nil {
		return nil
	}
	if tok, err := header.GetTokenFromResponseHeader(res.RawResponse); err == nil {
		c.setToken(tok)
	}
	return nil
}

func unexpected(res *resty.Response) error {
	return fmt.Errorf("unexpected status %d: %s", res.StatusCode(), res.String())
}

// Register - регистрирует нового пользователя.
func (c *Client) Register(ctx context.Context, creds identity.Credentials) (identity.UserRecord, error) {
	var user identity.UserRecord
	res, err := c.rc.R().
		SetContext(ctx).
		SetBody(creds).
		SetResult(&user).
		Post(usersPattern)
	if err != nil {
		return identity.UserRecord{}, fmt.Errorf("failed to post register request to server, %w", err)
	}

	switch res.StatusCode() {
	case http.StatusCreated:
		logger.ClientLog.Debug("user registered", zap.String("id", user.ID))
		return user, nil
	case http.StatusConflict:
		return identity.UserRecord{}, ErrConflict
	default:
		return identity.UserRecord{}, unexpected(res)
	}
}

// Login - выполняет вход. При успехе клиент использует полученный токен в следующих запросах.
func (c *Client) Login(ctx context.Context, creds identity.Credentials) (LoginResult, error) {
	var result LoginResult
	res, err := c.rc.R().
		SetContext(ctx).
		SetBody(creds).
		SetResult(&result).
		Post(loginPattern)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to post login request to server, %w", err)
	}

	switch res.StatusCode() {
	case http.StatusOK:
		logger.ClientLog.Debug("logged in", zap.String("username", creds.Username))
		return result, nil
	case http.StatusUnauthorized:
		return LoginResult{}, ErrInvalidCredentials
	default:
		return LoginResult{}, unexpected(res)
	}
}

// Me - возвращает текущего пользователя.
func (c *Client) Me(ctx context.Context) (identity.UserRecord, error) {
	var user identity.UserRecord
	res, err := c.rc.R().
		SetContext(ctx).
		SetResult(&user).
		Get(userPattern)
	if err != nil {
		return identity.UserRecord{}, fmt.Errorf("failed to get current user, %w", err)
	}

	switch res.StatusCode() {
	case http.StatusOK:
		return user, nil
	case http.StatusUnauthorized:
		return identity.UserRecord{}, ErrUnauthorized
	default:
		return identity.UserRecord{}, unexpected(res)
	}
}

// Logout - завершает текущую сессию.
func (c *Client) Logout(ctx context.Context) error {
	res, err := c.rc.R().
		SetContext(ctx).
		Post(logoutPattern)
	if err != nil {
		return fmt.Errorf("failed to post logout request to server, %w", err)
	}

	switch res.StatusCode() {
	case http.StatusOK:
		c.setToken("")
		return nil
	case http.StatusUnauthorized:
		c.setToken("")
		return ErrUnauthorized
	default:
		return unexpected(res)
	}
}

// DeleteAccount - удаляет учётную запись текущего пользователя.
func (c *Client) DeleteAccount(ctx context.Context) error {
	res, err := c.rc.R().
		SetContext(ctx).
		Delete(userPattern)
	if err != nil {
		return fmt.Errorf("failed to delete account, %w", err)
	}

	switch res.StatusCode() {
	case http.StatusOK:
		c.setToken("")
		return nil
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return unexpected(res)
	}
}
