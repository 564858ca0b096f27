// handlers - пакет с HTTP хэндлерами сервиса аутентификации.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/abezemskiy/gophauth/internal/common/identity/tools/checker"
	"github.com/abezemskiy/gophauth/internal/common/identity/tools/header"
	"github.com/abezemskiy/gophauth/internal/common/identity/tools/token"
	"github.com/abezemskiy/gophauth/internal/repositories/identity"
	"github.com/abezemskiy/gophauth/internal/server/identity/auth"
	"github.com/abezemskiy/gophauth/internal/server/identity/authenticator"
	"github.com/abezemskiy/gophauth/internal/server/identity/login"
	"github.com/abezemskiy/gophauth/internal/server/logger"

	"go.uber.org/zap"
)

// ErrLoginFailed - единое сообщение об отказе во входе, причина клиенту не раскрывается.
var ErrLoginFailed = errors.New("invalid username or password")

// Redirects - адреса, на которые перенаправляется браузер после попытки входа через форму.
type Redirects struct {
	Success string
	Failure string
}

// LoginResponse - ответ на успешный вход в формате JSON.
type LoginResponse struct {
	Redirect string `json:"redirect"`
}

// maxFormMemory - объём multipart формы, который разбирается в памяти.
const maxFormMemory = 1 << 20

const (
	formURLEncoded = "application/x-www-form-urlencoded"
	formMultipart  = "multipart/form-data"
)

// formType - тип HTML формы в теле запроса, пустая строка для остальных типов.
func formType(req *http.Request) string {
	mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	if mediaType == formURLEncoded || mediaType == formMultipart {
		return mediaType
	}
	return ""
}

// isForm - true, если тело запроса передано как HTML форма.
func isForm(req *http.Request) bool {
	return formType(req) != ""
}

// parseCredentials - извлекает логин и пароль из JSON тела или из полей формы.
func parseCredentials(req *http.Request) (identity.Credentials, error) {
	if kind := formType(req); kind != "" {
		var err error
		if kind == formMultipart {
			err = req.ParseMultipartForm(maxFormMemory)
		} else {
			err = req.ParseForm()
		}
		if err != nil {
			return identity.Credentials{}, fmt.Errorf("failed to parse form, %w", err)
		}
		return identity.Credentials{
			Username: req.PostFormValue("username"),
			Password: req.PostFormValue("password"),
		}, nil
	}

	var creds identity.Credentials
	if err := json.NewDecoder(req.Body).Decode(&creds); err != nil {
		return identity.Credentials{}, fmt.Errorf("failed to parse credentials, %w", err)
	}
	return creds, nil
}

// Register - хэндлер для создания пользователя. Пароль сохраняется только в виде хэша с солью.
func Register(res http.ResponseWriter, req *http.Request, users identity.UserStore) {
	res.Header().Set("Content-Type", "text/plain")
	defer req.Body.Close()

	creds, err := parseCredentials(req)
	if err != nil {
		logger.ServerLog.Error("failed to parse credentials", zap.String("address", req.URL.String()), zap.String("error", error.Error(err)))
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}

	// Проверяю корректность логина
	if ok := checker.CheckLogin(creds.Username); !ok {
		logger.ServerLog.Error("login is not valid", zap.String("address", req.URL.String()))
		http.Error(res, "login is not valid", http.StatusBadRequest)
		return
	}
	// Проверяю корректность пароля
	if ok := checker.CheckPassword(creds.Password); !ok {
		logger.ServerLog.Error("password is not valid", zap.String("address", req.URL.String()))
		http.Error(res, "password is not valid", http.StatusBadRequest)
		return
	}

	digest, salt, err := authenticator.PrepareForStorage(creds.Password)
	if err != nil {
		logger.ServerLog.Error("prepare password error", zap.String("address", req.URL.String()), zap.String("error", error.Error(err)))
		http.Error(res, "prepare password error", http.StatusInternalServerError)
		return
	}

	user, err := users.Create(req.Context(), identity.UserRecord{
		Username:       creds.Username,
		PasswordDigest: digest,
		Salt:           salt,
	})
	if err != nil {
		if errors.Is(err, identity.ErrDuplicateUsername) {
			logger.ServerLog.Error(fmt.Sprintf("login %s already exists", creds.Username), zap.String("address", req.URL.String()))
			http.Error(res, fmt.Sprintf("login %s already exists", creds.Username), http.StatusConflict)
			return
		}
		logger.ServerLog.Error("register user error", zap.String("address", req.URL.String()), zap.String("error", error.Error(err)))
		http.Error(res, "register user error", http.StatusInternalServerError)
		return
	}

	logger.ServerLog.Info("user registered", zap.String("id", user.ID), zap.String("username", user.Username))
	writeJSON(res, http.StatusCreated, user)
}

// RegisterHandler - обертка над Register.
func RegisterHandler(users identity.UserStore) http.HandlerFunc {
	fn := func(res http.ResponseWriter, req *http.Request) {
		Register(res, req, users)
	}
	return fn
}

// Login - хэндлер для входа по логину и паролю.
// Запрос из HTML формы перенаправляется на адрес успеха или неудачи, JSON клиент получает статус.
func Login(res http.ResponseWriter, req *http.Request, ctrl *login.Controller, redirects Redirects) {
	res.Header().Set("Content-Type", "text/plain")
	defer req.Body.Close()

	form := isForm(req)
	creds, err := parseCredentials(req)
	if err != nil {
		logger.ServerLog.Error("failed to parse credentials", zap.String("address", req.URL.String()), zap.String("error", error.Error(err)))
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := ctrl.Attempt(req.Context(), creds)
	if err != nil {
		logger.ServerLog.Error("login attempt error", zap.String("address", req.URL.String()), zap.String("error", error.Error(err)))
		http.Error(res, "login attempt error", http.StatusInternalServerError)
		return
	}

	if result.State != login.Established {
		if form {
			http.Redirect(res, req, redirects.Failure, http.StatusSeeOther)
			return
		}
		http.Error(res, ErrLoginFailed.Error(), http.StatusUnauthorized)
		return
	}

	tok, err := token.BuildJWT(result.SessionID)
	if err != nil {
		logger.ServerLog.Error("build JWT error", zap.String("address", req.URL.String()), zap.String("error", error.Error(err)))
		// сессия без токена клиенту недоступна, удаляю её
		if err := ctrl.Logout(req.Context(), result.SessionID); err != nil {
			logger.ServerLog.Error("drop session error", zap.String("error", error.Error(err)))
		}
		http.Error(res, "build JWT error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(res, sessionCookie(tok, token.ExpireDuration()))
	res.Header().Set("Authorization", "Bearer "+tok)
	logger.ServerLog.Info("user logged in", zap.String("id", result.User.ID))

	if form {
		http.Redirect(res, req, redirects.Success, http.StatusSeeOther)
		return
	}
	writeJSON(res, http.StatusOK, LoginResponse{Redirect: redirects.Success})
}

// LoginHandler - обертка над Login.
func LoginHandler(ctrl *login.Controller, redirects Redirects) http.HandlerFunc {
	fn := func(res http.ResponseWriter, req *http.Request) {
		Login(res, req, ctrl, redirects)
	}
	return fn
}

// Logout - хэндлер для завершения текущей сессии.
func Logout(res http.ResponseWriter, req *http.Request, ctrl *login.Controller) {
	res.Header().Set("Content-Type", "text/plain")

	sessionID, ok := auth.SessionIDFromContext(req.Context())
	if !ok {
		logger.ServerLog.Error("session ID not found in context", zap.String("address", req.URL.String()))
		http.Error(res, "session ID not found in context", http.StatusInternalServerError)
		return
	}
	if err := ctrl.Logout(req.Context(), sessionID); err != nil {
		logger.ServerLog.Error("logout error", zap.String("address", req.URL.String()), zap.String("error", error.Error(err)))
		http.Error(res, "logout error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(res, expiredCookie())
	res.WriteHeader(http.StatusOK)
}

// LogoutHandler - обертка над Logout.
func LogoutHandler(ctrl *login.Controller) http.HandlerFunc {
	fn := func(res http.ResponseWriter, req *http.Request) {
		Logout(res, req, ctrl)
	}
	return fn
}

// Me - хэндлер, возвращающий текущего пользователя.
func Me(res http.ResponseWriter, req *http.Request) {
	user, ok := auth.UserFromContext(req.Context())
	if !ok {
		logger.ServerLog.Error("user not found in context", zap.String("address", req.URL.String()))
		http.Error(res, "user not found in context", http.StatusInternalServerError)
		return
	}
	writeJSON(res, http.StatusOK, user)
}

// MeHandler - обертка над Me.
func MeHandler() http.HandlerFunc {
	return Me
}

// DeleteAccount - хэндлер для удаления учётной записи текущего пользователя вместе с сессией.
func DeleteAccount(res http.ResponseWriter, req *http.Request, users identity.UserStore, ctrl *login.Controller) {
	res.Header().Set("Content-Type", "text/plain")

	user, ok := auth.UserFromContext(req.Context())
	if !ok {
		logger.ServerLog.Error("user not found in context", zap.String("address", req.URL.String()))
		http.Error(res, "user not found in context", http.StatusInternalServerError)
		return
	}
	sessionID, _ := auth.SessionIDFromContext(req.Context())

	ok, err := users.Delete(req.Context(), user.ID)
	if err != nil {
		logger.ServerLog.Error("delete user error", zap.String("address", req.URL.String()), zap.String("error", error.Error(err)))
		http.Error(res, "delete user error", http.StatusInternalServerError)
		return
	}
	if !ok {
		logger.ServerLog.Error("user does not exist", zap.String("id", user.ID))
		http.Error(res, "user does not exist", http.StatusNotFound)
		return
	}

	if sessionID != "" {
		if err := ctrl.Logout(req.Context(), sessionID); err != nil {
			// без пользователя сессия всё равно не восстановится
			logger.ServerLog.Warn("delete session error", zap.String("error", error.Error(err)))
		}
	}

	http.SetCookie(res, expiredCookie())
	logger.ServerLog.Info("user deleted", zap.String("id", user.ID))
	res.WriteHeader(http.StatusOK)
}

// DeleteAccountHandler - обертка над DeleteAccount.
func DeleteAccountHandler(users identity.UserStore, ctrl *login.Controller) http.HandlerFunc {
	fn := func(res http.ResponseWriter, req *http.Request) {
		DeleteAccount(res, req, users, ctrl)
	}
	return fn
}

// HandleOtherRequest - обработка нераспознанных http запросов к сервису.
func HandleOtherRequest() http.HandlerFunc {
	return func(res http.ResponseWriter, _ *http.Request) {
		res.Header().Set("Content-Type", "text/plain")
		res.WriteHeader(http.StatusNotFound)
	}
}

func sessionCookie(value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     header.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     header.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func writeJSON(res http.ResponseWriter, status int, v any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	if err := json.NewEncoder(res).Encode(v); err != nil {
		logger.ServerLog.Error("encoding response error", zap.String("error", error.Error(err)))
	}
}
