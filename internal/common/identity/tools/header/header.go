package header

import (
	"fmt"
	"net/http"
	"strings"
)

// CookieName - имя cookie, в которой клиенту передаётся токен сессии.
const CookieName = "gophauth_session"

// GetToken - функция для получения токена сессии из запроса.
// Сначала проверяется cookie сессии, затем заголовок Authorization.
func GetToken(req *http.Request) (string, error) {
	if tok, err := GetTokenFromCookie(req); err == nil {
		return tok, nil
	}
	return GetTokenFromHeader(req)
}

// GetTokens - все токены сессии из запроса в порядке проверки: cookie, затем заголовок Authorization.
// Одинаковые токены возвращаются один раз.
func GetTokens(req *http.Request) []string {
	var tokens []string
	if tok, err := GetTokenFromCookie(req); err == nil {
		tokens = append(tokens, tok)
	}
	if tok, err := GetTokenFromHeader(req); err == nil && (len(tokens) == 0 || tokens[0] != tok) {
		tokens = append(tokens, tok)
	}
	return tokens
}

// GetTokenFromCookie - функция для получения токена из cookie сессии.
func GetTokenFromCookie(req *http.Request) (string, error) {
	cookie, err := req.Cookie(CookieName)
	if err != nil {
		return "", fmt.Errorf("missing session cookie, %w", err)
	}
	if cookie.Value == "" {
		return "", fmt.Errorf("empty session cookie")
	}
	return cookie.Value, nil
}

// GetTokenFromHeader - функция для получения токена из заголовка запроса.
func GetTokenFromHeader(req *http.Request) (string, error) {
	return parseBearer(req.Header.Get("Authorization"))
}

// GetTokenFromResponseHeader извлекает токен из заголовка в ответе сервера.
// Используется клиентом и в тестах хэндлеров сервера.
func GetTokenFromResponseHeader(res *http.Response) (string, error) {
	return parseBearer(res.Header.Get("Authorization"))
}

func parseBearer(authHeader string) (string, error) {
	if authHeader == "" {
		return "", fmt.Errorf("missing authorization header")
	}

	// Проверяю, что заголовок начинается с "Bearer "
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", fmt.Errorf("invalid authorization header format")
	}

	return parts[1], nil
}
