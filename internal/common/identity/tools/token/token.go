// token - пакет для выпуска и проверки подписанных токенов сессии.
// Токен содержит только идентификатор сессии, сами данные сессии хранятся на сервере.
package token

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken - токен не прошёл проверку подписи или срока действия.
var ErrInvalidToken = errors.New("token is not valid")

var (
	mu sync.RWMutex
	// Секретный ключ для подписи JWT.
	secretKey string
	// expireHour - время действия токена в часах.
	expireHour int
)

// SetSecretKey - функция для установки секретного ключа для генерации JWT.
func SetSecretKey(newKey string) {
	mu.Lock()
	secretKey = newKey
	mu.Unlock()
}

// SetExpireHour - функция, для установки времени действия токена в часах.
func SetExpireHour(expire int) {
	mu.Lock()
	expireHour = expire
	mu.Unlock()
}

// ExpireDuration - время жизни токена и связанной с ним сессии.
func ExpireDuration() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return time.Hour * time.Duration(expireHour)
}

func key() []byte {
	mu.RLock()
	defer mu.RUnlock()
	return []byte(secretKey)
}

// Claims - структура утверждений, которая включает стандартные утверждения
// и одно пользовательское SessionID.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// BuildJWT - создает токен для сессии и возвращает его в виде строки.
func BuildJWT(sessionID string) (string, error) {
	now := time.Now()
	// создаю токен с алгоритмом подписи HS256 и утверждениями - Claims
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			// дата истечения токена
			ExpiresAt: jwt.NewNumericDate(now.Add(ExpireDuration())),
		},
		SessionID: sessionID,
	})

	// создаю строку токена
	tokenString, err := token.SignedString(key())
	if err != nil {
		return "", fmt.Errorf("failed to signed JWT to string, %w", err)
	}
	return tokenString, nil
}

// GetSessionIDFromToken - функция для получения id сессии из токена с проверкой заголовка алгоритма токена.
// Заголовок должен совпадать с тем, который сервер использует для подписи и проверки токенов.
func GetSessionIDFromToken(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key(), nil
		})
	if err != nil {
		return "", fmt.Errorf("%w, %w", ErrInvalidToken, err)
	}

	if !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidToken
	}

	return claims.SessionID, nil
}
