// hasher - пакет со вспомогательными функция для хэширования паролей пользователей.
package hasher

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sync"

	"golang.org/x/crypto/sha3"
)

// SaltSize - размер соли в байтах (128 бит).
const SaltSize = 16

// Поддерживаемые алгоритмы хэширования.
const (
	SHA256   = "sha256"
	SHA3_256 = "sha3-256"
)

var (
	mu        sync.RWMutex
	algorithm = SHA256
)

// SetAlgorithm - функция для установки алгоритма хэширования. Вызывается один раз при старте сервера.
func SetAlgorithm(name string) error {
	if _, err := newHash(name); err != nil {
		return err
	}
	mu.Lock()
	algorithm = name
	mu.Unlock()
	return nil
}

// Algorithm - возвращает текущий алгоритм хэширования.
func Algorithm() string {
	mu.RLock()
	defer mu.RUnlock()
	return algorithm
}

func newHash(name string) (hash.Hash, error) {
	switch name {
	case SHA256:
		return sha256.New(), nil
	case SHA3_256:
		return sha3.New256(), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", name)
	}
}

// GenerateSalt - функция для генерации случайной соли. Соль возвращается в виде hex строки.
func GenerateSalt() (string, error) {
	buf := make([]byte, SaltSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes for salt, %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Digest - функция, которая вычисляет хэш от суммы секрет+соль.
func Digest(secret, salt string) (string, error) {
	return CalkHash(secret + salt)
}

// CalkHash - функция, которая хэширует переданную строку и возвращает хэш в виде строки.
func CalkHash(data string) (string, error) {
	src := []byte(data)

	h, err := newHash(Algorithm())
	if err != nil {
		return "", err
	}
	n, err := h.Write(src)
	if err != nil {
		return "", fmt.Errorf("conveing bytes for hashing error, %w", err)
	}
	if n != len(src) {
		return "", fmt.Errorf("count of wrote bytes not equal initial count of bytes")
	}
	// вычисляю хэш
	dst := h.Sum(nil)

	// кодирую хэш в виде слайса байт в строку
	return hex.EncodeToString(dst), nil
}
