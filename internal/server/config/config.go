package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// Configs представляет структуру конфигурации.
type Configs struct {
	Address        string `json:"address"`         // аналог переменной окружения GOPHAUTH_SERVER_ADDRESS или флага -a
	LogLevel       string `json:"log_level"`       // аналог переменной окружения GOPHAUTH_SERVER_LOG_LEVEL или флага -l
	Storage        string `json:"storage"`         // аналог переменной окружения GOPHAUTH_SERVER_STORAGE или флага -s
	DatabaseDSN    string `json:"database_dsn"`    // аналог переменной окружения GOPHAUTH_SERVER_DATABASE_URL или флага -d
	DatabaseDriver string `json:"database_driver"` // аналог переменной окружения GOPHAUTH_SERVER_DATABASE_DRIVER или флага -driver
	SessionStore   string `json:"session_store"`   // аналог переменной окружения GOPHAUTH_SERVER_SESSION_STORE или флага -sessions
	RedisAddress   string `json:"redis_address"`   // аналог переменной окружения GOPHAUTH_SERVER_REDIS_ADDRESS или флага -redis
	SecretKey      string `json:"secret_key"`      // аналог переменной окружения GOPHAUTH_SERVER_SECRET_KEY или флага -secret-key
	ExpireToken    int    `json:"expire_token"`    // аналог переменной окружения GOPHAUTH_SERVER_EXPIRE_TOKEN или флага -expire-token
	HashAlgorithm  string `json:"hash_algorithm"`  // аналог переменной окружения GOPHAUTH_SERVER_HASH_ALGORITHM или флага -hash
	SuccessURL     string `json:"success_url"`     // аналог переменной окружения GOPHAUTH_SERVER_SUCCESS_URL или флага -success-url
	FailureURL     string `json:"failure_url"`     // аналог переменной окружения GOPHAUTH_SERVER_FAILURE_URL или флага -failure-url
	UniqueLogins   bool   `json:"unique_logins"`   // аналог переменной окружения GOPHAUTH_SERVER_UNIQUE_LOGINS или флага -unique-logins
}

// ParseConfigFile - функция для переопределения параметров конфигурации из файла конфигурации.
func ParseConfigFile(configFileName string) (Configs, error) {
	var configs Configs
	f, err := os.Open(configFileName)
	if err != nil {
		return Configs{}, fmt.Errorf("open cofiguration file error: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	dec := json.NewDecoder(reader)
	err = dec.Decode(&configs)
	if err != nil {
		return Configs{}, fmt.Errorf("parse cofiguration file error: %w", err)
	}

	return configs, nil
}
