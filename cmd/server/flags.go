package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/abezemskiy/gophauth/internal/common/identity/tools/hasher"
	"github.com/abezemskiy/gophauth/internal/common/identity/tools/token"
	"github.com/abezemskiy/gophauth/internal/server/config"
)

// Допустимые значения параметров хранилищ.
const (
	storagePostgres = "postgres"
	storageSQLite   = "sqlite"
	storageMemory   = "memory"

	driverPgx = "pgx"
	driverPq  = "postgres"

	sessionsMemory = "memory"
	sessionsRedis  = "redis"
)

var (
	netAddr        string // адрес запуска сервиса
	logLevel       string // уровень логирования
	configFile     string // путь к файлу конфигурации
	storageKind    string // тип хранилища пользователей
	databaseDsn    string // адрес базы данных или путь к файлу SQLite
	databaseDriver string // драйвер PostgreSQL
	sessionStore   string // тип хранилища сессий
	redisAddress   string // адрес Redis
	secretKey      string // секретный ключ для подписи токена сессии
	expireToken    int    // время действия сессии в часах
	hashAlgorithm  string // алгоритм хэширования паролей
	successURL     string // адрес перенаправления после успешного входа
	failureURL     string // адрес перенаправления после неудачного входа
	uniqueLogins   bool   // проверять уникальность логина в хранилище в памяти
)

// parseVariables - функция для установки конфигурационных параметров приложения.
// Конфигурирование приложения с приоритетом в порядке убывания: значения флагов, значения из файла, значения переменных окружения.
func parseVariables() error {
	parseFlags()
	parseConfigFile()
	parseEnvironment()
	setDefaults()

	// Проверяю корректность установки глобальных переменных
	err := checkVariables()
	if err != nil {
		return fmt.Errorf("failed to set global variable, %w", err)
	}

	// Устанавливаю полученные значения глобальных переменных
	if err := hasher.SetAlgorithm(hashAlgorithm); err != nil {
		return fmt.Errorf("failed to set hash algorithm, %w", err)
	}
	token.SetSecretKey(secretKey)
	token.SetExpireHour(expireToken)
	return nil
}

// parseFlags - функция для определения параметров конфигурации из флагов.
func parseFlags() {
	flag.StringVar(&netAddr, "a", "", "address and port to run server")
	flag.StringVar(&logLevel, "l", "", "log level")
	flag.StringVar(&configFile, "c", "", "name of configuration file")

	flag.StringVar(&storageKind, "s", "", "users storage: postgres, sqlite or memory")
	flag.StringVar(&databaseDsn, "d", "", "database connection address or sqlite file")
	flag.StringVar(&databaseDriver, "driver", "", "postgres driver: pgx or postgres")
	flag.StringVar(&sessionStore, "sessions", "", "sessions storage: memory or redis")
	flag.StringVar(&redisAddress, "redis", "", "redis address")

	flag.StringVar(&secretKey, "secret-key", "", "secret key for signing session tokens")
	flagExpireToken := flag.Int("expire-token", 0, "session expiration in hours")
	flag.StringVar(&hashAlgorithm, "hash", "", "password hash algorithm: sha256 or sha3-256")
	flag.StringVar(&successURL, "success-url", "", "redirect after successful login")
	flag.StringVar(&failureURL, "failure-url", "", "redirect after failed login")
	flag.BoolVar(&uniqueLogins, "unique-logins", false, "reject duplicate logins in memory storage")

	// Вызов flag.Parse() для парсинга аргументов
	flag.Parse()
	expireToken = *flagExpireToken
}

// parseConfigFile - функция для переопределения параметров конфигурации из файла конфигурации.
func parseConfigFile() {
	// если не указан файл конфигурации, то оставляю параметры запуска без изменения
	if configFile == "" {
		return
	}
	configs, err := config.ParseConfigFile(configFile)
	if err != nil {
		log.Fatalf("parse config file error: %v\n", err)
	}

	// обновляю параметры запуска если они не определены флагами
	setIfEmpty(&netAddr, configs.Address)
	setIfEmpty(&logLevel, configs.LogLevel)
	setIfEmpty(&storageKind, configs.Storage)
	setIfEmpty(&databaseDsn, configs.DatabaseDSN)
	setIfEmpty(&databaseDriver, configs.DatabaseDriver)
	setIfEmpty(&sessionStore, configs.SessionStore)
	setIfEmpty(&redisAddress, configs.RedisAddress)
	setIfEmpty(&secretKey, configs.SecretKey)
	setIfEmpty(&hashAlgorithm, configs.HashAlgorithm)
	setIfEmpty(&successURL, configs.SuccessURL)
	setIfEmpty(&failureURL, configs.FailureURL)
	if expireToken == 0 {
		expireToken = configs.ExpireToken
	}
	if !uniqueLogins {
		uniqueLogins = configs.UniqueLogins
	}
}

// parseEnvironment - функция для переопределения конфигурации из глобальных переменных.
// Переопределяет конфигурацию, если значения не установлены флагами или файлом конфигурации.
func parseEnvironment() {
	setIfEmpty(&netAddr, os.Getenv("GOPHAUTH_SERVER_ADDRESS"))
	setIfEmpty(&logLevel, os.Getenv("GOPHAUTH_SERVER_LOG_LEVEL"))
	setIfEmpty(&storageKind, os.Getenv("GOPHAUTH_SERVER_STORAGE"))
	setIfEmpty(&databaseDsn, os.Getenv("GOPHAUTH_SERVER_DATABASE_URL"))
	setIfEmpty(&databaseDriver, os.Getenv("GOPHAUTH_SERVER_DATABASE_DRIVER"))
	setIfEmpty(&sessionStore, os.Getenv("GOPHAUTH_SERVER_SESSION_STORE"))
	setIfEmpty(&redisAddress, os.Getenv("GOPHAUTH_SERVER_REDIS_ADDRESS"))
	setIfEmpty(&secretKey, os.Getenv("GOPHAUTH_SERVER_SECRET_KEY"))
	setIfEmpty(&hashAlgorithm, os.Getenv("GOPHAUTH_SERVER_HASH_ALGORITHM"))
	setIfEmpty(&successURL, os.Getenv("GOPHAUTH_SERVER_SUCCESS_URL"))
	setIfEmpty(&failureURL, os.Getenv("GOPHAUTH_SERVER_FAILURE_URL"))

	if expireToken == 0 {
		envExpireToken := os.Getenv("GOPHAUTH_SERVER_EXPIRE_TOKEN")
		if envExpireToken != "" {
			expire, err := strconv.Atoi(envExpireToken)
			if err == nil {
				expireToken = expire
			}
		}
	}
	if !uniqueLogins {
		if unique, err := strconv.ParseBool(os.Getenv("GOPHAUTH_SERVER_UNIQUE_LOGINS")); err == nil {
			uniqueLogins = unique
		}
	}
}

// setDefaults - значения параметров, которые не обязательно задавать явно.
func setDefaults() {
	setIfEmpty(&databaseDriver, driverPgx)
	setIfEmpty(&sessionStore, sessionsMemory)
	setIfEmpty(&hashAlgorithm, hasher.SHA256)
	setIfEmpty(&successURL, "/")
	setIfEmpty(&failureURL, "/login")
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

// checkVariables - функция для проверки корректности утсановки глобальных переменных.
func checkVariables() error {
	if netAddr == "" {
		return fmt.Errorf("address and port to run server must be set")
	}
	if logLevel == "" {
		return fmt.Errorf("log level must be set")
	}
	switch storageKind {
	case storagePostgres, storageSQLite:
		if databaseDsn == "" {
			return fmt.Errorf("database connection address must be set for %s storage", storageKind)
		}
	case storageMemory:
	case "":
		return fmt.Errorf("storage must be set")
	default:
		return fmt.Errorf("unknown storage %s", storageKind)
	}
	if databaseDriver != driverPgx && databaseDriver != driverPq {
		return fmt.Errorf("unknown database driver %s", databaseDriver)
	}
	switch sessionStore {
	case sessionsMemory:
	case sessionsRedis:
		if redisAddress == "" {
			return fmt.Errorf("redis address must be set for redis session store")
		}
	default:
		return fmt.Errorf("unknown session store %s", sessionStore)
	}
	if secretKey == "" {
		return fmt.Errorf("secret key must be set")
	}
	if expireToken <= 0 {
		return fmt.Errorf("expire token must be set")
	}
	return nil
}
