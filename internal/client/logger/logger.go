// logger - логер клиента. Вывод можно направить в файл, чтобы он не смешивался с интерфейсом терминала.
package logger

import (
	"os"

	"go.uber.org/zap"
)

// ClientLog будет доступен всему коду как синглтон.
// Никакой код, кроме функции Initialize, не должен модифицировать эту переменную.
// По умолчанию установлен no-op-логер, который не выводит никаких сообщений.
var ClientLog *zap.Logger = zap.NewNop()

// Initialize - инициализирует синглтон логера с необходимым уровнем логирования.
// Если logFile задан, файл очищается при старте и все сообщения пишутся в него.
func Initialize(level, logFile string) error {
	// преобразуем текстовый уровень логирования в zap.AtomicLevel
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	if logFile != "" {
		// очищаю файл логов при старте
		err := os.Truncate(logFile, 0)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		cfg.OutputPaths = []string{logFile}
		cfg.ErrorOutputPaths = []string{logFile}
	} else {
		cfg.OutputPaths = []string{"stderr"}
	}

	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	ClientLog = zl.With(zap.String("role", "client"))
	return nil
}
