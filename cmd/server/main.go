package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abezemskiy/gophauth/internal/common/identity/tools/token"
	"github.com/abezemskiy/gophauth/internal/server/handlers"
	"github.com/abezemskiy/gophauth/internal/server/identity/auth"
	"github.com/abezemskiy/gophauth/internal/server/identity/authenticator"
	"github.com/abezemskiy/gophauth/internal/server/identity/login"
	"github.com/abezemskiy/gophauth/internal/server/identity/serializer"
	"github.com/abezemskiy/gophauth/internal/server/logger"
	"github.com/abezemskiy/gophauth/internal/server/router"

	"go.uber.org/zap"
)

const shutdownWaitPeriod = 20 * time.Second // для установки в контекст для реализаации graceful shutdown

func main() {
	err := parseVariables()
	if err != nil {
		log.Fatalf("failed to set global variables, %v", err)
	}

	// Инициализация логера
	if err := logger.Initialize(logLevel); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}

	ctx := context.Background()
	users, closeUsers, err := openUserStore(ctx)
	if err != nil {
		log.Fatalf("Failed to create storage: %v\n", err)
	}
	defer closeUsers()

	ttl := token.ExpireDuration()
	sessions, closeSessions, err := openSessionStore(ctx, ttl)
	if err != nil {
		log.Fatalf("Failed to create session storage: %v\n", err)
	}
	defer closeSessions()

	deps := router.Dependencies{
		Users:     users,
		Login:     login.NewController(authenticator.New(users), sessions, ttl),
		Resolver:  auth.NewResolver(sessions, serializer.NewDeserializer(users)),
		Redirects: handlers.Redirects{Success: successURL, Failure: failureURL},
	}
	run(ctx, router.New(deps))
}

// функция run запускает сервер и останавливает его по сигналу прерывания
func run(ctx context.Context, h http.Handler) {
	logger.ServerLog.Info("Running gophauth", zap.String("address", netAddr),
		zap.String("storage", storageKind), zap.String("sessions", sessionStore))

	// запускаю сам сервис с проверкой отмены контекста для реализации graceful shutdown--------------
	srv := &http.Server{
		Addr:    netAddr,
		Handler: h,
	}
	// Канал для получения сигнала прерывания
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Горутина для запуска сервера
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	// Блокирование до тех пор, пока не поступит сигнал о прерывании
	<-quit
	logger.ServerLog.Info("Shutting down server...", zap.String("address", netAddr))

	ctx, cancel := context.WithTimeout(ctx, shutdownWaitPeriod)
	defer cancel()

	// останавливаю сервер, чтобы он перестал принимать новые запросы
	if err := srv.Shutdown(ctx); err != nil {
		logger.ServerLog.Error("Stopping server error", zap.Error(err))
		return
	}

	logger.ServerLog.Info("Shutdown the server gracefully", zap.String("address", netAddr))
}
