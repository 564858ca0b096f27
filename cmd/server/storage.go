package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/abezemskiy/gophauth/internal/repositories/identity"
	"github.com/abezemskiy/gophauth/internal/repositories/session"
	"github.com/abezemskiy/gophauth/internal/server/sessions/memory"
	"github.com/abezemskiy/gophauth/internal/server/sessions/redis"
	"github.com/abezemskiy/gophauth/internal/server/storage/inmemory"
	"github.com/abezemskiy/gophauth/internal/server/storage/pg"
	"github.com/abezemskiy/gophauth/internal/server/storage/sqlite"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// closeFunc - освобождает ресурсы хранилища при остановке сервера.
type closeFunc func() error

func noopClose() error { return nil }

// openUserStore - создает хранилище пользователей согласно конфигурации.
func openUserStore(ctx context.Context) (identity.UserStore, closeFunc, error) {
	switch storageKind {
	case storagePostgres:
		if err := pg.Bootstrap(databaseDsn); err != nil {
			return nil, nil, err
		}
		// Подключение к базе данных
		conn, err := sql.Open(databaseDriver, databaseDsn)
		if err != nil {
			return nil, nil, fmt.Errorf("error connection to database: %w", err)
		}
		// Проверка соединения с БД
		if err := conn.PingContext(ctx); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("error checking connection with database: %w", err)
		}
		return pg.NewStore(conn), conn.Close, nil
	case storageSQLite:
		stor, err := sqlite.Open(ctx, databaseDsn)
		if err != nil {
			return nil, nil, err
		}
		return stor, stor.Close, nil
	case storageMemory:
		var opts []inmemory.Option
		if uniqueLogins {
			opts = append(opts, inmemory.WithUniqueUsernames())
		}
		return inmemory.NewStore(opts...), noopClose, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %s", storageKind)
	}
}

// openSessionStore - создает хранилище сессий согласно конфигурации.
func openSessionStore(ctx context.Context, ttl time.Duration) (session.TokenKeeper, closeFunc, error) {
	switch sessionStore {
	case sessionsMemory:
		stor, err := memory.NewStore(ttl)
		if err != nil {
			return nil, nil, err
		}
		return stor, stor.Close, nil
	case sessionsRedis:
		stor, err := redis.Connect(ctx, redisAddress)
		if err != nil {
			return nil, nil, err
		}
		return stor, stor.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %s", sessionStore)
	}
}
