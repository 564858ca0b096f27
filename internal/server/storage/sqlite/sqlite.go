// sqlite - хранилище пользователей в файле SQLite для запуска сервиса без отдельной СУБД.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/abezemskiy/gophauth/internal/common/identity/tools/id"
	"github.com/abezemskiy/gophauth/internal/repositories/identity"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mattn/go-sqlite3"
)

// Store - реализует интерфейс identity.UserStore поверх SQLite.
type Store struct {
	conn *sql.DB
}

// Open - открывает файл базы и применяет миграции.
// Соединение одно, так как SQLite не допускает параллельной записи.
func Open(ctx context.Context, path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database error, %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error checking connection with database: %w", err)
	}

	stor := NewStore(conn)
	if err := stor.Bootstrap(); err != nil {
		conn.Close()
		return nil, err
	}
	return stor, nil
}

// NewStore - возвращает новый экземпляр SQLite-хранилища.
func NewStore(conn *sql.DB) *Store {
	return &Store{
		conn: conn,
	}
}

//go:embed migrations/*.sql
var migrationsDir embed.FS

// Bootstrap - подготавливает БД к работе, применяя миграции.
func (s *Store) Bootstrap() error {
	d, err := iofs.New(migrationsDir, "migrations")
	if err != nil {
		return fmt.Errorf("failed to return an iofs driver: %w", err)
	}
	// закрывается только источник, соединение принадлежит хранилищу
	defer d.Close()

	drv, err := migratesqlite.WithInstance(s.conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to get a migrate database driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", d, "sqlite3", drv)
	if err != nil {
		return fmt.Errorf("failed to get a new migrate instance: %w", err)
	}
	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to apply migrations to the DB: %w", err)
		}
	}
	return nil
}

// Close - закрывает соединение с базой.
func (s *Store) Close() error {
	return s.conn.Close()
}

func scanUsers(rows *sql.Rows) ([]identity.UserRecord, error) {
	result := make([]identity.UserRecord, 0, 1)
	for rows.Next() {
		var user identity.UserRecord
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordDigest, &user.Salt, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan row error, %w", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error, %w", err)
	}
	return result, nil
}

// FindByUsername - возвращает записи пользователей с переданным логином.
func (s *Store) FindByUsername(ctx context.Context, username string) ([]identity.UserRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, username, password_digest, salt, created_at
		FROM users
		WHERE username = ?
		ORDER BY created_at
	`, username)
	if err != nil {
		return nil, fmt.Errorf("query execution error, %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// GetByID - возвращает пользователя по id. Если пользователь не найден, ok == false.
func (s *Store) GetByID(ctx context.Context, userID string) (identity.UserRecord, bool, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, username, password_digest, salt, created_at
		FROM users
		WHERE id = ?
	`, userID)
	if err != nil {
		return identity.UserRecord{}, false, fmt.Errorf("query execution error, %w", err)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return identity.UserRecord{}, false, err
	}
	if len(users) == 0 {
		return identity.UserRecord{}, false, nil
	}
	return users[0], true, nil
}

// Create - сохраняет нового пользователя. Идентификатор и дату создания назначает хранилище.
func (s *Store) Create(ctx context.Context, user identity.UserRecord) (identity.UserRecord, error) {
	userID, err := id.GenerateId()
	if err != nil {
		return identity.UserRecord{}, fmt.Errorf("generate user id error, %w", err)
	}
	createdAt := time.Now().UTC().Truncate(time.Microsecond)

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO users (id, username, password_digest, salt, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, userID, user.Username, user.PasswordDigest, user.Salt, createdAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return identity.UserRecord{}, fmt.Errorf("%w: %s", identity.ErrDuplicateUsername, user.Username)
		}
		return identity.UserRecord{}, fmt.Errorf("query execution error, %w", err)
	}

	user.ID = userID
	user.CreatedAt = createdAt
	return user, nil
}

// Delete - удаляет пользователя по id. Если пользователя не было, возвращается false.
func (s *Store) Delete(ctx context.Context, userID string) (bool, error) {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("query execution error, %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error, %w", err)
	}
	return rowsAffected > 0, nil
}
