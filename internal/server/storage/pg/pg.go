package pg

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/abezemskiy/gophauth/internal/common/identity/tools/id"
	"github.com/abezemskiy/gophauth/internal/repositories/identity"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// uniqueViolation - код ошибки PostgreSQL при нарушении уникальности.
const uniqueViolation = "23505"

// Store - реализует интерфейс identity.UserStore и позволяет взаимодествовать с СУБД PostgreSQL.
type Store struct {
	// Поле conn содержит объект соединения с СУБД
	conn *sql.DB
}

// NewStore - возвращает новый экземпляр PostgreSQL-хранилища.
func NewStore(conn *sql.DB) *Store {
	return &Store{
		conn: conn,
	}
}

//go:embed migrations/*.sql
var migrationsDir embed.FS

// Bootstrap - подготавливает БД к работе, применяя миграции. dsn передаётся в виде URL postgres://.
func Bootstrap(dsn string) error {
	d, err := iofs.New(migrationsDir, "migrations")
	if err != nil {
		return fmt.Errorf("failed to return an iofs driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, dsn)
	if err != nil {
		return fmt.Errorf("failed to get a new migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to apply migrations to the DB: %w", err)
		}
	}
	return nil
}

// Disable - очищает БД, удаляя записи из таблиц.
// Метод необходим для тестирования, чтобы в процессе удалять тестовые записи.
func (s Store) Disable(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `TRUNCATE TABLE users`); err != nil {
		return fmt.Errorf("truncate table users error, %w", err)
	}
	return nil
}

// isUniqueViolation - проверяет ошибку нарушения уникальности для обоих драйверов, pgx и lib/pq.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// FindByUsername - возвращает записи пользователей с переданным логином.
func (s Store) FindByUsername(ctx context.Context, username string) ([]identity.UserRecord, error) {
	query := `
		SELECT  id,
				username,
				password_digest,
				salt,
				created_at
		FROM users
		WHERE username = $1
		ORDER BY created_at
	`
	stmt, err := s.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prepare context error, %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("query execution error, %w", err)
	}
	defer rows.Close()

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

// GetByID - возвращает пользователя по id. Если пользователь не найден, ok == false.
func (s Store) GetByID(ctx context.Context, userID string) (user identity.UserRecord, ok bool, err error) {
	query := `
		SELECT  id,
				username,
				password_digest,
				salt,
				created_at
		FROM users
		WHERE id = $1
	`
	stmt, err := s.conn.PrepareContext(ctx, query)
	if err != nil {
		err = fmt.Errorf("prepare context error, %w", err)
		return
	}
	defer stmt.Close()

	err = stmt.QueryRowContext(ctx, userID).Scan(&user.ID, &user.Username, &user.PasswordDigest, &user.Salt, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// пользователь не найден
			return identity.UserRecord{}, false, nil
		}
		return identity.UserRecord{}, false, fmt.Errorf("query execution error, %w", err)
	}
	return user, true, nil
}

// Create - сохраняет в базу нового пользователя. Идентификатор и дату создания назначает хранилище.
func (s Store) Create(ctx context.Context, user identity.UserRecord) (identity.UserRecord, error) {
	userID, err := id.GenerateId()
	if err != nil {
		return identity.UserRecord{}, fmt.Errorf("generate user id error, %w", err)
	}

	query := `
		INSERT INTO users (id, username, password_digest, salt)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	stmt, err := s.conn.PrepareContext(ctx, query)
	if err != nil {
		return identity.UserRecord{}, fmt.Errorf("prepare context error, %w", err)
	}
	defer stmt.Close()

	err = stmt.QueryRowContext(ctx, userID, user.Username, user.PasswordDigest, user.Salt).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.UserRecord{}, fmt.Errorf("%w: %s", identity.ErrDuplicateUsername, user.Username)
		}
		return identity.UserRecord{}, fmt.Errorf("query execution error, %w", err)
	}
	user.ID = userID
	return user, nil
}

// Delete - удаляет пользователя по id. Если пользователя не было, возвращается false.
func (s Store) Delete(ctx context.Context, userID string) (bool, error) {
	stmt, err := s.conn.PrepareContext(ctx, `DELETE FROM users WHERE id = $1`)
	if err != nil {
		return false, fmt.Errorf("prepare context error, %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("query execution error, %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error, %w", err)
	}
	return rowsAffected > 0, nil
}
