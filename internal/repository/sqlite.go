package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"geoassist/internal/entities"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the default embedded account store.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Serialized writers with a busy timeout keep concurrent sessions safe.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			usage INTEGER NOT NULL DEFAULT 0,
			payment_done BOOLEAN NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLiteStore) Create(ctx context.Context, username, passwordHash, role string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role, usage, payment_done) VALUES (?, ?, ?, 0, 0)",
		username, passwordHash, role)
	if isUniqueViolation(err) {
		return 0, entities.ErrDuplicateUsername
	}
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (s *SQLiteStore) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, role, usage, payment_done FROM users WHERE username = ?",
		username))
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int) (*entities.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, role, usage, payment_done FROM users WHERE id = ?",
		id))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Usage, &u.PaymentDone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]entities.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, username, password_hash, role, usage, payment_done FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []entities.User{}
	for rows.Next() {
		var u entities.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Usage, &u.PaymentDone); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) Update(ctx context.Context, id int, username, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET username = ?, password_hash = ? WHERE id = ?",
		username, passwordHash, id)
	if isUniqueViolation(err) {
		return entities.ErrDuplicateUsername
	}
	return err
}

// Delete is idempotent: removing an id that does not exist is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	return err
}

// IncrementUsage counts a granted prompt. The payment_done condition makes the
// check-and-increment a single atomic statement: once payment is recorded the
// update silently no-ops, even under concurrent submissions.
func (s *SQLiteStore) IncrementUsage(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET usage = usage + 1 WHERE id = ? AND payment_done = 0", id)
	return err
}

func (s *SQLiteStore) GetUsage(ctx context.Context, id int) (int, error) {
	var usage int
	err := s.db.QueryRowContext(ctx, "SELECT usage FROM users WHERE id = ?", id).Scan(&usage)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, entities.ErrUserNotFound
	}
	return usage, err
}

func (s *SQLiteStore) ResetUsage(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, "UPDATE users SET usage = 0 WHERE id = ?", id)
	return err
}

// SetPaymentDone is idempotent and monotonic: false to true only.
func (s *SQLiteStore) SetPaymentDone(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, "UPDATE users SET payment_done = 1 WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) GetPaymentDone(ctx context.Context, id int) (bool, error) {
	var done bool
	err := s.db.QueryRowContext(ctx, "SELECT payment_done FROM users WHERE id = ?", id).Scan(&done)
	if errors.Is(err, sql.ErrNoRows) {
		return false, entities.ErrUserNotFound
	}
	return done, err
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}
