package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"geoassist/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the account store on a pgx pool, for deployments
// that already run Postgres instead of the embedded store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'user',
			usage INTEGER NOT NULL DEFAULT 0,
			payment_done BOOLEAN NOT NULL DEFAULT FALSE
		);
	`)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func isPGUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *PostgresStore) Create(ctx context.Context, username, passwordHash, role string) (int, error) {
	var id int
	err := s.pool.QueryRow(ctx,
		"INSERT INTO users (username, password_hash, role, usage, payment_done) VALUES ($1, $2, $3, 0, FALSE) RETURNING id",
		username, passwordHash, role).Scan(&id)
	if isPGUniqueViolation(err) {
		return 0, entities.ErrDuplicateUsername
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		"SELECT id, username, password_hash, role, usage, payment_done FROM users WHERE username = $1",
		username))
}

func (s *PostgresStore) GetByID(ctx context.Context, id int) (*entities.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		"SELECT id, username, password_hash, role, usage, payment_done FROM users WHERE id = $1",
		id))
}

func (s *PostgresStore) scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Usage, &u.PaymentDone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]entities.User, error) {
	rows, err := s.pool.Query(ctx,
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

func (s *PostgresStore) Update(ctx context.Context, id int, username, passwordHash string) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE users SET username = $1, password_hash = $2 WHERE id = $3",
		username, passwordHash, id)
	if isPGUniqueViolation(err) {
		return entities.ErrDuplicateUsername
	}
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, id int) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	return err
}

// IncrementUsage mirrors the sqlite implementation: one conditioned UPDATE,
// atomic with respect to concurrent increments and payment updates.
func (s *PostgresStore) IncrementUsage(ctx context.Context, id int) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE users SET usage = usage + 1 WHERE id = $1 AND payment_done = FALSE", id)
	return err
}

func (s *PostgresStore) GetUsage(ctx context.Context, id int) (int, error) {
	var usage int
	err := s.pool.QueryRow(ctx, "SELECT usage FROM users WHERE id = $1", id).Scan(&usage)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, entities.ErrUserNotFound
	}
	return usage, err
}

func (s *PostgresStore) ResetUsage(ctx context.Context, id int) error {
	_, err := s.pool.Exec(ctx, "UPDATE users SET usage = 0 WHERE id = $1", id)
	return err
}

func (s *PostgresStore) SetPaymentDone(ctx context.Context, id int) error {
	_, err := s.pool.Exec(ctx, "UPDATE users SET payment_done = TRUE WHERE id = $1", id)
	return err
}

func (s *PostgresStore) GetPaymentDone(ctx context.Context, id int) (bool, error) {
	var done bool
	err := s.pool.QueryRow(ctx, "SELECT payment_done FROM users WHERE id = $1", id).Scan(&done)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, entities.ErrUserNotFound
	}
	return done, err
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
