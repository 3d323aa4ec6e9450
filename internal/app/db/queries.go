package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// User is one row of the users table.
type User struct {
	ID           pgtype.UUID
	Username     string
	DisplayName  string
	PasswordHash string
	CreatedAt    pgtype.Timestamptz
	LastLoginAt  pgtype.Timestamptz
}

// Store wraps the connection pool with the typed queries the handlers need.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store on top of an initialized pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreateUserParams carries the fields required to insert a new account.
type CreateUserParams struct {
	ID           pgtype.UUID
	Username     string
	DisplayName  string
	PasswordHash string
}

const createUserSQL = `
INSERT INTO users (id, username, display_name, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING id, username, display_name, password_hash, created_at, last_login_at
`

// CreateUser inserts a new account row and returns it.
func (s *Store) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := s.pool.QueryRow(ctx, createUserSQL, arg.ID, arg.Username, arg.DisplayName, arg.PasswordHash)

	var u User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

const getUserByUsernameSQL = `
SELECT id, username, display_name, password_hash, created_at, last_login_at
FROM users
WHERE username = $1
`

// GetUserByUsername fetches one account by its unique username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := s.pool.QueryRow(ctx, getUserByUsernameSQL, username)

	var u User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

const updateLastLoginSQL = `
UPDATE users SET last_login_at = now() WHERE id = $1
`

// UpdateLastLogin stamps the account's last successful sign-in time.
func (s *Store) UpdateLastLogin(ctx context.Context, id pgtype.UUID) error {
	_, err := s.pool.Exec(ctx, updateLastLoginSQL, id)
	return err
}
