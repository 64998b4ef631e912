package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/village-api/internal/application"
)

const userColumns = "id, email, display_name, created_at, updated_at"

// CreateUser inserts an account together with its password hash.
func (s *Storage) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, disabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
	`,
		user.ID,
		user.Email,
		user.DisplayName,
		passwordHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return application.User{}, fmt.Errorf("insert user: %w", mapError(err))
	}
	return user, nil
}

// GetUser fetches an account by ID.
func (s *Storage) GetUser(ctx context.Context, id string) (application.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserCredentialsByEmail fetches the account and its authentication
// attributes for a login attempt.
func (s *Storage) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	var (
		creds     application.UserCredentials
		disabled  int
		createdAt string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, disabled, created_at, updated_at
		FROM users WHERE email = ?
	`, email).Scan(
		&creds.User.ID,
		&creds.User.Email,
		&creds.User.DisplayName,
		&creds.PasswordHash,
		&disabled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return application.UserCredentials{}, mapError(err)
	}

	creds.Disabled = disabled != 0
	if creds.User.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.UserCredentials{}, err
	}
	if creds.User.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return application.UserCredentials{}, err
	}
	return creds, nil
}

func scanUser(row *sql.Row) (application.User, error) {
	var (
		user      application.User
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &createdAt, &updatedAt); err != nil {
		return application.User{}, mapError(err)
	}

	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return application.User{}, err
	}
	return user, nil
}
