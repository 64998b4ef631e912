package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/village-api/internal/application"
)

const sessionColumns = "id, user_id, token, expires_at, created_at, updated_at, revoked_at"

// CreateSession inserts an issued session.
func (s *Storage) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_sessions (id, user_id, token, expires_at, created_at, updated_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		session.ID,
		session.UserID,
		session.Token,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
		formatNullTime(session.RevokedAt),
	)
	if err != nil {
		return application.Session{}, fmt.Errorf("insert session: %w", mapError(err))
	}
	return session, nil
}

// GetSession fetches a session by its bearer token.
func (s *Storage) GetSession(ctx context.Context, token string) (application.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM auth_sessions WHERE token = ?
	`, token)
	return scanSession(row)
}

// RevokeSession stamps a session revoked. Missing tokens map to ErrNotFound.
func (s *Storage) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE auth_sessions
		SET revoked_at = ?, updated_at = ?
		WHERE token = ? AND revoked_at IS NULL
	`, formatTime(revokedAt), formatTime(revokedAt), token)
	if err != nil {
		return application.Session{}, fmt.Errorf("revoke session: %w", mapError(err))
	}
	if err := requireAffected(result); err != nil {
		return application.Session{}, err
	}
	return s.GetSession(ctx, token)
}

// DeleteExpiredSessions removes sessions whose expiry is at or before the
// reference time.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM auth_sessions WHERE expires_at <= ?
	`, formatTime(reference)); err != nil {
		return fmt.Errorf("delete expired sessions: %w", mapError(err))
	}
	return nil
}

func scanSession(row *sql.Row) (application.Session, error) {
	var (
		session   application.Session
		expiresAt string
		createdAt string
		updatedAt string
		revokedAt sql.NullString
	)
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&expiresAt,
		&createdAt,
		&updatedAt,
		&revokedAt,
	); err != nil {
		return application.Session{}, mapError(err)
	}

	var err error
	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return application.Session{}, err
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Session{}, err
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return application.Session{}, err
	}
	if session.RevokedAt, err = parseNullTime(revokedAt); err != nil {
		return application.Session{}, err
	}
	return session, nil
}
