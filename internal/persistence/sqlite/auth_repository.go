package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/training-tracker/internal/persistence"
)

// CreateAuthSession persists a freshly issued operator token.
func (s *Storage) CreateAuthSession(ctx context.Context, session persistence.AuthSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_sessions (token, email, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		session.Token,
		session.Email,
		session.ExpiresAt.UTC().Format(time.RFC3339Nano),
		session.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.ErrDuplicate
		}
		return fmt.Errorf("inserting auth session: %w", err)
	}
	return nil
}

// GetAuthSession retrieves an operator session by token.
func (s *Storage) GetAuthSession(ctx context.Context, token string) (persistence.AuthSession, error) {
	var (
		session   persistence.AuthSession
		expiresAt string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT token, email, expires_at, created_at FROM auth_sessions WHERE token = ?`, token).
		Scan(&session.Token, &session.Email, &expiresAt, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.AuthSession{}, persistence.ErrNotFound
		}
		return persistence.AuthSession{}, err
	}
	session.ExpiresAt = parseTime(expiresAt)
	session.CreatedAt = parseTime(createdAt)
	return session, nil
}

// DeleteAuthSession revokes one operator token.
func (s *Storage) DeleteAuthSession(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM auth_sessions WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("deleting auth session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteExpiredAuthSessions drops tokens past their TTL.
func (s *Storage) DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM auth_sessions WHERE expires_at <= ?",
		reference.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("deleting expired auth sessions: %w", err)
	}
	return nil
}
