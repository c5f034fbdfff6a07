package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/training-tracker/internal/persistence"
)

// AuthSessionRepository captures the persistence interactions for operator tokens.
type AuthSessionRepository interface {
	CreateAuthSession(ctx context.Context, session persistence.AuthSession) error
	GetAuthSession(ctx context.Context, token string) (persistence.AuthSession, error)
	DeleteAuthSession(ctx context.Context, token string) error
	DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error
}

// OperatorCredentials holds the single configured operator account.
type OperatorCredentials struct {
	Email        string
	PasswordHash string
}

// AuthService authenticates the operator account and manages token sessions.
type AuthService struct {
	operator       OperatorCredentials
	sessions       AuthSessionRepository
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(operator OperatorCredentials, sessions AuthSessionRepository, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(operator, sessions, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(operator OperatorCredentials, sessions AuthSessionRepository, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		operator:       operator,
		sessions:       sessions,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

// HashPassword derives a bcrypt hash for an operator password. Used by the
// deployment tooling to seed the configuration value.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticate validates credentials and issues a new token session.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (session AuthSession, err error) {
	if s == nil || s.sessions == nil {
		return AuthSession{}, fmt.Errorf("auth session repository not configured")
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))

	logger := serviceLogger(ctx, s.logger, "AuthService", "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || params.Password == "" {
		return AuthSession{}, ErrInvalidCredentials
	}
	if email != strings.ToLower(s.operator.Email) {
		return AuthSession{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.operator.PasswordHash), []byte(params.Password)); err != nil {
		return AuthSession{}, ErrInvalidCredentials
	}

	issuedAt := s.now()
	stored := persistence.AuthSession{
		Token:     s.tokenGenerator(),
		Email:     email,
		ExpiresAt: issuedAt.Add(s.sessionTTL),
		CreatedAt: issuedAt,
	}
	if err := s.sessions.CreateAuthSession(ctx, stored); err != nil {
		return AuthSession{}, err
	}

	// Opportunistic cleanup; stale tokens are also rejected on validation.
	if err := s.sessions.DeleteExpiredAuthSessions(ctx, issuedAt); err != nil {
		logger.WarnContext(ctx, "expired session cleanup failed", "error", err)
	}

	return AuthSession{
		Token:     stored.Token,
		Email:     stored.Email,
		ExpiresAt: stored.ExpiresAt,
		CreatedAt: stored.CreatedAt,
	}, nil
}

// ValidateSession resolves a token to the operator principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil || s.sessions == nil {
		return Principal{}, fmt.Errorf("auth session repository not configured")
	}
	if strings.TrimSpace(token) == "" {
		return Principal{}, ErrInvalidCredentials
	}

	stored, err := s.sessions.GetAuthSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrNotFound
		}
		return Principal{}, err
	}

	if !s.now().Before(stored.ExpiresAt) {
		return Principal{}, ErrSessionExpired
	}
	return Principal{Email: stored.Email}, nil
}

// RevokeSession deletes a token session on logout.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("auth session repository not configured")
	}
	if err := s.sessions.DeleteAuthSession(ctx, token); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
