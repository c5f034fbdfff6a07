package persistence

import (
	"context"
	"time"
)

// SessionRepository stores training sessions and their participants.
type SessionRepository interface {
	// CreateSessions inserts an ingested batch ahead of all existing sessions,
	// preserving the relative order of the batch.
	CreateSessions(ctx context.Context, sessions []Session) error
	UpdateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
}

// NotificationRepository stores the operator notification log.
type NotificationRepository interface {
	AppendNotifications(ctx context.Context, notifications []Notification) error
	ListNotifications(ctx context.Context) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	ClearNotifications(ctx context.Context) error
}

// AuthSessionRepository stores operator tokens issued by the auth service.
type AuthSessionRepository interface {
	CreateAuthSession(ctx context.Context, session AuthSession) error
	GetAuthSession(ctx context.Context, token string) (AuthSession, error)
	DeleteAuthSession(ctx context.Context, token string) error
	DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error
}
