package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/training-tracker/internal/notify"
	"github.com/example/training-tracker/internal/persistence"
)

// NotificationRepository captures the persisted notification log interactions.
type NotificationRepository interface {
	AppendNotifications(ctx context.Context, notifications []Notification) error
	ListNotifications(ctx context.Context) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	ClearNotifications(ctx context.Context) error
}

// SessionLister exposes the read side of the session collection to the
// notification evaluation.
type SessionLister interface {
	ListSessions(ctx context.Context) ([]TrainingSession, error)
}

// NotificationService owns the notification log. On every evaluation cycle it
// feeds the current sessions and the accumulated log through the engine,
// appends whatever is newly due and delivers each new notification through
// the Notifier exactly once.
type NotificationService struct {
	notifications NotificationRepository
	sessions      SessionLister
	notifier      notify.Notifier
	now           func() time.Time
	logger        *slog.Logger
}

// NewNotificationService wires dependencies for notification operations.
func NewNotificationService(notifications NotificationRepository, sessions SessionLister, notifier notify.Notifier, now func() time.Time) *NotificationService {
	return NewNotificationServiceWithLogger(notifications, sessions, notifier, now, nil)
}

// NewNotificationServiceWithLogger constructs a NotificationService with a specified logger.
func NewNotificationServiceWithLogger(notifications NotificationRepository, sessions SessionLister, notifier notify.Notifier, now func() time.Time, logger *slog.Logger) *NotificationService {
	if now == nil {
		now = time.Now
	}
	return &NotificationService{
		notifications: notifications,
		sessions:      sessions,
		notifier:      notifier,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *NotificationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "NotificationService", operation, attrs...)
}

// EvaluateNotifications runs one engine pass over current state. A delivery
// failure is logged but never retracts the notification from the log; it
// remains available for in-app display.
func (s *NotificationService) EvaluateNotifications(ctx context.Context) error {
	if s == nil || s.notifications == nil || s.sessions == nil {
		return fmt.Errorf("notification service not configured")
	}

	sessions, err := s.sessions.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	existing, err := s.notifications.ListNotifications(ctx)
	if err != nil {
		return fmt.Errorf("listing notifications: %w", err)
	}

	derived := notify.Evaluate(toNotifySessions(sessions), toNotifyNotifications(existing), s.now())
	if len(derived) == 0 {
		return nil
	}

	notifications := fromNotifyNotifications(derived)
	if err := s.notifications.AppendNotifications(ctx, notifications); err != nil {
		return fmt.Errorf("appending notifications: %w", err)
	}

	logger := s.loggerWith(ctx, "EvaluateNotifications")
	logger.InfoContext(ctx, "notifications derived", "count", len(notifications))

	if s.notifier != nil {
		for _, notification := range notifications {
			if err := s.notifier.Deliver(ctx, notification.Title, notification.Message); err != nil {
				logger.WarnContext(ctx, "notification delivery failed", "id", notification.ID, "error", err)
			}
		}
	}
	return nil
}

// ListNotifications returns the log, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context) ([]Notification, error) {
	if s == nil || s.notifications == nil {
		return nil, fmt.Errorf("notification repository not configured")
	}
	notifications, err := s.notifications.ListNotifications(ctx)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead flips the read flag of one notification.
func (s *NotificationService) MarkNotificationRead(ctx context.Context, id string) error {
	if s == nil || s.notifications == nil {
		return fmt.Errorf("notification repository not configured")
	}
	if err := s.notifications.MarkNotificationRead(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ClearNotifications empties the log on operator request.
func (s *NotificationService) ClearNotifications(ctx context.Context) error {
	if s == nil || s.notifications == nil {
		return fmt.Errorf("notification repository not configured")
	}
	return s.notifications.ClearNotifications(ctx)
}

func toNotifySessions(sessions []TrainingSession) []notify.Session {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]notify.Session, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, notify.Session{
			ID:           session.ID,
			TrainingName: session.TrainingName,
			Date:         session.Date,
			StartTime:    session.StartTime,
			Status:       string(session.Status),
		})
	}
	return out
}

func toNotifyNotifications(notifications []Notification) []notify.Notification {
	if len(notifications) == 0 {
		return nil
	}
	out := make([]notify.Notification, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, notify.Notification{
			ID:         notification.ID,
			Title:      notification.Title,
			Message:    notification.Message,
			Type:       string(notification.Type),
			Timestamp:  notification.Timestamp,
			TrainingID: notification.TrainingID,
		})
	}
	return out
}

func fromNotifyNotifications(notifications []notify.Notification) []Notification {
	out := make([]Notification, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, Notification{
			ID:         notification.ID,
			Title:      notification.Title,
			Message:    notification.Message,
			Type:       NotificationType(notification.Type),
			Timestamp:  notification.Timestamp,
			TrainingID: notification.TrainingID,
		})
	}
	return out
}
