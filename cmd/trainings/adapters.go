package main

import (
	"context"

	"github.com/example/training-tracker/internal/application"
	"github.com/example/training-tracker/internal/intake"
	"github.com/example/training-tracker/internal/persistence"
)

// sessionRepositoryAdapter bridges the application session repository onto the
// persistence layer.
type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSessions(ctx context.Context, sessions []application.TrainingSession) error {
	models := make([]persistence.Session, 0, len(sessions))
	for _, session := range sessions {
		models = append(models, toPersistenceSession(session))
	}
	return a.repo.CreateSessions(ctx, models)
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, id string) (application.TrainingSession, error) {
	stored, err := a.repo.GetSession(ctx, id)
	if err != nil {
		return application.TrainingSession{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.TrainingSession) (application.TrainingSession, error) {
	if err := a.repo.UpdateSession(ctx, toPersistenceSession(session)); err != nil {
		return application.TrainingSession{}, err
	}
	stored, err := a.repo.GetSession(ctx, session.ID)
	if err != nil {
		return application.TrainingSession{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) ListSessions(ctx context.Context) ([]application.TrainingSession, error) {
	models, err := a.repo.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	sessions := make([]application.TrainingSession, 0, len(models))
	for _, model := range models {
		sessions = append(sessions, toApplicationSession(model))
	}
	return sessions, nil
}

// notificationRepositoryAdapter bridges the notification log onto persistence.
type notificationRepositoryAdapter struct {
	repo persistence.NotificationRepository
}

func newNotificationRepositoryAdapter(repo persistence.NotificationRepository) *notificationRepositoryAdapter {
	return &notificationRepositoryAdapter{repo: repo}
}

func (a *notificationRepositoryAdapter) AppendNotifications(ctx context.Context, notifications []application.Notification) error {
	models := make([]persistence.Notification, 0, len(notifications))
	for _, notification := range notifications {
		models = append(models, toPersistenceNotification(notification))
	}
	return a.repo.AppendNotifications(ctx, models)
}

func (a *notificationRepositoryAdapter) ListNotifications(ctx context.Context) ([]application.Notification, error) {
	models, err := a.repo.ListNotifications(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	notifications := make([]application.Notification, 0, len(models))
	for _, model := range models {
		notifications = append(notifications, toApplicationNotification(model))
	}
	return notifications, nil
}

func (a *notificationRepositoryAdapter) MarkNotificationRead(ctx context.Context, id string) error {
	return a.repo.MarkNotificationRead(ctx, id)
}

func (a *notificationRepositoryAdapter) ClearNotifications(ctx context.Context) error {
	return a.repo.ClearNotifications(ctx)
}

// extractorAdapter bridges the intake client onto the application extractor port.
type extractorAdapter struct {
	client *intake.Client
}

func newExtractorAdapter(client *intake.Client) *extractorAdapter {
	return &extractorAdapter{client: client}
}

func (a *extractorAdapter) ExtractConvention(ctx context.Context, data []byte, mimeType string) (application.ExtractionResult, error) {
	result, err := a.client.ExtractConvention(ctx, data, mimeType)
	if err != nil {
		return application.ExtractionResult{}, err
	}

	participants := make([]application.ExtractedParticipant, 0, len(result.Participants))
	for _, participant := range result.Participants {
		participants = append(participants, application.ExtractedParticipant{
			Name:  participant.Name,
			Email: participant.Email,
			Role:  participant.Role,
		})
	}
	return application.ExtractionResult{
		CompanyName:  result.CompanyName,
		TrainingName: result.TrainingName,
		Dates:        result.Dates,
		Participants: participants,
	}, nil
}

func toPersistenceSession(session application.TrainingSession) persistence.Session {
	participants := make([]persistence.Participant, 0, len(session.Participants))
	for i, participant := range session.Participants {
		participants = append(participants, persistence.Participant{
			ID:        participant.ID,
			SessionID: session.ID,
			Name:      participant.Name,
			Email:     participant.Email,
			Role:      participant.Role,
			HasSigned: participant.HasSigned,
			Signature: optional(participant.Signature),
			IsPresent: participant.IsPresent,
			Position:  i,
		})
	}

	return persistence.Session{
		ID:               session.ID,
		CompanyName:      session.CompanyName,
		TrainingName:     session.TrainingName,
		Date:             session.Date,
		StartTime:        optional(session.StartTime),
		Status:           string(session.Status),
		TrainerName:      session.TrainerName,
		TrainerSignature: optional(session.TrainerSignature),
		Participants:     participants,
		CreatedAt:        session.CreatedAt,
		UpdatedAt:        session.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.TrainingSession {
	participants := make([]application.Participant, 0, len(model.Participants))
	for _, participant := range model.Participants {
		participants = append(participants, application.Participant{
			ID:        participant.ID,
			Name:      participant.Name,
			Email:     participant.Email,
			Role:      participant.Role,
			HasSigned: participant.HasSigned,
			Signature: value(participant.Signature),
			IsPresent: participant.IsPresent,
		})
	}

	return application.TrainingSession{
		ID:               model.ID,
		CompanyName:      model.CompanyName,
		TrainingName:     model.TrainingName,
		Date:             model.Date,
		StartTime:        value(model.StartTime),
		Status:           application.Status(model.Status),
		TrainerName:      model.TrainerName,
		TrainerSignature: value(model.TrainerSignature),
		Participants:     participants,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func toPersistenceNotification(notification application.Notification) persistence.Notification {
	return persistence.Notification{
		ID:         notification.ID,
		Title:      notification.Title,
		Message:    notification.Message,
		Type:       string(notification.Type),
		Timestamp:  notification.Timestamp,
		TrainingID: optional(notification.TrainingID),
		Read:       notification.Read,
	}
}

func toApplicationNotification(model persistence.Notification) application.Notification {
	return application.Notification{
		ID:         model.ID,
		Title:      model.Title,
		Message:    model.Message,
		Type:       application.NotificationType(model.Type),
		Timestamp:  model.Timestamp,
		TrainingID: value(model.TrainingID),
		Read:       model.Read,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
