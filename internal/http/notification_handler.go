package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/training-tracker/internal/application"
)

type notificationService interface {
	ListNotifications(ctx context.Context) ([]application.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	ClearNotifications(ctx context.Context) error
}

type NotificationHandler struct {
	service   notificationService
	responder responder
}

func NewNotificationHandler(service notificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, responder: newResponder(logger)}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	notifications, err := h.service.ListNotifications(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listNotificationsResponse{
		Notifications: toNotificationDTOs(notifications),
	})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request, id string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if strings.TrimSpace(id) == "" {
		http.NotFound(w, r)
		return
	}

	if err := h.service.MarkNotificationRead(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *NotificationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.service.ClearNotifications(r.Context()); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type listNotificationsResponse struct {
	Notifications []notificationDTO `json:"notifications"`
}

type notificationDTO struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	TrainingID string    `json:"trainingId,omitempty"`
	Read       bool      `json:"read"`
}

func toNotificationDTOs(notifications []application.Notification) []notificationDTO {
	out := make([]notificationDTO, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, notificationDTO{
			ID:         notification.ID,
			Title:      notification.Title,
			Message:    notification.Message,
			Type:       string(notification.Type),
			Timestamp:  notification.Timestamp,
			TrainingID: notification.TrainingID,
			Read:       notification.Read,
		})
	}
	return out
}
