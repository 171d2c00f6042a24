package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// NotificationDTO is one feed entry as returned to clients.
type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Payload   json.RawMessage        `json:"payload,omitempty"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}

// FeedDTO is a page of the feed plus the unread badge count.
type FeedDTO struct {
	Items       []NotificationDTO `json:"items"`
	UnreadCount int64             `json:"unread_count"`
}

// FromModel converts a notification row into the client-facing shape.
func FromModel(notification *models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        notification.ID,
		Type:      notification.Type,
		Title:     notification.Title,
		Body:      notification.Body,
		Payload:   notification.Payload,
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt,
	}
}
