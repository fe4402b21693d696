package model

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
)

type NotificationType string

const (
	OrderStatusNotification NotificationType = "order_status"
	NewOrderNotification    NotificationType = "new_order"
	AdminAlertNotification  NotificationType = "admin_alert"
)

type Notification struct {
	ID          uuid.UUID        `json:"id"`
	RecipientID uuid.UUID        `json:"recipientId"`
	Type        NotificationType `json:"type"`
	Message     string           `json:"message"`
	Link        string           `json:"link,omitempty"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// NotificationRepository trusts its recipient arguments; callers scope them to the requester.
type NotificationRepository interface {
	NextID() (uuid.UUID, error)
	Create(ctx context.Context, notification *Notification) error
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, recipientID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) error
}
