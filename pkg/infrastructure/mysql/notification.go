package mysql

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"novacart/pkg/domain/model"
)

type notificationRow struct {
	ID          uuid.UUID `db:"id"`
	RecipientID uuid.UUID `db:"recipient_id"`
	Type        string    `db:"type"`
	Message     string    `db:"message"`
	Link        string    `db:"link"`
	Read        bool      `db:"is_read"`
	CreatedAt   time.Time `db:"created_at"`
}

func NewNotificationRepository(connector *Connector) model.NotificationRepository {
	return &notificationRepository{connector: connector}
}

type notificationRepository struct {
	connector *Connector
}

func (r *notificationRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return err
	}
	_, err = db.NamedExecContext(ctx, `
		INSERT INTO notifications (id, recipient_id, type, message, link, is_read, created_at)
		VALUES (:id, :recipient_id, :type, :message, :link, :is_read, :created_at)`,
		notificationRow{
			ID:          n.ID,
			RecipientID: n.RecipientID,
			Type:        string(n.Type),
			Message:     n.Message,
			Link:        n.Link,
			Read:        n.Read,
			CreatedAt:   n.CreatedAt,
		})
	return errors.Wrap(err, "insert notification")
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]model.Notification, error) {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return nil, err
	}
	var rows []notificationRow
	err = db.SelectContext(ctx, &rows, `
		SELECT id, recipient_id, type, message, link, is_read, created_at
		FROM notifications WHERE recipient_id = ?
		ORDER BY created_at DESC LIMIT ?`, recipientID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select notifications")
	}
	notifications := make([]model.Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, model.Notification{
			ID:          row.ID,
			RecipientID: row.RecipientID,
			Type:        model.NotificationType(row.Type),
			Message:     row.Message,
			Link:        row.Link,
			Read:        row.Read,
			CreatedAt:   row.CreatedAt,
		})
	}
	return notifications, nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return 0, err
	}
	var count int
	err = db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = FALSE`, recipientID)
	return count, errors.Wrap(err, "count unread notifications")
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, id uuid.UUID) error {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = ? AND recipient_id = ?`, id, recipientID)
	if err != nil {
		return errors.Wrap(err, "mark notification read")
	}
	return requireAffected(res, model.ErrNotificationNotFound)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	db, err := r.connector.DB(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE recipient_id = ? AND is_read = FALSE`, recipientID)
	return errors.Wrap(err, "mark all notifications read")
}
