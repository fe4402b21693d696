package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"novacart/pkg/domain/model"
)

const InboxLimit = 20

type Inbox struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unreadCount"`
}

type NotificationService interface {
	Notify(ctx context.Context, recipientID uuid.UUID, notificationType model.NotificationType, message, link string) (*model.Notification, error)
	NotifyAdmins(ctx context.Context, notificationType model.NotificationType, message, link string) (int, error)

	Inbox(ctx context.Context, recipientID uuid.UUID) (*Inbox, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) error
}

func NewNotificationService(repo model.NotificationRepository, users model.UserRepository) NotificationService {
	return &notificationService{repo: repo, users: users}
}

type notificationService struct {
	repo  model.NotificationRepository
	users model.UserRepository
}

func (s *notificationService) Notify(ctx context.Context, recipientID uuid.UUID, notificationType model.NotificationType, message, link string) (*model.Notification, error) {
	id, err := s.repo.NextID()
	if err != nil {
		return nil, err
	}
	notification := &model.Notification{
		ID:          id,
		RecipientID: recipientID,
		Type:        notificationType,
		Message:     message,
		Link:        link,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// NotifyAdmins creates one notification per admin and returns how many were stored.
// A failure for one admin does not stop delivery to the others.
func (s *notificationService) NotifyAdmins(ctx context.Context, notificationType model.NotificationType, message, link string) (int, error) {
	admins, err := s.users.ListByRole(ctx, model.RoleAdmin)
	if err != nil {
		return 0, err
	}

	var (
		sent int
		errs []error
	)
	for _, admin := range admins {
		if _, err := s.Notify(ctx, admin.ID, notificationType, message, link); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

func (s *notificationService) Inbox(ctx context.Context, recipientID uuid.UUID) (*Inbox, error) {
	notifications, err := s.repo.ListForRecipient(ctx, recipientID, InboxLimit)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.UnreadCount(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	return &Inbox{Notifications: notifications, UnreadCount: unread}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	return s.repo.MarkRead(ctx, recipientID, notificationID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, recipientID)
}
