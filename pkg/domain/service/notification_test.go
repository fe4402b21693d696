package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novacart/pkg/domain/model"
	"novacart/pkg/domain/service"
)

func setupNotifications(t *testing.T) (service.NotificationService, *mockNotificationRepository, *mockUserRepository) {
	t.Helper()
	repo := newMockNotificationRepository()
	users := newMockUserRepository()
	return service.NewNotificationService(repo, users), repo, users
}

func TestNotifyAdmins(t *testing.T) {
	notificationService, repo, users := setupNotifications(t)
	users.add("admin1", model.RoleAdmin)
	users.add("admin2", model.RoleAdmin)
	users.add("admin3", model.RoleAdmin)
	customer := users.add("customer", model.RoleUser)

	sent, err := notificationService.NotifyAdmins(context.Background(), model.AdminAlertNotification, "low stock", "")
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Len(t, repo.ofType(model.AdminAlertNotification), 3)
	assert.Empty(t, repo.forRecipient(customer.ID, model.AdminAlertNotification))
}

func TestInbox(t *testing.T) {
	ctx := context.Background()
	notificationService, _, _ := setupNotifications(t)
	me := uuid.New()
	someoneElse := uuid.New()

	for i := 0; i < 25; i++ {
		_, err := notificationService.Notify(ctx, me, model.OrderStatusNotification, fmt.Sprintf("update %d", i), "/orders")
		require.NoError(t, err)
	}
	_, err := notificationService.Notify(ctx, someoneElse, model.OrderStatusNotification, "not yours", "")
	require.NoError(t, err)

	t.Run("Newest first, capped, scoped to recipient", func(t *testing.T) {
		inbox, err := notificationService.Inbox(ctx, me)
		require.NoError(t, err)
		require.Len(t, inbox.Notifications, service.InboxLimit)
		assert.Equal(t, "update 24", inbox.Notifications[0].Message)
		assert.Equal(t, 25, inbox.UnreadCount)
		for _, n := range inbox.Notifications {
			assert.Equal(t, me, n.RecipientID)
		}
	})

	t.Run("Mark one read", func(t *testing.T) {
		inbox, err := notificationService.Inbox(ctx, me)
		require.NoError(t, err)
		require.NoError(t, notificationService.MarkRead(ctx, me, inbox.Notifications[0].ID))

		inbox, err = notificationService.Inbox(ctx, me)
		require.NoError(t, err)
		assert.Equal(t, 24, inbox.UnreadCount)
		assert.True(t, inbox.Notifications[0].Read)
	})

	t.Run("Cannot mark another user's notification", func(t *testing.T) {
		other, err := notificationService.Inbox(ctx, someoneElse)
		require.NoError(t, err)
		err = notificationService.MarkRead(ctx, me, other.Notifications[0].ID)
		assert.ErrorIs(t, err, model.ErrNotificationNotFound)
	})

	t.Run("Mark all read", func(t *testing.T) {
		require.NoError(t, notificationService.MarkAllRead(ctx, me))
		inbox, err := notificationService.Inbox(ctx, me)
		require.NoError(t, err)
		assert.Zero(t, inbox.UnreadCount)

		other, err := notificationService.Inbox(ctx, someoneElse)
		require.NoError(t, err)
		assert.Equal(t, 1, other.UnreadCount)
	})

	t.Run("Empty inbox is not nil", func(t *testing.T) {
		inbox, err := notificationService.Inbox(ctx, uuid.New())
		require.NoError(t, err)
		assert.NotNil(t, inbox.Notifications)
		assert.Empty(t, inbox.Notifications)
	})
}
