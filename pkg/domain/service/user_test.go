package service_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novacart/pkg/domain/model"
	"novacart/pkg/domain/service"
)

func setupUsers(t *testing.T) (service.UserService, service.AuthService, *mockUserRepository, *mockTokens, *mockEventDispatcher) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	repo := newMockUserRepository()
	passManager := &mockPasswordManager{}
	tokens := newMockTokens()
	dispatcher := &mockEventDispatcher{}
	userService := service.NewUserService(repo, passManager, dispatcher, logger)
	authService := service.NewAuthService(repo, passManager, tokens, tokens)
	return userService, authService, repo, tokens, dispatcher
}

func TestRegisterNewUser(t *testing.T) {
	ctx := context.Background()
	userService, _, repo, _, dispatcher := setupUsers(t)

	t.Run("Success", func(t *testing.T) {
		user, err := userService.RegisterNewUser(ctx, "John", " Test@Example.com ", "password123")

		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "test@example.com", user.Email)
		assert.Equal(t, model.RoleUser, user.Role)
		assert.Contains(t, user.PasswordHash, "-hashed")

		savedUser, _ := repo.FindByEmail(ctx, "test@example.com")
		assert.Equal(t, user.ID, savedUser.ID)

		require.Len(t, dispatcher.events, 1)
		_, ok := dispatcher.events[0].(model.UserRegistered)
		assert.True(t, ok)
	})

	t.Run("Fail on email taken", func(t *testing.T) {
		dispatcher.Reset()
		_, err := userService.RegisterNewUser(ctx, "Jane", "test@example.com", "password123")
		assert.ErrorIs(t, err, model.ErrEmailTaken)
		assert.Empty(t, dispatcher.events)
	})

	t.Run("Fail on short password", func(t *testing.T) {
		dispatcher.Reset()
		_, err := userService.RegisterNewUser(ctx, "Jack", "jack@example.com", "123")
		assert.ErrorIs(t, err, service.ErrPasswordTooShort)
		assert.Empty(t, dispatcher.events)
	})

	t.Run("Fail on bad email", func(t *testing.T) {
		_, err := userService.RegisterNewUser(ctx, "Jack", "jack.example.com", "password123")
		assert.ErrorIs(t, err, service.ErrInvalidUser)
	})

	t.Run("Create admin", func(t *testing.T) {
		admin, err := userService.CreateAdmin(ctx, "Root", "root@example.com", "password123")
		require.NoError(t, err)
		assert.True(t, admin.IsAdmin())
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	userService, authService, _, _, _ := setupUsers(t)
	registered, err := userService.RegisterNewUser(ctx, "John", "john@example.com", "password123")
	require.NoError(t, err)

	t.Run("Success issues a verifiable token", func(t *testing.T) {
		user, token, err := authService.Login(ctx, "JOHN@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)

		identity, err := authService.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, identity.UserID)
	})

	t.Run("Wrong password", func(t *testing.T) {
		_, _, err := authService.Login(ctx, "john@example.com", "nope-nope")
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("Unknown email", func(t *testing.T) {
		_, _, err := authService.Login(ctx, "ghost@example.com", "password123")
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	})
}

func TestAdminGate(t *testing.T) {
	ctx := context.Background()
	_, authService, repo, tokens, _ := setupUsers(t)
	admin := repo.add("admin", model.RoleAdmin)
	customer := repo.add("customer", model.RoleUser)
	adminToken, _ := tokens.Issue(admin.ID)
	customerToken, _ := tokens.Issue(customer.ID)

	t.Run("Admin passes", func(t *testing.T) {
		user, err := authService.RequireAdmin(ctx, adminToken)
		require.NoError(t, err)
		assert.Equal(t, admin.ID, user.ID)
	})

	t.Run("Customer is forbidden", func(t *testing.T) {
		_, err := authService.RequireAdmin(ctx, customerToken)
		assert.ErrorIs(t, err, &model.AuthError{Kind: model.AuthForbidden})
	})

	t.Run("No token is unauthenticated", func(t *testing.T) {
		_, err := authService.RequireAdmin(ctx, "")
		assert.ErrorIs(t, err, &model.AuthError{Kind: model.AuthUnauthenticated})
	})

	t.Run("Garbage token is invalid", func(t *testing.T) {
		_, err := authService.RequireAdmin(ctx, "garbage")
		assert.ErrorIs(t, err, &model.AuthError{Kind: model.AuthInvalid})
	})

	t.Run("Token of a removed user is forbidden", func(t *testing.T) {
		ghostToken, _ := tokens.Issue(model.Identity{}.UserID)
		_, err := authService.RequireAdmin(ctx, ghostToken)
		assert.ErrorIs(t, err, &model.AuthError{Kind: model.AuthForbidden})
	})

	t.Run("RequireUser accepts any role", func(t *testing.T) {
		user, err := authService.RequireUser(ctx, customerToken)
		require.NoError(t, err)
		assert.Equal(t, customer.ID, user.ID)
	})
}
