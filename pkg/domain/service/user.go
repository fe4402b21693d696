package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"novacart/pkg/domain/model"
)

var (
	ErrPasswordTooShort = errors.New("password is too short")
	ErrInvalidUser      = errors.New("name and a valid email are required")
)

const minPasswordLength = 8

type UserService interface {
	RegisterNewUser(ctx context.Context, name, email, plainTextPassword string) (*model.User, error)
	CreateAdmin(ctx context.Context, name, email, plainTextPassword string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

func NewUserService(repo model.UserRepository, passManager model.PasswordManager, dispatcher EventDispatcher, logger logrus.FieldLogger) UserService {
	return &userService{
		repo:        repo,
		passManager: passManager,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

type userService struct {
	repo        model.UserRepository
	passManager model.PasswordManager
	dispatcher  EventDispatcher
	logger      logrus.FieldLogger
}

func (s *userService) RegisterNewUser(ctx context.Context, name, email, plainTextPassword string) (*model.User, error) {
	return s.register(ctx, name, email, plainTextPassword, model.RoleUser)
}

func (s *userService) CreateAdmin(ctx context.Context, name, email, plainTextPassword string) (*model.User, error) {
	return s.register(ctx, name, email, plainTextPassword, model.RoleAdmin)
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *userService) register(ctx context.Context, name, email, plainTextPassword string, role model.Role) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidUser
	}
	if len(plainTextPassword) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, model.ErrEmailTaken
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := s.passManager.Hash(plainTextPassword)
	if err != nil {
		return nil, err
	}

	userID, err := s.repo.NextID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           userID,
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	dispatchEvent(s.logger, s.dispatcher, model.UserRegistered{UserID: userID, Email: email, Role: role})
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
