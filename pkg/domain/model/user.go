package model

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type UserRepository interface {
	NextID() (uuid.UUID, error)
	Create(ctx context.Context, user *User) error
	Find(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindMany(ctx context.Context, ids []uuid.UUID) ([]User, error)
	List(ctx context.Context) ([]User, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
}

type PasswordManager interface {
	Hash(plainTextPassword string) (string, error)
	Check(hashedPassword, plainTextPassword string) (bool, error)
}
