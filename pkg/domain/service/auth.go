package service

import (
	"context"
	"errors"

	"novacart/pkg/domain/model"
)

// AuthService resolves session tokens to users. Roles always come from the user store,
// never from the token.
type AuthService interface {
	Verify(token string) (model.Identity, error)
	RequireUser(ctx context.Context, token string) (*model.User, error)
	RequireAdmin(ctx context.Context, token string) (*model.User, error)

	Login(ctx context.Context, email, plainTextPassword string) (*model.User, string, error)
	IssueToken(user *model.User) (string, error)
}

func NewAuthService(users model.UserRepository, passManager model.PasswordManager, verifier model.TokenVerifier, issuer model.TokenIssuer) AuthService {
	return &authService{
		users:       users,
		passManager: passManager,
		verifier:    verifier,
		issuer:      issuer,
	}
}

type authService struct {
	users       model.UserRepository
	passManager model.PasswordManager
	verifier    model.TokenVerifier
	issuer      model.TokenIssuer
}

func (s *authService) Verify(token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, model.NewAuthError(model.AuthUnauthenticated, nil)
	}
	identity, err := s.verifier.Verify(token)
	if err != nil {
		var authErr *model.AuthError
		if errors.As(err, &authErr) {
			return model.Identity{}, authErr
		}
		return model.Identity{}, model.NewAuthError(model.AuthInvalid, err)
	}
	return identity, nil
}

func (s *authService) RequireUser(ctx context.Context, token string) (*model.User, error) {
	identity, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Find(ctx, identity.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.NewAuthError(model.AuthUnauthenticated, err)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) RequireAdmin(ctx context.Context, token string) (*model.User, error) {
	identity, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Find(ctx, identity.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.NewAuthError(model.AuthForbidden, err)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, model.NewAuthError(model.AuthForbidden, nil)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, plainTextPassword string) (*model.User, string, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, "", model.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	ok, err := s.passManager.Check(user.PasswordHash, plainTextPassword)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", model.ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) IssueToken(user *model.User) (string, error) {
	return s.issuer.Issue(user.ID)
}
