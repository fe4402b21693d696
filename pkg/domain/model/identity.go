package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Identity is the verified subject of a session token.
type Identity struct {
	UserID uuid.UUID
}

type AuthErrorKind int

const (
	// AuthUnauthenticated means no credential was presented or its subject no longer exists.
	AuthUnauthenticated AuthErrorKind = iota
	// AuthInvalid means the credential failed decoding, signature or expiry checks.
	AuthInvalid
	// AuthForbidden means the credential is valid but the role is insufficient.
	AuthForbidden
)

func (k AuthErrorKind) String() string {
	switch k {
	case AuthUnauthenticated:
		return "unauthenticated"
	case AuthInvalid:
		return "invalid credential"
	case AuthForbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("AuthErrorKind(%d)", int(k))
	}
}

type AuthError struct {
	Kind  AuthErrorKind
	Cause error
}

func NewAuthError(kind AuthErrorKind, cause error) *AuthError {
	return &AuthError{Kind: kind, Cause: cause}
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Cause.Error()
	}
	return e.Kind.String()
}

func (e *AuthError) Unwrap() error { return e.Cause }

// Is lets errors.Is match on kind alone, e.g. errors.Is(err, &AuthError{Kind: AuthForbidden}).
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}
