// Package auth signs users in and out and notifies subscribers when a user's
// authentication state changes.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/vbonduro/pantry/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailTaken         = errors.New("email already registered")
)

type Credentials struct {
	Email    string
	Password string
}

// Session is an authenticated user and the bearer token identifying them.
type Session struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// StateChange is delivered to listeners on sign-in and sign-out. An empty
// UserID means Token was signed out. ExpiresAt is when a signed-in Token
// stops verifying.
type StateChange struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

func (c StateChange) SignedIn() bool { return c.UserID != "" }

type Listener func(ctx context.Context, change StateChange)

type Provider interface {
	Register(ctx context.Context, creds Credentials) (*domain.User, error)
	SignIn(ctx context.Context, creds Credentials) (*Session, error)
	SignOut(ctx context.Context, token string) error
	Verify(token string) (string, error)
	OnAuthStateChange(fn Listener) (unsubscribe func())
}
