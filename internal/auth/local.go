package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vbonduro/pantry/internal/domain"
	"github.com/vbonduro/pantry/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// userRepository is the subset of store.UserStore that LocalProvider requires.
type userRepository interface {
	Create(ctx context.Context, id, email, passwordHash string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// LocalProvider authenticates against the users table, hashing passwords
// with bcrypt and issuing HS256 JWTs.
type LocalProvider struct {
	users  userRepository
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	logger *slog.Logger

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
	revoked   map[string]time.Time
}

type ProviderOption func(*LocalProvider)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) ProviderOption {
	return func(p *LocalProvider) { p.cost = cost }
}

func WithClock(now func() time.Time) ProviderOption {
	return func(p *LocalProvider) { p.now = now }
}

func NewLocalProvider(users userRepository, secret string, ttl time.Duration, logger *slog.Logger, opts ...ProviderOption) *LocalProvider {
	p := &LocalProvider{
		users:     users,
		secret:    []byte(secret),
		ttl:       ttl,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
		logger:    logger,
		listeners: make(map[int]Listener),
		revoked:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *LocalProvider) Register(ctx context.Context, creds Credentials) (*domain.User, error) {
	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return nil, &domain.AuthError{Op: "register", Err: err}
	}
	if len(creds.Password) < minPasswordLen {
		return nil, &domain.AuthError{Op: "register", Err: ErrWeakPassword}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := p.users.Create(ctx, uuid.NewString(), email, string(hash))
	if errors.Is(err, store.ErrEmailTaken) {
		return nil, &domain.AuthError{Op: "register", Err: ErrEmailTaken}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	p.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// SignIn checks creds, issues a token and notifies listeners before
// returning.
func (p *LocalProvider) SignIn(ctx context.Context, creds Credentials) (*Session, error) {
	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return nil, &domain.AuthError{Op: "sign in", Err: ErrInvalidCredentials}
	}

	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, &domain.AuthError{Op: "sign in", Err: ErrInvalidCredentials}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, &domain.AuthError{Op: "sign in", Err: ErrInvalidCredentials}
	}

	now := p.now()
	expiresAt := now.Add(p.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	p.logger.Info("user signed in", "user_id", user.ID)
	p.notify(ctx, StateChange{UserID: user.ID, Token: signed, ExpiresAt: expiresAt})

	return &Session{UserID: user.ID, Token: signed, ExpiresAt: expiresAt}, nil
}

// SignOut revokes token and notifies listeners.
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return &domain.AuthError{Op: "sign out", Err: err}
	}

	p.mu.Lock()
	now := p.now()
	for t, exp := range p.revoked {
		if now.After(exp) {
			delete(p.revoked, t)
		}
	}
	p.revoked[token] = claims.ExpiresAt.Time
	p.mu.Unlock()

	p.logger.Info("user signed out", "user_id", claims.Subject)
	p.notify(ctx, StateChange{Token: token})
	return nil
}

// Verify returns the user a live token belongs to.
func (p *LocalProvider) Verify(token string) (string, error) {
	claims, err := p.parse(token)
	if err != nil {
		return "", &domain.AuthError{Op: "verify", Err: err}
	}
	return claims.Subject, nil
}

func (p *LocalProvider) OnAuthStateChange(fn Listener) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *LocalProvider) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	p.mu.Lock()
	_, revoked := p.revoked[token]
	p.mu.Unlock()
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *LocalProvider) notify(ctx context.Context, change StateChange) {
	p.mu.Lock()
	fns := make([]Listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ctx, change)
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
