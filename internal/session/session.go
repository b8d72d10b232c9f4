// Package session ties an inventory Store to each signed-in token. Sessions
// are created on sign-in and torn down on sign-out or once their token
// expires.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vbonduro/pantry/internal/auth"
	"github.com/vbonduro/pantry/internal/inventory"
)

var ErrNoSession = errors.New("no active session")

type Session struct {
	Token     string
	UserID    string
	Store     *inventory.Store
	CreatedAt time.Time
	// ExpiresAt is when the token stops verifying. Zero means no expiry.
	ExpiresAt time.Time
	// LoadErr is the error from the initial load, if any. The store is
	// still usable and can be reloaded.
	LoadErr error
}

// StoreFactory builds the inventory store for a newly signed-in user.
type StoreFactory func(userID string) *inventory.Store

type subscriber interface {
	OnAuthStateChange(fn auth.Listener) (unsubscribe func())
}

type Manager struct {
	newStore StoreFactory
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.RWMutex
	sessions    map[string]*Session
	unsubscribe []func()
}

type ManagerOption func(*Manager)

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func NewManager(newStore StoreFactory, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		newStore: newStore,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attach subscribes the manager to p's auth state changes.
func (m *Manager) Attach(p subscriber) {
	unsub := p.OnAuthStateChange(m.HandleAuthChange)
	m.mu.Lock()
	m.unsubscribe = append(m.unsubscribe, unsub)
	m.mu.Unlock()
}

func (m *Manager) HandleAuthChange(ctx context.Context, change auth.StateChange) {
	if !change.SignedIn() {
		m.Remove(change.Token)
		return
	}

	st := m.newStore(change.UserID)
	sess := &Session{
		Token:     change.Token,
		UserID:    change.UserID,
		Store:     st,
		CreatedAt: m.now(),
		ExpiresAt: change.ExpiresAt,
	}
	if _, err := st.Load(ctx); err != nil {
		m.logger.Warn("session started without inventory", "user_id", change.UserID, "error", err)
		sess.LoadErr = err
	}

	m.mu.Lock()
	m.sessions[change.Token] = sess
	m.mu.Unlock()

	m.logger.Info("session started", "user_id", change.UserID, "items", len(st.Working()))
}

// Remove tears down the session for token. Unknown tokens are ignored.
func (m *Manager) Remove(token string) {
	m.mu.Lock()
	sess, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()

	if ok {
		m.ended(sess, "session ended")
	}
}

// Get returns the live session for token. An expired session is removed and
// reported as ErrNoSession.
func (m *Manager) Get(token string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNoSession
	}
	if sess.expired(m.now()) {
		m.mu.Lock()
		if m.sessions[token] == sess {
			delete(m.sessions, token)
		}
		m.mu.Unlock()
		m.ended(sess, "session expired")
		return nil, ErrNoSession
	}
	return sess, nil
}

// Sweep removes every expired session and returns how many it removed.
func (m *Manager) Sweep() int {
	now := m.now()
	var expired []*Session

	m.mu.Lock()
	for token, sess := range m.sessions {
		if sess.expired(now) {
			delete(m.sessions, token)
			expired = append(expired, sess)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		m.ended(sess, "session expired")
	}
	return len(expired)
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug("expired sessions swept", "count", n)
			}
		}
	}
}

func (m *Manager) ended(sess *Session, msg string) {
	if sess.Store.Dirty() {
		m.logger.Warn("session ended with unsynced changes", "user_id", sess.UserID)
	}
	m.logger.Info(msg, "user_id", sess.UserID)
}

func (s *Session) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close unsubscribes from every provider and drops all sessions.
func (m *Manager) Close() {
	m.mu.Lock()
	unsubs := m.unsubscribe
	m.unsubscribe = nil
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, fn := range unsubs {
		fn()
	}
}
