package inventory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vbonduro/pantry/internal/domain"
)

// RemoteStore is the document store holding each user's inventory.
// BatchWrite must apply all mutations or none.
type RemoteStore interface {
	FetchAll(ctx context.Context, userID string) (Snapshot, error)
	BatchWrite(ctx context.Context, userID string, muts []Mutation) error
}

const defaultTimeout = 10 * time.Second

// Store holds a user's last known remote inventory and a locally edited
// working copy. Local edits never touch the network; Sync pushes the working
// copy to the remote store in one atomic batch.
type Store struct {
	userID  string
	remote  RemoteStore
	logger  *slog.Logger
	timeout time.Duration

	// syncMu serializes Load and Sync so two batches never overlap.
	syncMu sync.Mutex

	mu       sync.RWMutex
	snapshot Snapshot
	working  Snapshot
	// loaded is set by the first successful Load. Until then the snapshots
	// say nothing about the remote state and Sync refuses to write.
	loaded bool
}

type Option func(*Store)

// WithTimeout bounds each Load and Sync round trip. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

func NewStore(userID string, remote RemoteStore, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		userID:   userID,
		remote:   remote,
		logger:   logger,
		timeout:  defaultTimeout,
		snapshot: Snapshot{},
		working:  Snapshot{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) UserID() string { return s.userID }

// Load fetches the user's full inventory and replaces both snapshots. Any
// unsynced local edits are discarded. On failure both snapshots keep their
// previous contents.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	fetched, err := s.remote.FetchAll(ctx, s.userID)
	if err != nil {
		s.logger.Error("inventory load failed", "user_id", s.userID, "error", err)
		return nil, &domain.FetchError{UserID: s.userID, Err: err}
	}

	clean := make(Snapshot, len(fetched))
	for name, qty := range fetched {
		if qty > 0 {
			clean[name] = qty
		}
	}

	s.mu.Lock()
	s.snapshot = clean
	s.working = clean.Clone()
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("inventory loaded", "user_id", s.userID, "items", len(clean))
	return clean.Clone(), nil
}

// AddLocal increases the working quantity of name by qty, creating the entry
// if needed. Non-positive quantities, and adds that would take the entry past
// MaxQuantity, are rejected with ErrInvalidQuantity.
func (s *Store) AddLocal(name string, qty int) error {
	key, err := validate(name, qty)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.working[key] > MaxQuantity-qty {
		return ErrInvalidQuantity
	}
	s.working[key] += qty
	return nil
}

// RemoveLocal decreases the working quantity of name by qty, deleting the
// entry when it reaches zero. Removing an unknown item is a no-op.
func (s *Store) RemoveLocal(name string, qty int) error {
	key, err := validate(name, qty)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.working[key]
	if !ok {
		return nil
	}
	if cur <= qty {
		delete(s.working, key)
		return nil
	}
	s.working[key] = cur - qty
	return nil
}

// SyncResult describes the batch a Sync issued.
type SyncResult struct {
	Mutations []Mutation
	Upserts   int
	Deletes   int
}

// Sync reconciles the working copy into the remote store. When nothing
// changed no remote call is made. On success the remote snapshot becomes the
// snapshot that was written; edits made while the write was in flight remain
// pending for the next Sync. On failure neither snapshot changes. Sync returns
// ErrNotLoaded until a Load has succeeded, since writing an unloaded working
// copy would overwrite remote entries it has never seen.
func (s *Store) Sync(ctx context.Context) (*SyncResult, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return nil, ErrNotLoaded
	}
	base := s.snapshot.Clone()
	target := s.working.Clone()
	s.mu.RUnlock()

	muts := Reconcile(base, target)
	res := &SyncResult{Mutations: muts}
	for _, m := range muts {
		if m.Op == OpDelete {
			res.Deletes++
		} else {
			res.Upserts++
		}
	}
	if len(muts) == 0 {
		s.logger.Debug("inventory sync skipped, no changes", "user_id", s.userID)
		return res, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.remote.BatchWrite(ctx, s.userID, muts); err != nil {
		s.logger.Error("inventory sync failed", "user_id", s.userID, "mutations", len(muts), "error", err)
		return nil, &domain.SyncError{UserID: s.userID, Err: err}
	}

	s.mu.Lock()
	s.snapshot = target
	s.mu.Unlock()

	s.logger.Info("inventory synced", "user_id", s.userID, "upserts", res.Upserts, "deletes", res.Deletes)
	return res, nil
}

// Working returns a copy of the locally edited inventory.
func (s *Store) Working() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.working.Clone()
}

// Remote returns a copy of the last known remote inventory.
func (s *Store) Remote() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// Loaded reports whether a Load has succeeded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Dirty reports whether the working copy has unsynced edits.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.snapshot.Equal(s.working)
}

// Names returns the working item names in ascending order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.working.Names()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func validate(name string, qty int) (string, error) {
	key := Normalize(name)
	if key == "" {
		return "", ErrEmptyName
	}
	if qty <= 0 || qty > MaxQuantity {
		return "", ErrInvalidQuantity
	}
	return key, nil
}
