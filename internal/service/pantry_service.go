package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vbonduro/pantry/internal/auth"
	"github.com/vbonduro/pantry/internal/domain"
	"github.com/vbonduro/pantry/internal/inventory"
	"github.com/vbonduro/pantry/internal/photostore"
	"github.com/vbonduro/pantry/internal/recipe"
	"github.com/vbonduro/pantry/internal/session"
	"github.com/vbonduro/pantry/internal/vision"
)

var (
	ErrEmptyInventory = errors.New("no inventory items to suggest recipes from")
	ErrPhotoNotFound  = errors.New("photo not found")
)

// sessionRegistry is the subset of session.Manager that PantryService requires.
type sessionRegistry interface {
	Get(token string) (*session.Session, error)
	Remove(token string)
}

// photoRepository is the subset of store.PhotoStore that PantryService requires.
type photoRepository interface {
	Create(ctx context.Context, p *domain.Photo) (*domain.Photo, error)
	GetByID(ctx context.Context, id int64) (*domain.Photo, error)
	GetByStorageKey(ctx context.Context, userID, key string) (*domain.Photo, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Photo, error)
	Delete(ctx context.Context, id int64) error
}

type PantryService struct {
	auth          auth.Provider
	sessions      sessionRegistry
	photoStore    photoRepository
	photoStg      photostore.PhotoStore
	classifier    vision.Classifier
	suggester     recipe.Suggester
	minConfidence float64
	logger        *slog.Logger
}

func NewPantryService(
	authProvider auth.Provider,
	sessions sessionRegistry,
	photoStore photoRepository,
	photoStg photostore.PhotoStore,
	classifier vision.Classifier,
	suggester recipe.Suggester,
	minConfidence float64,
	logger *slog.Logger,
) *PantryService {
	return &PantryService{
		auth:          authProvider,
		sessions:      sessions,
		photoStore:    photoStore,
		photoStg:      photoStg,
		classifier:    classifier,
		suggester:     suggester,
		minConfidence: minConfidence,
		logger:        logger,
	}
}

func (s *PantryService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	return s.auth.Register(ctx, auth.Credentials{Email: email, Password: password})
}

// SignInResult is a new session and the inventory it loaded. LoadErr is set
// when the initial fetch failed; the session is still usable.
type SignInResult struct {
	Session *auth.Session
	Items   []domain.Item
	LoadErr error
}

// SignIn authenticates the user. The provider's state change creates the
// session and loads its inventory before SignIn returns.
func (s *PantryService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	authSess, err := s.auth.SignIn(ctx, auth.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Get(authSess.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	return &SignInResult{
		Session: authSess,
		Items:   inventory.List(sess.Store.Working(), inventory.ListOptions{}),
		LoadErr: sess.LoadErr,
	}, nil
}

func (s *PantryService) SignOut(ctx context.Context, token string) error {
	return s.auth.SignOut(ctx, token)
}

// Session resolves a bearer token to its live session.
func (s *PantryService) Session(token string) (*session.Session, error) {
	if _, err := s.auth.Verify(token); err != nil {
		// Expired or revoked tokens never come back; drop their state.
		s.sessions.Remove(token)
		return nil, err
	}
	return s.sessions.Get(token)
}

// InventoryView is the working copy as presented to a client.
type InventoryView struct {
	Items []domain.Item
	Dirty bool
}

func (s *PantryService) ListItems(token string, opts inventory.ListOptions) (*InventoryView, error) {
	sess, err := s.Session(token)
	if err != nil {
		return nil, err
	}
	return &InventoryView{
		Items: inventory.List(sess.Store.Working(), opts),
		Dirty: sess.Store.Dirty(),
	}, nil
}

func (s *PantryService) AddItem(token, name string, qty int) (*InventoryView, error) {
	sess, err := s.Session(token)
	if err != nil {
		return nil, err
	}
	if err := sess.Store.AddLocal(name, qty); err != nil {
		return nil, err
	}
	s.logger.Debug("item added locally", "user_id", sess.UserID, "name", inventory.Normalize(name), "quantity", qty)
	return s.ListItems(token, inventory.ListOptions{})
}

func (s *PantryService) RemoveItem(token, name string, qty int) (*InventoryView, error) {
	sess, err := s.Session(token)
	if err != nil {
		return nil, err
	}
	if err := sess.Store.RemoveLocal(name, qty); err != nil {
		return nil, err
	}
	s.logger.Debug("item removed locally", "user_id", sess.UserID, "name", inventory.Normalize(name), "quantity", qty)
	return s.ListItems(token, inventory.ListOptions{})
}

func (s *PantryService) Sync(ctx context.Context, token string) (*inventory.SyncResult, error) {
	sess, err := s.Session(token)
	if err != nil {
		return nil, err
	}
	return sess.Store.Sync(ctx)
}

// Reload refetches the inventory, discarding unsynced edits.
func (s *PantryService) Reload(ctx context.Context, token string) (*InventoryView, error) {
	sess, err := s.Session(token)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Store.Load(ctx); err != nil {
		return nil, err
	}
	return s.ListItems(token, inventory.ListOptions{})
}

// CaptureResult describes a classified photo. Added reports whether the top
// label was confident enough to be added to the working inventory.
type CaptureResult struct {
	Photo           *domain.Photo
	Classifications []vision.Classification
	Added           bool
}

// CapturePhoto classifies the image, stores it, records it, and adds one of
// the best-matching item locally. Nothing is stored if classification fails.
func (s *PantryService) CapturePhoto(ctx context.Context, token string, imageData []byte, mimeType string) (*CaptureResult, error) {
	sess, err := s.Session(token)
	if err != nil {
		return nil, err
	}
	s.logger.Info("capture photo started", "user_id", sess.UserID, "mime_type", mimeType, "bytes", len(imageData))

	classes, err := s.classifier.Classify(ctx, bytes.NewReader(imageData), mimeType)
	if err != nil {
		s.logger.Error("classification failed", "user_id", sess.UserID, "error", err)
		return nil, &domain.ServiceError{Service: "classification", Err: err}
	}
	best, ok := vision.Best(classes, s.minConfidence)
	s.logger.Info("classification complete", "user_id", sess.UserID, "candidates", len(classes), "label", best.Label, "confidence", best.Confidence)

	key := fmt.Sprintf("images/%s/%s%s", sess.UserID, uuid.NewString(), photostore.ExtensionFor(mimeType))
	url, err := s.photoStg.Put(ctx, key, mimeType, bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}

	photo, err := s.photoStore.Create(ctx, &domain.Photo{
		UserID:     sess.UserID,
		StorageKey: key,
		URL:        url,
		MimeType:   mimeType,
		Label:      best.Label,
		Confidence: best.Confidence,
	})
	if err != nil {
		if stgErr := s.photoStg.Delete(ctx, key); stgErr != nil {
			s.logger.Error("failed to roll back photo file", "user_id", sess.UserID, "storage_key", key, "error", stgErr)
		}
		return nil, fmt.Errorf("failed to create photo record: %w", err)
	}

	result := &CaptureResult{Photo: photo, Classifications: classes}
	if ok {
		if err := sess.Store.AddLocal(best.Label, 1); err != nil {
			return nil, err
		}
		result.Added = true
	}
	s.logger.Info("capture photo complete", "user_id", sess.UserID, "photo_id", photo.ID, "added", result.Added)
	return result, nil
}

func (s *PantryService) ListPhotos(ctx context.Context, token string) ([]*domain.Photo, error) {
	sess, err := s.Session(token)
	if err != nil {
		return nil, err
	}
	return s.photoStore.ListByUser(ctx, sess.UserID)
}

// OpenPhoto returns the stored image for key if it belongs to the caller.
func (s *PantryService) OpenPhoto(ctx context.Context, token, key string) (io.ReadCloser, string, error) {
	sess, err := s.Session(token)
	if err != nil {
		return nil, "", err
	}

	photo, err := s.photoStore.GetByStorageKey(ctx, sess.UserID, key)
	if err != nil {
		return nil, "", err
	}
	if photo == nil {
		return nil, "", ErrPhotoNotFound
	}

	rc, mimeType, err := s.photoStg.Get(ctx, key)
	if errors.Is(err, photostore.ErrNotFound) {
		return nil, "", ErrPhotoNotFound
	}
	return rc, mimeType, err
}

// DeletePhoto removes the photo record and its stored image. The inventory
// is not touched.
func (s *PantryService) DeletePhoto(ctx context.Context, token string, photoID int64) error {
	sess, err := s.Session(token)
	if err != nil {
		return err
	}

	photo, err := s.photoStore.GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if photo == nil || photo.UserID != sess.UserID {
		return ErrPhotoNotFound
	}

	if err := s.photoStore.Delete(ctx, photo.ID); err != nil {
		return fmt.Errorf("failed to delete photo record: %w", err)
	}
	if err := s.photoStg.Delete(ctx, photo.StorageKey); err != nil && !errors.Is(err, photostore.ErrNotFound) {
		s.logger.Error("failed to delete photo file", "user_id", sess.UserID, "storage_key", photo.StorageKey, "error", err)
	}
	return nil
}

// SuggestRecipes asks the recipe model for ideas using the working
// inventory's item names.
func (s *PantryService) SuggestRecipes(ctx context.Context, token string) ([]string, error) {
	sess, err := s.Session(token)
	if err != nil {
		return nil, err
	}

	names := sess.Store.Names()
	if len(names) == 0 {
		return nil, ErrEmptyInventory
	}

	suggestions, err := s.suggester.Suggest(ctx, names)
	if err != nil {
		s.logger.Error("recipe suggestion failed", "user_id", sess.UserID, "error", err)
		return nil, &domain.ServiceError{Service: "recipe", Err: err}
	}
	s.logger.Info("recipes suggested", "user_id", sess.UserID, "items", len(names), "lines", len(suggestions))
	return suggestions, nil
}
