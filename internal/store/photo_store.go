package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/pantry/internal/domain"
)

type PhotoStore struct {
	db *sql.DB
}

func NewPhotoStore(db *sql.DB) *PhotoStore {
	return &PhotoStore{db: db}
}

func (s *PhotoStore) Create(ctx context.Context, p *domain.Photo) (*domain.Photo, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO photos (user_id, storage_key, url, mime_type, label, confidence) VALUES (?, ?, ?, ?, ?, ?)
	`, p.UserID, p.StorageKey, p.URL, p.MimeType, p.Label, p.Confidence)
	if err != nil {
		return nil, fmt.Errorf("failed to create photo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

const photoColumns = `id, user_id, storage_key, url, mime_type, label, confidence, uploaded_at`

func (s *PhotoStore) GetByID(ctx context.Context, id int64) (*domain.Photo, error) {
	return s.getOne(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = ?`, id)
}

// GetByStorageKey returns the user's photo stored under key, or nil, nil.
func (s *PhotoStore) GetByStorageKey(ctx context.Context, userID, key string) (*domain.Photo, error) {
	return s.getOne(ctx, `SELECT `+photoColumns+` FROM photos WHERE user_id = ? AND storage_key = ?`, userID, key)
}

func (s *PhotoStore) ListByUser(ctx context.Context, userID string) ([]*domain.Photo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+photoColumns+` FROM photos WHERE user_id = ? ORDER BY uploaded_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var photos []*domain.Photo
	for rows.Next() {
		photo := &domain.Photo{}
		if err := scanPhoto(rows, photo); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}

	return photos, nil
}

func (s *PhotoStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM photos WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("photo not found")
	}

	return nil
}

func (s *PhotoStore) getOne(ctx context.Context, query string, args ...any) (*domain.Photo, error) {
	photo := &domain.Photo{}
	err := scanPhoto(s.db.QueryRowContext(ctx, query, args...), photo)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}

	return photo, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row scanner, p *domain.Photo) error {
	return row.Scan(&p.ID, &p.UserID, &p.StorageKey, &p.URL, &p.MimeType, &p.Label, &p.Confidence, &p.UploadedAt)
}
