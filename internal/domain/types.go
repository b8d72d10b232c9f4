package domain

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Item is a single inventory entry. Name is the normalized key.
type Item struct {
	Name     string
	Quantity int
}

type Photo struct {
	ID         int64
	UserID     string
	StorageKey string
	URL        string
	MimeType   string
	Label      string
	Confidence float64
	UploadedAt time.Time
}
