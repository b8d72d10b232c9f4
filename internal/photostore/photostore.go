package photostore

import (
	"context"
	"errors"
	"io"
	"strings"
)

var ErrNotFound = errors.New("photo not found")

// PhotoStore keeps uploaded images under caller-chosen keys. Put returns the
// URL the image can be downloaded from.
type PhotoStore interface {
	Put(ctx context.Context, key, mimeType string, r io.Reader) (url string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// ExtensionFor returns the file extension used for an image MIME type.
func ExtensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// MIMETypeFor is the inverse of ExtensionFor.
func MIMETypeFor(key string) string {
	i := strings.LastIndex(key, ".")
	if i < 0 {
		return "image/jpeg"
	}
	switch strings.ToLower(key[i:]) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
