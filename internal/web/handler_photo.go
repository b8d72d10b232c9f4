package web

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/vbonduro/pantry/internal/domain"
	"github.com/vbonduro/pantry/internal/vision"
)

const maxPhotoSize = 50 * 1024 * 1024 // 50 MB

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

type photoJSON struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func toPhotoJSON(p *domain.Photo) photoJSON {
	return photoJSON{
		ID:         p.ID,
		URL:        p.URL,
		Label:      p.Label,
		Confidence: p.Confidence,
		UploadedAt: p.UploadedAt,
	}
}

type captureResponse struct {
	Photo           photoJSON               `json:"photo"`
	Classifications []vision.Classification `json:"classifications"`
	Added           bool                    `json:"added"`
}

func (s *Server) handleCapturePhoto(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to parse form"})
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image file required"})
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported image format"})
		return
	}

	res, err := s.service.CapturePhoto(r.Context(), token, imageData, mimeType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	classes := res.Classifications
	if classes == nil {
		classes = []vision.Classification{}
	}
	writeJSON(w, http.StatusCreated, captureResponse{
		Photo:           toPhotoJSON(res.Photo),
		Classifications: classes,
		Added:           res.Added,
	})
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	photos, err := s.service.ListPhotos(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]photoJSON, 0, len(photos))
	for _, p := range photos {
		out = append(out, toPhotoJSON(p))
	}
	writeJSON(w, http.StatusOK, map[string][]photoJSON{"photos": out})
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	key := r.PathValue("key")
	reader, mimeType, err := s.service.OpenPhoto(r.Context(), token, key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "storage_key", key, "error", err)
	}
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid photo id"})
		return
	}

	if err := s.service.DeletePhoto(r.Context(), token, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
