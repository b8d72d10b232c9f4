package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vbonduro/pantry/internal/auth"
	"github.com/vbonduro/pantry/internal/domain"
	"github.com/vbonduro/pantry/internal/inventory"
	"github.com/vbonduro/pantry/internal/service"
	"github.com/vbonduro/pantry/internal/session"
)

const maxJSONBody = 1 << 20

var errMissingToken = errors.New("missing bearer token")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError logs err and reports it to the client as {"error": "..."} with
// a status derived from its kind.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classifyError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func classifyError(err error) (int, string) {
	var (
		authErr  *domain.AuthError
		fetchErr *domain.FetchError
		syncErr  *domain.SyncError
		svcErr   *domain.ServiceError
	)
	switch {
	case errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrEmptyName),
		errors.Is(err, service.ErrEmptyInventory),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, auth.ErrEmailTaken.Error()
	case errors.Is(err, inventory.ErrNotLoaded):
		return http.StatusConflict, "inventory has not been loaded, reload before syncing"
	case errors.Is(err, errMissingToken),
		errors.Is(err, session.ErrNoSession),
		errors.As(err, &authErr):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrPhotoNotFound):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, "could not load inventory, try again"
	case errors.As(err, &syncErr):
		return http.StatusBadGateway, "could not save inventory, your changes are kept locally"
	case errors.As(err, &svcErr):
		return http.StatusBadGateway, svcErr.Service + " service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func bearerToken(r *http.Request) (string, error) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return "", errMissingToken
	}
	return token, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
