package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/pantry/internal/auth"
	"github.com/vbonduro/pantry/internal/db"
	"github.com/vbonduro/pantry/internal/inventory"
	"github.com/vbonduro/pantry/internal/photostore/local"
	"github.com/vbonduro/pantry/internal/service"
	"github.com/vbonduro/pantry/internal/session"
	"github.com/vbonduro/pantry/internal/store"
	"github.com/vbonduro/pantry/internal/vision"
	"github.com/vbonduro/pantry/internal/web"
	"golang.org/x/crypto/bcrypt"
)

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
// http.DetectContentType identifies JPEG from the leading 0xFF 0xD8 bytes.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

// recordingClassifier captures the image bytes passed to it and returns a
// pre-configured result.
type recordingClassifier struct {
	mu        sync.Mutex
	lastBytes []byte
	result    []vision.Classification
}

func (r *recordingClassifier) Classify(_ context.Context, rd io.Reader, _ string) ([]vision.Classification, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.lastBytes = data
	r.mu.Unlock()
	return r.result, nil
}

type fixedSuggester struct{ lines []string }

func (f fixedSuggester) Suggest(context.Context, []string) ([]string, error) {
	return f.lines, nil
}

type testServer struct {
	*httptest.Server
	inventory  *store.InventoryStore
	classifier *recordingClassifier
}

// newTestServer wires a real web.Server over in-memory SQLite and a
// temp-dir photo store.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	invStore := store.NewInventoryStore(database, db.DialectSQLite)
	provider := auth.NewLocalProvider(store.NewUserStore(database), "secret", time.Hour, logger, auth.WithBcryptCost(bcrypt.MinCost))
	sessions := session.NewManager(func(userID string) *inventory.Store {
		return inventory.NewStore(userID, invStore, logger)
	}, logger)
	sessions.Attach(provider)

	photoStg, err := local.NewLocalPhotoStore(t.TempDir(), "/photos/")
	require.NoError(t, err)

	classifier := &recordingClassifier{}
	svc := service.NewPantryService(
		provider,
		sessions,
		store.NewPhotoStore(database),
		photoStg,
		classifier,
		fixedSuggester{lines: []string{"Fried rice", "Stir everything together."}},
		0.5,
		logger,
	)

	srv := httptest.NewServer(web.NewServer(svc, logger))
	t.Cleanup(func() {
		srv.Close()
		sessions.Close()
		_ = database.Close()
	})
	return &testServer{Server: srv, inventory: invStore, classifier: classifier}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type loginBody struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	LoadError string `json:"load_error"`
	Items     []item `json:"items"`
}

type item struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Quantity    int    `json:"quantity"`
}

type inventoryBody struct {
	Items []item `json:"items"`
	Dirty bool   `json:"dirty"`
}

func (s *testServer) login(t *testing.T, email string) loginBody {
	t.Helper()
	creds := map[string]string{"email": email, "password": "correct horse"}
	resp := s.do(t, http.MethodPost, "/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/auth/login", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[loginBody](t, resp)
}

// buildMultipartBody creates a multipart/form-data body with an "image" field.
func buildMultipartBody(t *testing.T, imageData []byte) (body *bytes.Buffer, contentType string) {
	t.Helper()
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, err = fw.Write(imageData)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestIntegration_InventoryLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	ctx := context.Background()

	login := srv.login(t, "cook@example.com")
	assert.NotEmpty(t, login.Token)
	assert.Empty(t, login.LoadError)
	assert.Empty(t, login.Items)

	resp := srv.do(t, http.MethodPost, "/inventory/add", login.Token, map[string]any{"name": "Brown Rice", "quantity": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inv := decode[inventoryBody](t, resp)
	assert.True(t, inv.Dirty)
	assert.Equal(t, []item{{Name: "brown rice", DisplayName: "Brown rice", Quantity: 3}}, inv.Items)

	// Quantity defaults to one.
	resp = srv.do(t, http.MethodPost, "/inventory/add", login.Token, map[string]any{"name": "beans"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Nothing reaches the remote store before sync.
	remote, err := srv.inventory.FetchAll(ctx, login.UserID)
	require.NoError(t, err)
	assert.Empty(t, remote)

	resp = srv.do(t, http.MethodPost, "/inventory/sync", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]int{"upserts": 2, "deletes": 0}, decode[map[string]int](t, resp))

	remote, err = srv.inventory.FetchAll(ctx, login.UserID)
	require.NoError(t, err)
	assert.Equal(t, inventory.Snapshot{"brown rice": 3, "beans": 1}, remote)

	// A second sync is a no-op.
	resp = srv.do(t, http.MethodPost, "/inventory/sync", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]int{"upserts": 0, "deletes": 0}, decode[map[string]int](t, resp))

	resp = srv.do(t, http.MethodPost, "/inventory/remove", login.Token, map[string]any{"name": "beans", "quantity": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = srv.do(t, http.MethodPost, "/inventory/sync", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]int{"upserts": 1, "deletes": 1}, decode[map[string]int](t, resp))

	resp = srv.do(t, http.MethodGet, "/inventory?sort=quantity&order=desc", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inv = decode[inventoryBody](t, resp)
	assert.False(t, inv.Dirty)
	assert.Equal(t, []item{{Name: "brown rice", DisplayName: "Brown rice", Quantity: 3}}, inv.Items)
}

func TestIntegration_ReloadDiscardsEdits(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	login := srv.login(t, "cook@example.com")

	resp := srv.do(t, http.MethodPost, "/inventory/add", login.Token, map[string]any{"name": "oats", "quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/inventory/reload", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inv := decode[inventoryBody](t, resp)
	assert.Empty(t, inv.Items)
	assert.False(t, inv.Dirty)
}

func TestIntegration_SignInSeesSyncedInventory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	login := srv.login(t, "cook@example.com")

	resp := srv.do(t, http.MethodPost, "/inventory/add", login.Token, map[string]any{"name": "tea", "quantity": 4})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = srv.do(t, http.MethodPost, "/inventory/sync", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "cook@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decode[loginBody](t, resp)
	assert.NotEqual(t, login.Token, second.Token)
	assert.Equal(t, []item{{Name: "tea", DisplayName: "Tea", Quantity: 4}}, second.Items)
}

func TestIntegration_Validation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	login := srv.login(t, "cook@example.com")

	resp := srv.do(t, http.MethodPost, "/inventory/add", login.Token, map[string]any{"name": "eggs", "quantity": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[map[string]string](t, resp)["error"], "positive")

	resp = srv.do(t, http.MethodPost, "/inventory/add", login.Token, map[string]any{"name": "", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/inventory?sort=color", login.Token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/recipes", login.Token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIntegration_Auth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	login := srv.login(t, "cook@example.com")

	resp := srv.do(t, http.MethodGet, "/inventory", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	resp = srv.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "cook@example.com", "password": "correct horse"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "cook@example.com", "password": "nope nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/auth/logout", login.Token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/inventory", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_SecurityHeaders(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestIntegration_CapturePhoto(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	login := srv.login(t, "cook@example.com")
	srv.classifier.result = []vision.Classification{{Label: "apple", Confidence: 0.87}}

	body, contentType := buildMultipartBody(t, minimalJPEG)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/photos", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var captured struct {
		Photo struct {
			ID    int64  `json:"id"`
			URL   string `json:"url"`
			Label string `json:"label"`
		} `json:"photo"`
		Added bool `json:"added"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&captured))
	assert.True(t, captured.Added)
	assert.Equal(t, "apple", captured.Photo.Label)
	assert.Equal(t, minimalJPEG, srv.classifier.lastBytes)

	resp = srv.do(t, http.MethodGet, captured.Photo.URL, login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, minimalJPEG, data)

	resp = srv.do(t, http.MethodGet, "/inventory", login.Token, nil)
	inv := decode[inventoryBody](t, resp)
	assert.Equal(t, []item{{Name: "apple", DisplayName: "Apple", Quantity: 1}}, inv.Items)

	resp = srv.do(t, http.MethodGet, "/recipes", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string][]string{"recipes": {"Fried rice", "Stir everything together."}}, decode[map[string][]string](t, resp))
}

func TestIntegration_CapturePhotoRejectsNonImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)
	login := srv.login(t, "cook@example.com")

	body, contentType := buildMultipartBody(t, []byte("%PDF-1.4 not an image"))
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/photos", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, srv.classifier.lastBytes)
}
