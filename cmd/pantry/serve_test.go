package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/pantry/internal/config"
	"github.com/vbonduro/pantry/internal/db"
	"github.com/vbonduro/pantry/internal/photostore/local"
	"github.com/vbonduro/pantry/internal/store"
	clauderecipe "github.com/vbonduro/pantry/internal/recipe/claude"
	ollamarecipe "github.com/vbonduro/pantry/internal/recipe/ollama"
	claudevision "github.com/vbonduro/pantry/internal/vision/claude"
	ollamavision "github.com/vbonduro/pantry/internal/vision/ollama"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenDatabaseSQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "pantry.db")}

	database, dialect, err := openDatabase(cfg)
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	assert.Equal(t, db.DialectSQLite, dialect)
	var n int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM inventory_items").Scan(&n))
	assert.Zero(t, n)
}

func TestOpenDatabaseUnknownDriver(t *testing.T) {
	_, _, err := openDatabase(&config.Config{DBDriver: "postgres"})
	assert.Error(t, err)
}

func TestNewRemoteStoreDefaultsToSQL(t *testing.T) {
	database, err := db.OpenForTesting()
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	remote, closeRemote, err := newRemoteStore(context.Background(), &config.Config{DocStore: "sql"}, database, db.DialectSQLite, discardLogger())
	require.NoError(t, err)
	defer closeRemote()

	assert.IsType(t, &store.InventoryStore{}, remote)
}

func TestNewRemoteStoreRedisUnreachable(t *testing.T) {
	cfg := &config.Config{DocStore: "redis", RedisAddr: "127.0.0.1:1"}
	_, _, err := newRemoteStore(context.Background(), cfg, nil, db.DialectSQLite, discardLogger())
	assert.ErrorContains(t, err, "redis")
}

func TestNewPhotoStorageLocal(t *testing.T) {
	stg, err := newPhotoStorage(context.Background(), &config.Config{PhotoBackend: "local", PhotoPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &local.LocalPhotoStore{}, stg)
}

func TestBackendSelection(t *testing.T) {
	logger := discardLogger()

	cfg := &config.Config{VisionBackend: "ollama", RecipeBackend: "ollama", OllamaHost: "http://localhost:11434"}
	assert.IsType(t, &ollamavision.OllamaClassifier{}, newClassifier(cfg, logger))
	assert.IsType(t, &ollamarecipe.OllamaSuggester{}, newSuggester(cfg, logger))

	cfg = &config.Config{VisionBackend: "claude", RecipeBackend: "claude", ClaudeAPIKey: "key", ClaudeModel: "claude-sonnet-4-5"}
	assert.IsType(t, &claudevision.ClaudeClassifier{}, newClassifier(cfg, logger))
	assert.IsType(t, &clauderecipe.ClaudeSuggester{}, newSuggester(cfg, logger))
}
