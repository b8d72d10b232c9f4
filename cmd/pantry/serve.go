package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/vbonduro/pantry/internal/auth"
	"github.com/vbonduro/pantry/internal/config"
	"github.com/vbonduro/pantry/internal/db"
	"github.com/vbonduro/pantry/internal/inventory"
	"github.com/vbonduro/pantry/internal/ollama"
	"github.com/vbonduro/pantry/internal/photostore"
	"github.com/vbonduro/pantry/internal/photostore/local"
	"github.com/vbonduro/pantry/internal/photostore/s3"
	"github.com/vbonduro/pantry/internal/recipe"
	clauderecipe "github.com/vbonduro/pantry/internal/recipe/claude"
	ollamarecipe "github.com/vbonduro/pantry/internal/recipe/ollama"
	"github.com/vbonduro/pantry/internal/service"
	"github.com/vbonduro/pantry/internal/session"
	"github.com/vbonduro/pantry/internal/store"
	"github.com/vbonduro/pantry/internal/store/redisstore"
	"github.com/vbonduro/pantry/internal/vision"
	claudevision "github.com/vbonduro/pantry/internal/vision/claude"
	ollamavision "github.com/vbonduro/pantry/internal/vision/ollama"
	"github.com/vbonduro/pantry/internal/web"
)

const (
	photoURLPrefix  = "/photos/"
	shutdownTimeout = 15 * time.Second

	sessionSweepInterval = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	database, dialect, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	remote, closeRemote, err := newRemoteStore(ctx, cfg, database, dialect, logger)
	if err != nil {
		return err
	}
	defer closeRemote()

	provider := auth.NewLocalProvider(store.NewUserStore(database), cfg.JWTSecret, cfg.SessionTTL, logger)
	sessions := session.NewManager(func(userID string) *inventory.Store {
		return inventory.NewStore(userID, remote, logger, inventory.WithTimeout(cfg.RemoteTimeout))
	}, logger)
	sessions.Attach(provider)
	defer sessions.Close()
	go sessions.Run(ctx, sessionSweepInterval)

	photoStg, err := newPhotoStorage(ctx, cfg)
	if err != nil {
		return err
	}

	classifier := newClassifier(cfg, logger)
	suggester := newSuggester(cfg, logger)

	svc := service.NewPantryService(
		provider,
		sessions,
		store.NewPhotoStore(database),
		photoStg,
		classifier,
		suggester,
		cfg.MinConfidence,
		logger,
	)
	srv := web.NewServer(svc, logger).HTTPServer(cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func openDatabase(cfg *config.Config) (*sql.DB, db.Dialect, error) {
	dialect := db.Dialect(cfg.DBDriver)
	dsn := cfg.DBPath
	if dialect == db.DialectMySQL {
		dsn = cfg.MySQLDSN
	}
	database, err := db.Open(dialect, dsn)
	if err != nil {
		return nil, "", err
	}
	return database, dialect, nil
}

// newRemoteStore picks the document store backing every user's inventory.
// The returned func releases any connection the store owns.
func newRemoteStore(ctx context.Context, cfg *config.Config, database *sql.DB, dialect db.Dialect, logger *slog.Logger) (inventory.RemoteStore, func(), error) {
	if cfg.DocStore != "redis" {
		logger.Info("using sql inventory store", "driver", string(dialect))
		return store.NewInventoryStore(database, dialect), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("using redis inventory store", "addr", cfg.RedisAddr)
	return redisstore.NewInventoryStore(client), func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}, nil
}

func newPhotoStorage(ctx context.Context, cfg *config.Config) (photostore.PhotoStore, error) {
	if cfg.PhotoBackend == "minio" {
		stg, err := s3.New(ctx, s3.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.MinioRegion,
			UseSSL:    cfg.MinioUseSSL,
		}, photoURLPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize photo store: %w", err)
		}
		return stg, nil
	}

	stg, err := local.NewLocalPhotoStore(cfg.PhotoPath, photoURLPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize photo store: %w", err)
	}
	return stg, nil
}

func newClassifier(cfg *config.Config, logger *slog.Logger) vision.Classifier {
	if cfg.VisionBackend == "claude" {
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeClassifier(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	}
	logger.Info("using Ollama vision backend", "model", cfg.OllamaVisionModel)
	return ollamavision.NewOllamaClassifier(ollama.NewClient(cfg.OllamaHost), cfg.OllamaVisionModel)
}

func newSuggester(cfg *config.Config, logger *slog.Logger) recipe.Suggester {
	if cfg.RecipeBackend == "claude" {
		logger.Info("using Claude recipe backend", "model", cfg.ClaudeModel)
		return clauderecipe.NewClaudeSuggester(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	}
	logger.Info("using Ollama recipe backend", "model", cfg.OllamaTextModel)
	return ollamarecipe.NewOllamaSuggester(ollama.NewClient(cfg.OllamaHost), cfg.OllamaTextModel)
}
