package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string

	DBDriver string
	DBPath   string
	MySQLDSN string

	DocStore      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	VisionBackend     string
	RecipeBackend     string
	OllamaHost        string
	OllamaVisionModel string
	OllamaTextModel   string
	ClaudeAPIKey      string
	ClaudeModel       string
	MinConfidence     float64

	PhotoBackend   string
	PhotoPath      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string

	JWTSecret     string
	SessionTTL    time.Duration
	RemoteTimeout time.Duration

	LogLevel string
	LogFile  string
}

// LoadEnvFile merges variables from a dotenv file into the process
// environment, overriding values already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Overload(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from the environment. Malformed numeric,
// boolean or duration values are reported rather than silently defaulted.
func Load() (*Config, error) {
	p := &parser{}
	cfg := &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBPath:   getEnv("DB_PATH", "/data/pantry.db"),
		MySQLDSN: getEnv("MYSQL_DSN", ""),

		DocStore:      getEnv("DOC_STORE", "sql"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       p.getEnvInt("REDIS_DB", 0),

		VisionBackend:     getEnv("VISION_BACKEND", "ollama"),
		RecipeBackend:     getEnv("RECIPE_BACKEND", "ollama"),
		OllamaHost:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaVisionModel: getEnv("OLLAMA_VISION_MODEL", "llava"),
		OllamaTextModel:   getEnv("OLLAMA_TEXT_MODEL", "llama3.2"),
		ClaudeAPIKey:      getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:       getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		MinConfidence:     p.getEnvFloat("MIN_CONFIDENCE", 0.5),

		PhotoBackend:   getEnv("PHOTO_BACKEND", "local"),
		PhotoPath:      getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "pantry"),
		MinioUseSSL:    p.getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", ""),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		SessionTTL:    p.getEnvDuration("SESSION_TTL", 24*time.Hour),
		RemoteTimeout: p.getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend selections and the settings each one requires.
func (c *Config) Validate() error {
	var errs []error
	oneOf := func(key, val string, allowed ...string) {
		for _, a := range allowed {
			if val == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s must be one of %v, got %q", key, allowed, val))
	}

	oneOf("DB_DRIVER", c.DBDriver, "sqlite", "mysql")
	oneOf("DOC_STORE", c.DocStore, "sql", "redis")
	oneOf("VISION_BACKEND", c.VisionBackend, "ollama", "claude")
	oneOf("RECIPE_BACKEND", c.RecipeBackend, "ollama", "claude")
	oneOf("PHOTO_BACKEND", c.PhotoBackend, "local", "minio")

	if c.DBDriver == "mysql" && c.MySQLDSN == "" {
		errs = append(errs, errors.New("MYSQL_DSN is required when DB_DRIVER=mysql"))
	}
	if (c.VisionBackend == "claude" || c.RecipeBackend == "claude") && c.ClaudeAPIKey == "" {
		errs = append(errs, errors.New("CLAUDE_API_KEY is required for the claude backend"))
	}
	if c.PhotoBackend == "minio" && (c.MinioAccessKey == "" || c.MinioSecretKey == "") {
		errs = append(errs, errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when PHOTO_BACKEND=minio"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("MIN_CONFIDENCE must be between 0 and 1, got %v", c.MinConfidence))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// parser collects conversion errors so Load can report all of them at once.
type parser struct {
	errs []error
}

func (p *parser) getEnvInt(key string, defaultVal int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, val))
		return defaultVal
	}
	return n
}

func (p *parser) getEnvFloat(key string, defaultVal float64) float64 {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid number %q", key, val))
		return defaultVal
	}
	return f
}

func (p *parser) getEnvBool(key string, defaultVal bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid boolean %q", key, val))
		return defaultVal
	}
	return b
}

func (p *parser) getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, val))
		return defaultVal
	}
	return d
}
