package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	AppPort string `envconfig:"APP_PORT" default:"8080"`
	AppEnv  string `envconfig:"APP_ENV" default:"development"`

	// Database
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName     string `envconfig:"DB_NAME" default:"salespilots"`
	DBURL      string `envconfig:"DB_URL"`

	// Redis
	RedisURL      string `envconfig:"REDIS_URL" default:"redis://localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`

	// Meta platform (Instagram/WhatsApp webhooks + Graph send API)
	MetaPageToken   string `envconfig:"META_PAGE_TOKEN"`
	MetaVerifyToken string `envconfig:"META_VERIFY_TOKEN"`
	MetaAppSecret   string `envconfig:"META_APP_SECRET"` // Enables X-Hub-Signature-256 verification when set
	MetaAppID       string `envconfig:"META_APP_ID"`
	MetaPageID      string `envconfig:"META_PAGE_ID"`

	// AI collaborator
	AIAPIKey      string        `envconfig:"AI_API_KEY"`
	AIModel       string        `envconfig:"AI_MODEL" default:"claude-3-5-haiku-20241022"`
	AIBaseURL     string        `envconfig:"AI_BASE_URL" default:"https://api.anthropic.com"`
	AITimeout     time.Duration `envconfig:"AI_TIMEOUT" default:"8s"`
	VisionTimeout time.Duration `envconfig:"VISION_TIMEOUT" default:"12s"`

	// Pipeline
	EventBudget time.Duration `envconfig:"EVENT_BUDGET" default:"10s"` // Wall-clock budget per webhook event
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	ReceiptDir  string        `envconfig:"RECEIPT_DIR" default:"receipts"`
}

var instance *Config

// Load initializes and returns the singleton Config instance
func Load() (*Config, error) {
	if instance != nil {
		return instance, nil
	}

	// Load .env file if it exists (for local development)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment variables: %w", err)
	}

	// Check for the hosting platform's DATABASE_URL if DB_URL is not set
	if cfg.DBURL == "" {
		if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
			cfg.DBURL = databaseURL
		}
	}

	// Build DBURL if still not provided
	if cfg.DBURL == "" {
		cfg.DBURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}

	instance = cfg
	return instance, nil
}

// Get returns the singleton Config instance (must call Load first)
func Get() *Config {
	if instance == nil {
		panic("config not loaded: call config.Load() first")
	}
	return instance
}
