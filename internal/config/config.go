package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Sheets    SheetsConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Blob      BlobConfig
	JWT       JWTConfig
	LLM       LLMConfig
	Vault     VaultConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	App       AppConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string
	Port         string
	TimeoutRead  time.Duration
	TimeoutWrite time.Duration
	TimeoutIdle  time.Duration
}

// SheetsConfig holds the Google Sheets backend configuration. The record
// store uses the spreadsheet backend only when both the spreadsheet ID and
// a service-account credential are configured.
type SheetsConfig struct {
	SpreadsheetID      string
	ServiceAccountJSON string // raw JSON or a file path
}

// DatabaseConfig holds the optional Postgres backend configuration
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// StorageConfig holds the local file-store fallback configuration
type StorageConfig struct {
	DataDir string
}

// BlobConfig holds the attachment blob-storage configuration. Uploads are
// disabled when the bucket name is empty; attachments are then inlined.
type BlobConfig struct {
	Bucket        string
	PublicBaseURL string
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// LLMConfig holds language-model collaborator configuration
type LLMConfig struct {
	BaseURL string
	Model   string
	Enabled bool
	Timeout time.Duration
}

// VaultConfig holds the optional Vault secret-source configuration
type VaultConfig struct {
	Address   string
	Token     string
	KVMount   string
	SecretKey string
	Enabled   bool
}

// RateLimitConfig holds rate-limiting configuration
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Duration time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// AppConfig holds general application configuration
type AppConfig struct {
	Env     string
	Name    string
	Version string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// godotenv doesn't override already-set variables, so order matters
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnv("SERVER_PORT", "8080"),
			TimeoutRead:  getDurationEnv("SERVER_TIMEOUT_READ", 15*time.Second),
			TimeoutWrite: getDurationEnv("SERVER_TIMEOUT_WRITE", 15*time.Second),
			TimeoutIdle:  getDurationEnv("SERVER_TIMEOUT_IDLE", 60*time.Second),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:      getEnv("GSHEET_ID", ""),
			ServiceAccountJSON: getEnv("GCP_SERVICE_ACCOUNT", ""),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DB_DSN", ""),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Storage: StorageConfig{
			DataDir: getEnv("DATA_DIR", "./data"),
		},
		Blob: BlobConfig{
			Bucket:        getEnv("BLOB_BUCKET", ""),
			PublicBaseURL: getEnv("BLOB_PUBLIC_BASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getDurationEnv("JWT_EXPIRATION", 24*time.Hour),
		},
		LLM: LLMConfig{
			BaseURL: getEnv("LLM_BASE_URL", "http://localhost:11434"),
			Model:   getEnv("LLM_MODEL", "llama3"),
			Enabled: getBoolEnv("LLM_ENABLED", false),
			Timeout: getDurationEnv("LLM_TIMEOUT", 15*time.Second),
		},
		Vault: VaultConfig{
			Address:   getEnv("VAULT_ADDR", "http://localhost:8200"),
			Token:     getEnv("VAULT_TOKEN", ""),
			KVMount:   getEnv("VAULT_KV_MOUNT", "secret"),
			SecretKey: getEnv("VAULT_SECRET_PATH", "bilimbagdar"),
			Enabled:   getBoolEnv("VAULT_ENABLED", false),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getBoolEnv("RATE_LIMIT_ENABLED", true),
			Requests: getIntEnv("RATE_LIMIT_REQUESTS", 100),
			Duration: getDurationEnv("RATE_LIMIT_DURATION", time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
			AllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		},
		App: AppConfig{
			Env:     getEnv("APP_ENV", "development"),
			Name:    getEnv("APP_NAME", "BilimBagdar"),
			Version: getEnv("APP_VERSION", "1.0.0"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Env == "production" && c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.Sheets.SpreadsheetID != "" && c.Sheets.ServiceAccountJSON == "" && !c.Vault.Enabled {
		return fmt.Errorf("GCP_SERVICE_ACCOUNT is required when GSHEET_ID is set")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, v := range parts {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
