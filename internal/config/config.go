// Package config provides configuration management for kith.
// It loads settings from environment variables with the KITH_ prefix (a
// .env file is honored when present) and provides sensible defaults for
// all configuration options.
//
// User settings (e.g., user_name) are persisted to the settings table in
// the database. LoadConfigFromDB reads from the database first and falls
// back to environment variables. SaveConfig writes user settings to the
// database.
package config

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration settings for the kith application.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Security SecurityConfig
	Engine   EngineConfig
	Notify   NotifyConfig
	User     UserConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 6464)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory for sqlite (default: ./data)
	PostgresDSN   string // Postgres connection string (used when engine is postgres)
}

// LLMConfig contains extraction-provider configuration.
type LLMConfig struct {
	Provider     string // LLM provider: ollama, openai (default: ollama)
	OllamaURL    string // Ollama API URL (default: http://localhost:11434)
	OllamaModel  string // Ollama model name for extraction (default: qwen2.5:7b)
	OpenAIAPIKey string // OpenAI API key
	OpenAIModel  string // OpenAI model name (default: gpt-4o-mini)
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // API authentication token
}

// EngineConfig contains reconciliation-engine tuning.
type EngineConfig struct {
	WorkerCount int // Suggestion worker goroutines (default: 1)
	QueueSize   int // Suggestion queue capacity (default: 16)
}

// NotifyConfig contains reminder and event-stream settings.
type NotifyConfig struct {
	EventsPath string // Directory for commit event files (default: ./data/events)
}

// UserConfig contains user-specific settings that persist across restarts.
// These settings are stored in the settings table in the database.
type UserConfig struct {
	// UserName is the display name for the user.
	// Env var: KITH_USER_NAME
	// Database key: user_name
	UserName string
}

// LoadConfig loads configuration from environment variables with sensible
// defaults, loading a .env file first when one exists in the working
// directory. All environment variables use the KITH_ prefix.
func LoadConfig() (*Config, error) {
	// Missing .env is the normal case; real env vars win over file values.
	_ = godotenv.Load()
	return buildBaseConfig(), nil
}

// LoadConfigFromDB loads configuration from both environment variables and
// the database. The database value takes precedence over the environment
// variable for user settings.
//
// Returns an error if db is nil.
func LoadConfigFromDB(db *sql.DB) (*Config, error) {
	if db == nil {
		return nil, errors.New("config: database connection is required")
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	userName, err := getSetting(db, "user_name")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("config: failed to load user_name from database: %w", err)
	}
	if userName != "" {
		cfg.User.UserName = userName
	}

	return cfg, nil
}

// SaveConfig persists user configuration settings to the settings table with
// upsert semantics, so they survive application restarts.
//
// Returns an error if db is nil.
func (c *Config) SaveConfig(db *sql.DB) error {
	if db == nil {
		return errors.New("config: database connection is required")
	}

	if err := setSetting(db, "user_name", c.User.UserName); err != nil {
		return fmt.Errorf("config: failed to save user_name: %w", err)
	}

	return nil
}

// getSetting retrieves a single setting value by key from the settings table.
// Returns an empty string and sql.ErrNoRows if the key does not exist.
func getSetting(db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// setSetting writes a key-value pair to the settings table using upsert
// semantics.
func setSetting(db *sql.DB, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// buildBaseConfig constructs a Config with values from environment variables
// and defaults.
func buildBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("KITH_PORT", 6464),
			Host: getEnv("KITH_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			StorageEngine: getEnv("KITH_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("KITH_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("KITH_POSTGRES_DSN", ""),
		},
		LLM: LLMConfig{
			Provider:     getEnv("KITH_LLM_PROVIDER", "ollama"),
			OllamaURL:    getEnv("KITH_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:  getEnv("KITH_OLLAMA_MODEL", "qwen2.5:7b"),
			OpenAIAPIKey: getEnv("KITH_OPENAI_API_KEY", ""),
			OpenAIModel:  getEnv("KITH_OPENAI_MODEL", "gpt-4o-mini"),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("KITH_SECURITY_MODE", "development"),
			APIToken:     getEnv("KITH_API_TOKEN", ""),
		},
		Engine: EngineConfig{
			WorkerCount: getEnvInt("KITH_WORKER_COUNT", 1),
			QueueSize:   getEnvInt("KITH_QUEUE_SIZE", 16),
		},
		Notify: NotifyConfig{
			EventsPath: getEnv("KITH_EVENTS_PATH", "./data/events"),
		},
		User: UserConfig{
			UserName: getEnv("KITH_USER_NAME", ""),
		},
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
