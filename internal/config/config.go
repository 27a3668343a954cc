package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Sync backend selection values.
const (
	BackendRelay = "relay"
	BackendMongo = "mongo"
	BackendLocal = "local"
)

// Config represents the full application configuration surface, shared by the
// relay binary and the device CLI.
type Config struct {
	Server  ServerConfig
	Sync    SyncConfig
	MongoDB MongoDBConfig
	Local   LocalConfig
	Sheets  SheetsConfig
	Cleanup CleanupConfig
}

// ServerConfig holds relay HTTP server options.
type ServerConfig struct {
	Port string
}

// SyncConfig selects the session backend; the three implementations are
// interchangeable behind one interface, chosen here rather than at call
// sites.
type SyncConfig struct {
	Backend  string
	RelayURL string
}

// MongoDBConfig holds settings for the cloud-document backend.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// LocalConfig holds settings for the single-device backend.
type LocalConfig struct {
	DBPath string
}

// SheetsConfig configures the optional Google Sheets catalog source.
type SheetsConfig struct {
	CredentialsPath string
	SourceID        string
}

// CleanupConfig holds the stale-session sweep settings.
type CleanupConfig struct {
	CronSchedule string
	MaxAgeHours  int
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	maxAge, err := strconv.Atoi(getenvWithDefault("SESSION_MAX_AGE_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_MAX_AGE_HOURS must be an integer: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Sync: SyncConfig{
			Backend:  getenvWithDefault("SYNC_BACKEND", BackendRelay),
			RelayURL: getenvWithDefault("RELAY_URL", "http://localhost:8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "stocktake"),
		},
		Local: LocalConfig{
			DBPath: getenvWithDefault("LOCAL_DB_PATH", "stocktake.db"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SourceID:        os.Getenv("GOOGLE_SHEET_SOURCE_ID"),
		},
		Cleanup: CleanupConfig{
			CronSchedule: getenvWithDefault("CLEANUP_CRON_SCHEDULE", "@hourly"),
			MaxAgeHours:  maxAge,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Sync.Backend {
	case BackendRelay:
		if c.Sync.RelayURL == "" {
			return errors.New("RELAY_URL must be provided for the relay backend")
		}
	case BackendMongo:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided for the mongo backend")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided for the mongo backend")
		}
	case BackendLocal:
		if c.Local.DBPath == "" {
			return errors.New("LOCAL_DB_PATH must be provided for the local backend")
		}
	default:
		return fmt.Errorf("SYNC_BACKEND must be one of %s, %s, %s", BackendRelay, BackendMongo, BackendLocal)
	}

	if c.Cleanup.CronSchedule == "" {
		return errors.New("CLEANUP_CRON_SCHEDULE must be provided")
	}
	if c.Cleanup.MaxAgeHours <= 0 {
		return errors.New("SESSION_MAX_AGE_HOURS must be positive")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
