package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Remote backend selectors.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	Remote     RemoteConfig
	MongoDB    MongoDBConfig
	Postgres   PostgresConfig
	LocalStore LocalStoreConfig
	Products   ProductsConfig
	Sheets     SheetsConfig
	AI         AIConfig
	Autosave   AutosaveConfig
	Limits     LimitsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// RemoteConfig selects and bounds the remote store backend.
type RemoteConfig struct {
	Backend      string
	WriteTimeout time.Duration
}

// MongoDBConfig holds settings for the document-store backend.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// PostgresConfig holds settings for the relational backend.
type PostgresConfig struct {
	DSN string
}

// LocalStoreConfig holds the durable local store location.
type LocalStoreConfig struct {
	Path string
}

// ProductsConfig points at the product reference file; empty means the
// built-in catalog.
type ProductsConfig struct {
	Path string
}

// SheetsConfig configures the optional supervisor roll-up export sink.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// AIConfig holds settings for the insight generator.
type AIConfig struct {
	AnthropicKey string
}

// AutosaveConfig holds the draft timer and re-sync scheduling.
type AutosaveConfig struct {
	Interval       time.Duration
	ResyncSchedule string
	Timezone       string
}

// LimitsConfig bounds operator input before clamping.
type LimitsConfig struct {
	MaxFlourKgPerProduct float64
	MaxSaleUGX           float64
	MaxAdjustmentUGX     float64
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

	writeTimeout, err := time.ParseDuration(getenvWithDefault("REMOTE_WRITE_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMOTE_WRITE_TIMEOUT: %w", err)
	}
	autosaveInterval, err := time.ParseDuration(getenvWithDefault("AUTOSAVE_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTOSAVE_INTERVAL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Remote: RemoteConfig{
			Backend:      getenvWithDefault("REMOTE_BACKEND", BackendMongo),
			WriteTimeout: writeTimeout,
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "bakeledger"),
		},
		Postgres: PostgresConfig{
			DSN: getenvWithDefault("POSTGRES_DSN", "postgres://localhost/bakeledger?sslmode=disable"),
		},
		LocalStore: LocalStoreConfig{
			Path: getenvWithDefault("LOCAL_STORE_PATH", "data/bakeledger.db"),
		},
		Products: ProductsConfig{
			Path: os.Getenv("PRODUCTS_PATH"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_ROLLUP_ID"),
		},
		AI: AIConfig{
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		},
		Autosave: AutosaveConfig{
			Interval:       autosaveInterval,
			ResyncSchedule: getenvWithDefault("RESYNC_CRON_SCHEDULE", "0 2 * * *"),
			Timezone:       getenvWithDefault("TIMEZONE", "Africa/Kampala"),
		},
		Limits: LimitsConfig{
			MaxFlourKgPerProduct: getenvFloat("MAX_FLOUR_KG_PER_PRODUCT", 500),
			MaxSaleUGX:           getenvFloat("MAX_SALE_UGX", 10_000_000),
			MaxAdjustmentUGX:     getenvFloat("MAX_ADJUSTMENT_UGX", 5_000_000),
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

	switch c.Remote.Backend {
	case BackendMongo:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("POSTGRES_DSN must be provided")
		}
	case BackendNone:
		// Offline-only deployment; the re-sync job becomes a no-op.
	default:
		return fmt.Errorf("unknown REMOTE_BACKEND %q", c.Remote.Backend)
	}

	if c.Remote.WriteTimeout <= 0 {
		return errors.New("REMOTE_WRITE_TIMEOUT must be positive")
	}

	if c.LocalStore.Path == "" {
		return errors.New("LOCAL_STORE_PATH must be provided")
	}

	if c.Autosave.Interval <= 0 {
		return errors.New("AUTOSAVE_INTERVAL must be positive")
	}
	if c.Autosave.ResyncSchedule == "" {
		return errors.New("RESYNC_CRON_SCHEDULE must be provided")
	}
	if c.Autosave.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	// Sheets export and the AI key are optional; the services are simply
	// disabled when absent.
	if c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID == "" {
		return errors.New("GOOGLE_SHEET_ROLLUP_ID must be provided when sheets credentials are set")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
