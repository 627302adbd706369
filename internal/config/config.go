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
	NodeEnv   string
	Port      string
	JWTSecret string
	LogLevel  string
	Database  DatabaseConfig
	Storage   StorageConfig
	Documents DocumentConfig
	Redis     RedisConfig
	AI        AIConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// StorageConfig selects the blob backend and the containers artifacts go to
type StorageConfig struct {
	Driver        string // local | s3
	LocalDir      string
	PublicBaseURL string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool

	TemplatesContainer  string
	PreviewsContainer   string
	SignaturesContainer string

	ImageFetchTimeout time.Duration
}

// DocumentConfig holds numbering and formatting defaults
type DocumentConfig struct {
	DefaultCurrency string
	DefaultLocale   string

	InvoicePrefix   string
	ReceiptPrefix   string
	QuotationPrefix string
	SequenceScope   string // continuous | monthly

	NormalizeTemplateRuns bool
	VerifyBaseURL         string
}

// RedisConfig enables the distributed numbering lock when Addr is set
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// AIConfig holds voice extraction settings
type AIConfig struct {
	GeminiAPIKey string
	GeminiModel  string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "3001"),
		JWTSecret: jwtSecret,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "eckdocs"),
			Alter:    getEnv("DB_ALTER", "false") == "true",
		},
		Storage: StorageConfig{
			Driver:              strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			LocalDir:            getEnv("STORAGE_LOCAL_DIR", "./storage"),
			PublicBaseURL:       getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:3001/files"),
			S3Bucket:            os.Getenv("S3_BUCKET"),
			S3Region:            getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:          os.Getenv("S3_ENDPOINT"),
			S3PathStyle:         getEnv("S3_PATH_STYLE", "false") == "true",
			TemplatesContainer:  getEnv("TEMPLATES_CONTAINER", "doc-templates"),
			PreviewsContainer:   getEnv("PREVIEWS_CONTAINER", "doc-previews"),
			SignaturesContainer: getEnv("SIGNATURES_CONTAINER", "document-signatures"),
			ImageFetchTimeout:   getDuration("IMAGE_FETCH_TIMEOUT", 5*time.Second),
		},
		Documents: DocumentConfig{
			DefaultCurrency:       strings.ToUpper(getEnv("DEFAULT_CURRENCY", "KES")),
			DefaultLocale:         getEnv("DEFAULT_LOCALE", "en-KE"),
			InvoicePrefix:         getEnv("INVOICE_PREFIX", "INV-"),
			ReceiptPrefix:         getEnv("RECEIPT_PREFIX", "RCPT-"),
			QuotationPrefix:       getEnv("QUOTATION_PREFIX", "QUO-"),
			SequenceScope:         strings.ToLower(getEnv("NUMBERING_SEQUENCE_SCOPE", "continuous")),
			NormalizeTemplateRuns: getEnv("NORMALIZE_TEMPLATE_RUNS", "true") == "true",
			VerifyBaseURL:         os.Getenv("DOCUMENT_VERIFY_BASE_URL"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
			LockTTL:  getDuration("REDIS_LOCK_TTL", 10*time.Second),
		},
		AI: AIConfig{
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
	}

	switch cfg.Storage.Driver {
	case "local", "s3":
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == "s3" && cfg.Storage.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
	}

	return cfg, nil
}

// IsProduction reports whether NODE_ENV is production
func (c *Config) IsProduction() bool {
	return c.NodeEnv == "production"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

// getDuration accepts Go durations ("5s") or plain seconds ("5")
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}
