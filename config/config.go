package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	StorageBackendDisk = "disk"
	StorageBackendS3   = "s3"

	minSessionKeyLength   = 32
	placeholderSessionKey = "this is a long key"
)

// Config is read from environment variables (and optional .env files).
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"portfolio"`
	BindAddress string `env:"BIND_ADDRESS" envDefault:"0.0.0.0:8080"`
	TLSDomains  string `env:"TLS_DOMAINS"` // e.g. "example.com,example2.com"
	DebugMode   bool   `env:"DEBUG_MODE" envDefault:"false"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// MySQL will be used if this is set, SQLite otherwise
	MySQLDSN   string `env:"MYSQL_DSN"`
	SQLiteFile string `env:"SQLITE_FILE" envDefault:"portfolio.db"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"disk"`
	MediaFolder    string `env:"MEDIA_FOLDER" envDefault:"albums"`
	DiskPath       string `env:"DISK_STORAGE_PATH" envDefault:"./media"`
	DiskPublicURL  string `env:"DISK_PUBLIC_URL" envDefault:"/media"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3Key          string `env:"S3_KEY"`
	S3Secret       string `env:"S3_SECRET"`
	S3PublicURL    string `env:"S3_PUBLIC_URL"`
	S3UsePathStyle bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`

	MaxFileBytes   int64 `env:"MAX_FILE_BYTES" envDefault:"10485760"`   // 10MB
	MaxAlbumBytes  int64 `env:"MAX_ALBUM_BYTES" envDefault:"209715200"` // 200MB
	MaxAlbumImages int   `env:"MAX_ALBUM_IMAGES" envDefault:"100"`
	MinTitleLength int   `env:"MIN_TITLE_LENGTH" envDefault:"3"`

	Attempts         int           `env:"UPLOAD_ATTEMPTS" envDefault:"3"`
	RetryBackoff     time.Duration `env:"RETRY_BACKOFF" envDefault:"1s"`
	BatchSize        int           `env:"BATCH_SIZE" envDefault:"5"`
	StoreTimeout     time.Duration `env:"STORE_TIMEOUT" envDefault:"60s"`
	RemoveTimeout    time.Duration `env:"REMOVE_TIMEOUT" envDefault:"30s"`
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT" envDefault:"60s"`

	AuthRequired  bool     `env:"AUTH_REQUIRED" envDefault:"true"`
	SessionKey    string   `env:"SESSION_KEY"`
	SessionMaxAge int      `env:"SESSION_MAX_AGE" envDefault:"86400"` // 24 hours
	CORSOrigins   []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// Used to create the initial admin account on startup
	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
}

// LoadEnvFiles overloads the process environment with .env files, if present.
func LoadEnvFiles(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env", "../.env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3Key = strings.TrimSpace(cfg.S3Key)
	cfg.S3Secret = strings.TrimSpace(cfg.S3Secret)
	cfg.MediaFolder = strings.Trim(cfg.MediaFolder, "/ ")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageBackendDisk:
		if c.DiskPath == "" {
			return errors.New("DISK_STORAGE_PATH is required for the disk storage backend")
		}
	case StorageBackendS3:
		if c.S3Bucket == "" || c.S3Key == "" || c.S3Secret == "" {
			return errors.New("S3_BUCKET, S3_KEY and S3_SECRET are required for the s3 storage backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of 'disk' or 's3', got %q", c.StorageBackend)
	}
	if c.Attempts < 1 {
		return errors.New("UPLOAD_ATTEMPTS must be at least 1")
	}
	if c.BatchSize < 1 {
		return errors.New("BATCH_SIZE must be at least 1")
	}
	if c.MaxFileBytes <= 0 || c.MaxAlbumBytes <= 0 {
		return errors.New("MAX_FILE_BYTES and MAX_ALBUM_BYTES must be positive")
	}
	if c.AuthRequired && (c.SessionKey == placeholderSessionKey || len(c.SessionKey) < minSessionKeyLength) {
		return fmt.Errorf("SESSION_KEY must be set to a random value of at least %d characters when AUTH_REQUIRED is on", minSessionKeyLength)
	}
	return nil
}

// IsMySQL reports whether the record store should use MySQL rather than SQLite.
func (c *Config) IsMySQL() bool {
	return c.MySQLDSN != ""
}
