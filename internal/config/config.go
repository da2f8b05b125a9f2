// Package config reads the service settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BlobBackendLocal = "local"
	BlobBackendS3    = "s3"
)

// Config holds every runtime setting.
type Config struct {
	Port         string
	DatabasePath string
	JWTSecret    string
	BcryptCost   int
	CookieSecure bool
	LogLevel     slog.Level

	BlobBackend  string
	BlobRoot     string
	MediaBaseURL string
	S3           S3

	ImageMaxDimension int

	AdminEmail    string
	AdminPassword string
	AdminName     string

	LoginRatePerMinute int
}

// S3 holds the object storage settings used when BlobBackend is s3.
type S3 struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads dotenvPath unless APP_ENV is production and then parses the
// environment. Non-empty environment variables win over the file. A
// missing file is not an error.
func Load(dotenvPath string) (*Config, error) {
	file := map[string]string{}
	if os.Getenv("APP_ENV") != "production" {
		m, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			file = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", dotenvPath, err)
		}
	}

	return Parse(func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return file[key]
	})
}

// Parse builds a Config from getenv and validates it.
func Parse(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:         get("PORT", "8080"),
		DatabasePath: get("DATABASE_PATH", "design-catalog.db"),
		JWTSecret:    getenv("JWT_SECRET"),
		// Default to secure cookies; disable only for local development.
		CookieSecure: get("COOKIE_SECURE", "true") != "false",
		BlobBackend:  strings.ToLower(get("BLOB_BACKEND", BlobBackendLocal)),
		BlobRoot:     get("BLOB_ROOT", "media"),
		MediaBaseURL: strings.TrimRight(get("MEDIA_BASE_URL", "/media"), "/"),
		S3: S3{
			Bucket:          get("S3_BUCKET", ""),
			Region:          get("S3_REGION", "us-east-1"),
			Endpoint:        get("S3_ENDPOINT", ""),
			AccessKeyID:     get("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getenv("S3_SECRET_ACCESS_KEY"),
		},
		AdminEmail:    get("ADMIN_EMAIL", ""),
		AdminPassword: getenv("ADMIN_PASSWORD"),
		AdminName:     get("ADMIN_NAME", "Administrator"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}

	var err error
	if cfg.BcryptCost, err = intIn(get("BCRYPT_COST", "12"), "BCRYPT_COST", 4, 14); err != nil {
		return nil, err
	}
	if cfg.ImageMaxDimension, err = intIn(get("IMAGE_MAX_DIMENSION", "2560"), "IMAGE_MAX_DIMENSION", 0, 20000); err != nil {
		return nil, err
	}
	if cfg.LoginRatePerMinute, err = intIn(get("LOGIN_RATE_PER_MINUTE", "10"), "LOGIN_RATE_PER_MINUTE", 1, 10000); err != nil {
		return nil, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch cfg.BlobBackend {
	case BlobBackendLocal:
	case BlobBackendS3:
		if cfg.S3.Bucket == "" {
			return nil, errors.New("S3_BUCKET is required when BLOB_BACKEND is s3")
		}
		if (cfg.S3.AccessKeyID == "") != (cfg.S3.SecretAccessKey == "") {
			return nil, errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
		}
	default:
		return nil, fmt.Errorf("BLOB_BACKEND must be %q or %q, got %q", BlobBackendLocal, BlobBackendS3, cfg.BlobBackend)
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		return nil, errors.New("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	return cfg, nil
}

func intIn(v, key string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", key, lo, hi, n)
	}
	return n, nil
}
