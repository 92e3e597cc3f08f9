package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	S3        S3Config
	Storage   StorageConfig
	Redis     RedisConfig
	Media     MediaConfig
	Bootstrap BootstrapConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	URL      string // postgres://... ; takes precedence over the fields below
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

// StorageConfig selects the object storage backend for ingested media.
type StorageConfig struct {
	Driver       string // s3, local
	LocalDir     string
	LocalBaseURL string
	CacheControl string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Channel  string
}

// Enabled reports whether an invalidation bus is configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type MediaConfig struct {
	MaxDimension   int
	Quality        int
	MaxUploadBytes int64
	MaxPixels      int64
	SniffContent   bool
}

// BootstrapConfig gates the one-shot first admin provisioning endpoint.
// Disable it (or unset the secret) once the first admin exists.
type BootstrapConfig struct {
	Enabled bool
	Secret  string
}

type SchedulerConfig struct {
	ModerationBacklogSpec string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "shopfront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m")),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			Bucket:          getEnv("AWS_S3_BUCKET", "shopfront-product-images"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Storage: StorageConfig{
			Driver:       getEnv("STORAGE_DRIVER", "local"),
			LocalDir:     getEnv("STORAGE_LOCAL_DIR", "./uploads"),
			LocalBaseURL: getEnv("STORAGE_LOCAL_BASE_URL", "http://localhost:8080/uploads"),
			CacheControl: getEnv("STORAGE_CACHE_CONTROL", "public, max-age=3600"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			Channel:  getEnv("REDIS_INVALIDATION_CHANNEL", "storefront:invalidations"),
		},
		Media: MediaConfig{
			MaxDimension:   parseInt(getEnv("MEDIA_MAX_DIMENSION", "1200"), 1200),
			Quality:        parseInt(getEnv("MEDIA_QUALITY", "80"), 80),
			MaxUploadBytes: int64(parseInt(getEnv("MEDIA_MAX_UPLOAD_BYTES", "10485760"), 10<<20)),
			MaxPixels:      int64(parseInt(getEnv("MEDIA_MAX_PIXELS", "40000000"), 40_000_000)),
			SniffContent:   parseBool(getEnv("MEDIA_SNIFF_CONTENT", "true")),
		},
		Bootstrap: BootstrapConfig{
			Enabled: parseBool(getEnv("BOOTSTRAP_ENABLED", "false")),
			Secret:  getEnv("BOOTSTRAP_SECRET", ""),
		},
		Scheduler: SchedulerConfig{
			ModerationBacklogSpec: getEnv("MODERATION_BACKLOG_CRON", "@every 5m"),
		},
	}

	if config.Bootstrap.Enabled && config.Bootstrap.Secret == "" {
		return nil, fmt.Errorf("BOOTSTRAP_SECRET is required when BOOTSTRAP_ENABLED is true")
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default 15m", s)
		return 15 * time.Minute
	}
	return duration
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return v
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return v
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
