// Package config loads runtime configuration from environment
// variables, with defaults suitable for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig
	Images    ImageStorageConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// AuthConfig configures the bearer-session auth adapter and the CSRF
// trusted-origin check (spec.md section 6).
type AuthConfig struct {
	Secret          string
	BaseURL         string
	TrustedOrigins  []string
	IPHeader        string
}

// SchedulerConfig tunes the deferred-command ticker (component H).
type SchedulerConfig struct {
	TickInterval   time.Duration
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	MaxAttempts    int
	BatchSize      int
}

// ImageStorageConfig holds credentials for the external image storage
// adapter (interface only per spec.md section 6 - no implementation
// lives in this core).
type ImageStorageConfig struct {
	Bucket      string
	Region      string
	AccessKey   string
	SecretKey   string
	CDNBaseURL  string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "commerce"),
			Password: getEnv("DB_PASSWORD", "commerce"),
			Database: getEnv("DB_NAME", "commerce"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			Secret:         getEnv("AUTH_SECRET", "dev-secret-change-in-prod"),
			BaseURL:        getEnv("AUTH_BASE_URL", "http://localhost:8080"),
			TrustedOrigins: getEnvSlice("AUTH_TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
			IPHeader:       getEnv("AUTH_IP_HEADER", "X-Forwarded-For"),
		},
		Scheduler: SchedulerConfig{
			TickInterval:   getEnvDuration("SCHEDULER_TICK_INTERVAL", 5*time.Second),
			RetryBaseDelay: getEnvDuration("SCHEDULER_RETRY_BASE_DELAY", 2*time.Second),
			RetryMaxDelay:  getEnvDuration("SCHEDULER_RETRY_MAX_DELAY", 5*time.Minute),
			MaxAttempts:    getEnvInt("SCHEDULER_MAX_ATTEMPTS", 8),
			BatchSize:      getEnvInt("SCHEDULER_BATCH_SIZE", 50),
		},
		Images: ImageStorageConfig{
			Bucket:     getEnv("IMAGE_STORAGE_BUCKET", ""),
			Region:     getEnv("IMAGE_STORAGE_REGION", ""),
			AccessKey:  getEnv("IMAGE_STORAGE_ACCESS_KEY", ""),
			SecretKey:  getEnv("IMAGE_STORAGE_SECRET_KEY", ""),
			CDNBaseURL: getEnv("IMAGE_STORAGE_CDN_BASE_URL", ""),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, v := range splitAndTrim(value, ",") {
			if v != "" {
				result = append(result, v)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var result []string
	for _, part := range splitString(s, sep) {
		trimmed := trimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func splitString(s, sep string) []string {
	if s == "" {
		return nil
	}
	var result []string
	start := 0
	for i := 0; i <= len(s)-len(sep); i++ {
		if s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i += len(sep) - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}
