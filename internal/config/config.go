package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. The CLI only reads the comparison
// fields; the API server uses all of them.
type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	CompareTimeout     time.Duration
	MaxRequestBodySize int64
	MaxBatchSize       int

	// Comparison defaults
	OutputDir           string
	Tolerance           float64
	AcceptanceThreshold float64
	Strategy            string

	// Optional Azure blob source credentials
	AzureAccountName string
	AzureAccountKey  string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv builds a Config from the environment. A .env file in the
// working directory is honored when present but never required.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:                getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                getEnvOrDefault("PORT", "8080"),
		RequestTimeout:      parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:   parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		CompareTimeout:      parseDurationOrDefault("COMPARE_TIMEOUT", 20*time.Second),
		MaxRequestBodySize:  parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 1*1024*1024), // 1MB of JSON
		MaxBatchSize:        int(parseIntOrDefault("MAX_BATCH_SIZE", 16)),
		OutputDir:           getEnvOrDefault("OUTPUT_DIR", "./output"),
		Tolerance:           parseFloatOrDefault("DIFF_TOLERANCE", 0.1),
		AcceptanceThreshold: parseFloatOrDefault("ACCEPTANCE_THRESHOLD", 95.0),
		Strategy:            getEnvOrDefault("DIFF_STRATEGY", "perceptual"),
		AzureAccountName:    os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:     os.Getenv("AZURE_ACCOUNT_KEY"),
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.MaxBatchSize <= 0 {
		return nil, fmt.Errorf("MAX_BATCH_SIZE must be > 0 (got %d)", cfg.MaxBatchSize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.CompareTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, compare=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.CompareTimeout)
	}
	if cfg.Tolerance < 0 || cfg.Tolerance > 1 {
		return nil, fmt.Errorf("DIFF_TOLERANCE must be within [0,1] (got %v)", cfg.Tolerance)
	}
	if cfg.AcceptanceThreshold < 0 || cfg.AcceptanceThreshold > 100 {
		return nil, fmt.Errorf("ACCEPTANCE_THRESHOLD must be within [0,100] (got %v)", cfg.AcceptanceThreshold)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
