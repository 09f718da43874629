// Package config provides application configuration management.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Backend connection
	ServerURL             string
	APIToken              string
	UserID                string
	RequestTimeout        time.Duration
	InsecureSkipTLSVerify bool

	// Streaming
	StreamIdleTimeout time.Duration
	TopK              int
	MinScore          float64

	// Job synchronization
	PollInterval time.Duration

	// Metadata suggestion
	SuggestCacheTTL    time.Duration
	SuggestConcurrency int

	// Logging / diagnostics
	LogLevel    string
	LogFile     string
	MetricsAddr string
}

// Load loads configuration from environment variables with defaults.
// A .env file in the working directory is read first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment overrides from .env")
	}
	return &Config{
		ServerURL:             getEnv("AIDOC_SERVER_URL", "http://localhost:8000"),
		APIToken:              os.Getenv("AIDOC_API_TOKEN"),
		UserID:                getEnv("AIDOC_USER_ID", ""),
		RequestTimeout:        getEnvDuration("AIDOC_REQUEST_TIMEOUT", 30*time.Second),
		InsecureSkipTLSVerify: getEnvBool("AIDOC_TLS_INSECURE_SKIP_VERIFY", false),
		StreamIdleTimeout:     getEnvDuration("AIDOC_STREAM_IDLE_TIMEOUT", 90*time.Second),
		TopK:                  getEnvInt("AIDOC_TOP_K", 5),
		MinScore:              getEnvFloat("AIDOC_MIN_SCORE", 0),
		PollInterval:          getEnvDuration("AIDOC_POLL_INTERVAL", 3*time.Second),
		SuggestCacheTTL:       getEnvDuration("AIDOC_SUGGEST_CACHE_TTL", time.Hour),
		SuggestConcurrency:    getEnvInt("AIDOC_SUGGEST_CONCURRENCY", 4),
		LogLevel:              getEnv("AIDOC_LOG_LEVEL", "info"),
		LogFile:               getEnv("AIDOC_LOG_FILE", ""),
		MetricsAddr:           getEnv("AIDOC_METRICS_ADDR", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s: %s, using default %s", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid float for %s: %s, using default %f", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s: %s, using default %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "1", "true", "yes", "y":
			return true
		case "0", "false", "no", "n":
			return false
		default:
			log.Printf("Invalid bool for %s: %s, using default %t", key, value, defaultValue)
		}
	}
	return defaultValue
}
