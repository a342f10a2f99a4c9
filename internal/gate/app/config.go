package app

import (
	"os"
	"strconv"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/gate/service"
	"github.com/gatehouselabs/gatehouse/pkg/tokenx"
)

type Config struct {
	DatabaseFile     string // Optional: path to SQLite database file (default: ./gate.db)
	MasterSecretFile string // Optional: path to the digest master secret file (default: ./secret)
	RedisAddr        string // Optional: Redis address; empty means in-process counters

	PrefixLength      int           // Optional: access token lookup prefix length (default: 20)
	MaxFailedAttempts int           // Optional: failures per IP before blocking (default: 5)
	BlockDuration     time.Duration // Optional: brute-force window and block length (default: 15m)
	RateLimitWindow   time.Duration // Optional: per-user request window (default: 15m)
	ResolveTimeout    time.Duration // Optional: bound on session resolution (default: 5s)

	DefaultRequestLimit int // Optional: per-user requests per window (default: 300)
	AdminRequestLimit   int // Optional: elevated ceiling for the admin role (default: 1000)
	StreamRequestLimit  int // Optional: reduced ceiling for handshake routes (default: 60)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		DatabaseFile:     getEnvOrDefault("GATE_DATABASE_FILE", "gate.db"),
		MasterSecretFile: getEnvOrDefault("GATE_MASTER_SECRET_FILE", "secret"),
		RedisAddr:        os.Getenv("GATE_REDIS_ADDR"),

		PrefixLength:      getEnvIntOrDefault("GATE_PREFIX_LENGTH", tokenx.DefaultPrefixLength),
		MaxFailedAttempts: getEnvIntOrDefault("GATE_MAX_FAILED_ATTEMPTS", service.DefaultMaxFailedAttempts),
		BlockDuration:     getEnvDurationOrDefault("GATE_BLOCK_DURATION", service.DefaultBlockDuration),
		RateLimitWindow:   getEnvDurationOrDefault("GATE_RATE_LIMIT_WINDOW", service.DefaultRateLimitWindow),
		ResolveTimeout:    getEnvDurationOrDefault("GATE_RESOLVE_TIMEOUT", service.DefaultResolveTimeout),

		DefaultRequestLimit: getEnvIntOrDefault("GATE_REQUEST_LIMIT", 300),
		AdminRequestLimit:   getEnvIntOrDefault("GATE_ADMIN_REQUEST_LIMIT", 1000),
		StreamRequestLimit:  getEnvIntOrDefault("GATE_STREAM_REQUEST_LIMIT", 60),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
