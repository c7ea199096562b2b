package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer string // Issuer claim for tokens and base for discovery URLs (default: http://localhost:8080)

	DatabaseDSN string // SQLite DSN; state is volatile by default (default: :memory:)

	BackendURL string // Upstream tool host JSON-RPC endpoint; empty uses the built-in catalog

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)

	AllowAutoRegister bool // Unknown client_id at /authorize registers itself (default: true)
	RequireAuth       bool // Protocol endpoints require a bearer token (default: false)

	CodeTTL             time.Duration // Authorization code lifetime (default: 10m)
	AccessTokenTTL      time.Duration // Access token lifetime (default: 60m)
	SessionIdleTTL      time.Duration // Protocol session idle eviction threshold (default: 30m)
	SweepInterval       time.Duration // Housekeeping and session sweep period (default: 5m)
	Heartbeat           time.Duration // SSE heartbeat period (default: 15s)
	ToolCallTimeout     time.Duration // Bound on each tools/call (default: 30s)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Issuer:      getEnvOrDefault("GATEWAY_ISSUER", "http://localhost:8080"),
		DatabaseDSN: getEnvOrDefault("GATEWAY_DATABASE_DSN", ":memory:"),

		BackendURL: os.Getenv("GATEWAY_BACKEND_URL"),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),

		AllowAutoRegister: getEnvBoolOrDefault("AUTH_ALLOW_AUTO_REGISTER", true),
		RequireAuth:       getEnvBoolOrDefault("AUTH_REQUIRE_AUTH", false),

		CodeTTL:             getEnvDurationOrDefault("AUTH_CODE_TTL", 10*time.Minute),
		AccessTokenTTL:      getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", 60*time.Minute),
		SessionIdleTTL:      getEnvDurationOrDefault("SESSION_IDLE_TTL", 30*time.Minute),
		SweepInterval:       getEnvDurationOrDefault("SWEEP_INTERVAL", 5*time.Minute),
		Heartbeat:           getEnvDurationOrDefault("SSE_HEARTBEAT", 15*time.Second),
		ToolCallTimeout:     getEnvDurationOrDefault("TOOL_CALL_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
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

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
