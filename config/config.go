package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Ledger configuration
	ContractOwner    string
	SnapshotInterval time.Duration

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Pinning service configuration
	PinAPIURL     string
	PinGatewayURL string
	PinJWT        string

	// Assistant configuration
	AssistantAPIURL string
	AssistantAPIKey string
	AssistantModel  string

	// Rate limiting
	BuyRateLimit  int64
	BuyRateWindow time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Ledger
		ContractOwner:    getEnv("CONTRACT_OWNER", ""),
		SnapshotInterval: getEnvAsDuration("SNAPSHOT_INTERVAL", "1m"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Pinning
		PinAPIURL:     getEnv("PIN_API_URL", "https://api.pinata.cloud/v3"),
		PinGatewayURL: getEnv("PIN_GATEWAY_URL", ""),
		PinJWT:        getEnv("PIN_JWT", ""),

		// Assistant
		AssistantAPIURL: getEnv("ASSISTANT_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
		AssistantAPIKey: getEnv("ASSISTANT_API_KEY", ""),
		AssistantModel:  getEnv("ASSISTANT_MODEL", "gemini-2.0-flash"),

		// Rate limiting
		BuyRateLimit:  int64(getEnvAsInt("BUY_RATE_LIMIT", 30)),
		BuyRateWindow: getEnvAsDuration("BUY_RATE_WINDOW", "1m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
