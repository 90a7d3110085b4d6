// Package config reads EcoCollect settings from the environment and opens
// the configured token store.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/ecocollect/ecocollect/internal/validation"
)

// Token store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config holds client, fixture server and telemetry settings.
type Config struct {
	APIBaseURL string        `json:"api_base_url" validate:"required,url"`
	Dev        bool          `json:"dev"`
	Timeout    time.Duration `json:"timeout" validate:"min=0"`

	TokenStore string `json:"token_store" validate:"oneof=memory sqlite redis"`
	TokenDB    string `json:"token_db" validate:"required_if=TokenStore sqlite"`
	RedisAddr  string `json:"redis_addr" validate:"required_if=TokenStore redis"`
	RedisKey   string `json:"redis_key_prefix"`

	CacheSize   int    `json:"cache_size" validate:"min=1"`
	MapboxToken string `json:"mapbox_access_token"`

	OTelEnabled  bool   `json:"otel_enabled"`
	OTLPEndpoint string `json:"otel_exporter_otlp_endpoint"`
	Environment  string `json:"app_env"`

	PubSubProjectID    string `json:"pubsub_project_id"`
	PubSubTopic        string `json:"pubsub_topic" validate:"required_with=PubSubProjectID"`
	PubSubSubscription string `json:"pubsub_subscription"`

	DevServerPort string `json:"devserver_port" validate:"numeric"`
	JWTSigningKey string `json:"jwt_signing_key"`
}

// FromEnv creates a Config from environment variables.
func FromEnv() Config {
	timeout, _ := time.ParseDuration(getEnvOrDefault("ECOCOLLECT_TIMEOUT", "15s"))
	cacheSize, _ := strconv.Atoi(getEnvOrDefault("ECOCOLLECT_CACHE_SIZE", "256"))

	return Config{
		APIBaseURL:         getEnvOrDefault("ECOCOLLECT_API_BASE_URL", "http://localhost:3000/api"),
		Dev:                getBool("ECOCOLLECT_DEV", false),
		Timeout:            timeout,
		TokenStore:         getEnvOrDefault("ECOCOLLECT_TOKEN_STORE", StoreMemory),
		TokenDB:            getEnvOrDefault("ECOCOLLECT_TOKEN_DB", "ecocollect.db"),
		RedisAddr:          os.Getenv("ECOCOLLECT_REDIS_ADDR"),
		RedisKey:           getEnvOrDefault("ECOCOLLECT_REDIS_PREFIX", "ecocollect:tokens:"),
		CacheSize:          cacheSize,
		MapboxToken:        os.Getenv("MAPBOX_ACCESS_TOKEN"),
		OTelEnabled:        getBool("OTEL_ENABLED", false),
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Environment:        getEnvOrDefault("APP_ENV", "development"),
		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubTopic:        os.Getenv("PUBSUB_TOPIC"),
		PubSubSubscription: os.Getenv("PUBSUB_SUBSCRIPTION"),
		DevServerPort:      getEnvOrDefault("DEVSERVER_PORT", "3000"),
		JWTSigningKey:      getEnvOrDefault("JWT_SIGNING_KEY", "ecocollect-dev-secret"),
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	return validation.Struct(c, nil)
}

// IsDevelopment reports whether the app runs in a development environment.
func (c Config) IsDevelopment() bool {
	return c.Dev || c.Environment == "development"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}
