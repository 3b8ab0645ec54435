package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	AppEnv        string
	Port          string
	DatabaseURL   string
	RedisURL      string
	SessionSecret string
	LogLevel      string
	LogFormat     string

	OpenAIAPIKey string
	OpenAIModel  string

	// AIRequestsPerMinute limits AI endpoint calls per user.
	AIRequestsPerMinute int

	// WebSocket connection limits
	WSMaxConnections      int64
	WSMaxConnectionsPerIP int
	WSConnectionsPerSec   float64
	WSConnectionBurst     int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-5"),

		AIRequestsPerMinute: getEnvInt("AI_REQUESTS_PER_MINUTE", 10),

		WSMaxConnections:      int64(getEnvInt("WS_MAX_CONNECTIONS", 1000)),
		WSMaxConnectionsPerIP: getEnvInt("WS_MAX_CONNECTIONS_PER_IP", 20),
		WSConnectionsPerSec:   getEnvFloat("WS_CONNECTIONS_PER_SEC", 10.0),
		WSConnectionBurst:     getEnvInt("WS_CONNECTION_BURST", 10),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	if cfg.AIRequestsPerMinute < 1 {
		return nil, fmt.Errorf("AI_REQUESTS_PER_MINUTE must be at least 1")
	}
	if cfg.WSMaxConnections < 1 {
		return nil, fmt.Errorf("WS_MAX_CONNECTIONS must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
