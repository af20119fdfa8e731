package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full runtime configuration of the sales agent
type Config struct {
	Port        string
	BasePath    string
	LogLevel    string
	Environment string
	SentryDSN   string
	JWTSecret   string
	TokenTTL    time.Duration
	ExportsDir  string

	Database      *DatabaseConfig
	Redis         *RedisConfig
	RabbitMQ      *RabbitMQConfig
	CreativeAgent *CreativeAgentConfig
	Review        *ReviewConfig
	AdServer      *AdServerConfig
}

// Load reads the configuration from environment variables. Call
// godotenv.Load first to pick up a .env file.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		BasePath:    getEnv("BASE_PATH", "/salesagent-api"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		TokenTTL:    getEnvAsDuration("TOKEN_TTL", 30*24*time.Hour),
		ExportsDir:  getEnv("EXPORTS_DIR", "./exports"),

		Database:      GetDatabaseConfig(),
		Redis:         GetRedisConfig(),
		RabbitMQ:      GetRabbitMQConfig(),
		CreativeAgent: GetCreativeAgentConfig(),
		Review:        GetReviewConfig(),
		AdServer:      GetAdServerConfig(),
	}
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
