package config

import (
	"fmt"
)

// RedisConfig holds the format cache backend settings. An empty Addr keeps
// the cache in process memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// GetRedisConfig returns Redis configuration from environment variables
func GetRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("REDIS_DB", 0),
	}
}

// RabbitMQConfig holds the broker settings. An empty Host disables the
// broker and background work runs in process.
type RabbitMQConfig struct {
	Host string
	Port string
	User string
	Pass string
}

// GetRabbitMQConfig returns RabbitMQ configuration from environment variables
func GetRabbitMQConfig() *RabbitMQConfig {
	return &RabbitMQConfig{
		Host: getEnv("RABBITMQ_HOST", ""),
		Port: getEnv("RABBITMQ_PORT", "5672"),
		User: getEnv("RABBITMQ_USER", "guest"),
		Pass: getEnv("RABBITMQ_PASS", "guest"),
	}
}

// Enabled reports whether a broker is configured
func (c *RabbitMQConfig) Enabled() bool {
	return c.Host != ""
}

// URL builds the AMQP connection URL
func (c *RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Pass, c.Host, c.Port)
}
