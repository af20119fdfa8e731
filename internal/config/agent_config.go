package config

import (
	"strings"
	"time"
)

// CreativeAgentConfig contains creative agent client configuration
type CreativeAgentConfig struct {
	DefaultAgentURL string
	Timeout         time.Duration
	FormatCacheTTL  time.Duration
	// GeminiAPIKey gates generative builds; agents reject builds without it
	GeminiAPIKey string
	Routes       map[string]string
}

// GetCreativeAgentConfig returns creative agent configuration
func GetCreativeAgentConfig() *CreativeAgentConfig {
	return &CreativeAgentConfig{
		DefaultAgentURL: strings.TrimSuffix(getEnv("CREATIVE_AGENT_URL", "https://creative.adcontextprotocol.org"), "/"),
		Timeout:         getEnvAsDuration("CREATIVE_AGENT_TIMEOUT", 30*time.Second),
		FormatCacheTTL:  getEnvAsDuration("FORMAT_CACHE_TTL", time.Hour),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		Routes: map[string]string{
			"list_creative_formats": "/list_creative_formats", // Post Method
			"preview_creative":      "/preview_creative",      // Post Method
			"build_creative":        "/build_creative",        // Post Method
		},
	}
}

// ReviewConfig contains AI review worker configuration
type ReviewConfig struct {
	AgentURL  string
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// GetReviewConfig returns AI review configuration
func GetReviewConfig() *ReviewConfig {
	return &ReviewConfig{
		AgentURL:  strings.TrimSuffix(getEnv("REVIEW_AGENT_URL", ""), "/"),
		Workers:   getEnvAsInt("REVIEW_WORKERS", 4),
		QueueSize: getEnvAsInt("REVIEW_QUEUE_SIZE", 256),
		Timeout:   getEnvAsDuration("REVIEW_AGENT_TIMEOUT", 60*time.Second),
	}
}

// AdServerConfig contains ad server adapter configuration
type AdServerConfig struct {
	GAMGatewayURL string
	GAMAPIKey     string
	Timeout       time.Duration
}

// GetAdServerConfig returns ad server configuration
func GetAdServerConfig() *AdServerConfig {
	return &AdServerConfig{
		GAMGatewayURL: strings.TrimSuffix(getEnv("GAM_GATEWAY_URL", ""), "/"),
		GAMAPIKey:     getEnv("GAM_GATEWAY_API_KEY", ""),
		Timeout:       getEnvAsDuration("GAM_GATEWAY_TIMEOUT", 30*time.Second),
	}
}
