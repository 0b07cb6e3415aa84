package ratelimit

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	if !cast.ToBool(getEnv("RATE_LIMIT_ENABLED", "true")) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    cast.ToInt(getEnv("RATE_LIMIT_DEFAULT_LIMIT", "600")),
		DefaultWindow:   cast.ToDuration(getEnv("RATE_LIMIT_DEFAULT_WINDOW", "1m")),
		CleanupInterval: cast.ToDuration(getEnv("RATE_LIMIT_CLEANUP_INTERVAL", "5m")),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Report generation makes two model calls per request
		{Path: "/v1/reports", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/v1/reports/stream", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},

		// Re-rendering is local work
		{Path: "/v1/render", Method: "POST", Limit: 300, Window: time.Minute, Burst: 20},

		{Path: "/v1/runs/", Method: "DELETE", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
