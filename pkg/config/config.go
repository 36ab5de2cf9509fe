package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Places    PlacesConfig
	Search    SearchConfig
	RateLimit RateLimitConfig
	Analytics AnalyticsConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// PlacesConfig holds the external place-search provider configuration
type PlacesConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	MinRating      float64
	MaxResultCount int
	Timeout        time.Duration
}

// SearchConfig holds orchestrator defaults
type SearchConfig struct {
	// Backend selects where results and limiter state live: "memory" or "redis".
	Backend              string
	CacheTTL             time.Duration
	RadiusMeters         int
	MaxPlacesPerCategory int
}

// RateLimitConfig holds the provider admission limits
type RateLimitConfig struct {
	Window               time.Duration
	MaxRequestsPerWindow int
	MinInterval          time.Duration
}

// AnalyticsConfig controls search event persistence
type AnalyticsConfig struct {
	Enabled bool
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "carefinder"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Places: PlacesConfig{
			Provider:       getEnv("PLACES_PROVIDER", "google"),
			APIKey:         getEnv("PLACES_API_KEY", ""),
			BaseURL:        getEnv("PLACES_BASE_URL", ""),
			MinRating:      getEnvAsFloat("PLACES_MIN_RATING", 4),
			MaxResultCount: getEnvAsInt("PLACES_MAX_RESULT_COUNT", 5),
			Timeout:        getEnvAsDuration("PLACES_TIMEOUT", 10*time.Second),
		},
		Search: SearchConfig{
			Backend:              getEnv("SEARCH_STATE_BACKEND", "memory"),
			CacheTTL:             getEnvAsDuration("SEARCH_CACHE_TTL", 30*time.Minute),
			RadiusMeters:         getEnvAsInt("SEARCH_RADIUS_METERS", 12000),
			MaxPlacesPerCategory: getEnvAsInt("SEARCH_MAX_PLACES_PER_CATEGORY", 3),
		},
		RateLimit: RateLimitConfig{
			Window:               getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
			MaxRequestsPerWindow: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 6),
			MinInterval:          getEnvAsDuration("RATE_LIMIT_MIN_INTERVAL", 5*time.Second),
		},
		Analytics: AnalyticsConfig{
			Enabled: getEnvAsBool("ANALYTICS_ENABLED", false),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "carefinder"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Search.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid SEARCH_STATE_BACKEND %q: want memory or redis", c.Search.Backend)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.RateLimit.MaxRequestsPerWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive")
	}
	if c.Search.CacheTTL <= 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL must be positive")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
