package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AdminJWTSecret string

	// Case-management API the visit importer pulls from.
	CaseAPIBaseURL    string
	CaseAPIToken      string
	CaseAPITimeout    time.Duration
	CaseAPIMaxRetries int

	// ImportSources are the source tags imported on every worker tick.
	ImportSources  []string
	ImportInterval time.Duration
	EnrollmentTTL  time.Duration

	// WorksheetDocs are the spreadsheet document names imported alongside
	// the API sources.
	WorksheetDocs []string

	GatewayURL       string
	GatewayServiceID string
	GatewayPassword  string
	GatewayChannel   string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		CaseAPIBaseURL:    getEnv("CASE_API_BASE_URL", ""),
		CaseAPIToken:      getEnv("CASE_API_TOKEN", ""),
		CaseAPITimeout:    getEnvAsDuration("CASE_API_TIMEOUT", 30*time.Second),
		CaseAPIMaxRetries: getEnvAsInt("CASE_API_MAX_RETRIES", 3),

		ImportSources:  getEnvAsList("IMPORT_SOURCES", nil),
		ImportInterval: getEnvAsDuration("IMPORT_INTERVAL", time.Hour),
		EnrollmentTTL:  getEnvAsDuration("ENROLLMENT_CACHE_TTL", 30*time.Second),

		WorksheetDocs: getEnvAsList("WORKSHEET_DOCS", nil),

		GatewayURL:       getEnv("GATEWAY_URL", ""),
		GatewayServiceID: getEnv("GATEWAY_SERVICE_ID", ""),
		GatewayPassword:  getEnv("GATEWAY_PASSWORD", ""),
		GatewayChannel:   getEnv("GATEWAY_CHANNEL", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable as a slice.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}
