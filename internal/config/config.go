package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ModeSandbox    = "sandbox"
	ModeProduction = "production"

	EnvDevelopment = "development"
	EnvProduction  = "production"

	sandboxAPIURL    = "https://tripay.co.id/api-sandbox"
	productionAPIURL = "https://tripay.co.id/api"
)

// Config holds all configuration for the application.
type Config struct {
	Env       string
	Server    ServerConfig
	Tripay    TripayConfig
	Site      SiteConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NewRelic  NewRelicConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// TripayConfig holds payment gateway credentials and client tuning.
type TripayConfig struct {
	APIKey          string
	PrivateKey      string
	MerchantCode    string
	Mode            string
	APIURL          string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// SiteConfig holds the public site settings used for cookies, CORS and
// transaction defaults.
type SiteConfig struct {
	Domain         string
	AllowedOrigins []string
}

// DatabaseConfig holds PostgreSQL configuration. An empty Host disables the
// server-side history store.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// RateLimitConfig holds the per-IP token bucket settings.
type RateLimitConfig struct {
	Burst    int
	Interval time.Duration
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// Load loads configuration from environment variables.
func Load() *Config {
	mode := getEnv("TRIPAY_MODE", ModeSandbox)

	return &Config{
		Env: getEnv("NODE_ENV", EnvDevelopment),
		Server: ServerConfig{
			Port:         getEnv("PORT", "3001"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 35*time.Second),
		},
		Tripay: TripayConfig{
			APIKey:          os.Getenv("TRIPAY_API_KEY"),
			PrivateKey:      os.Getenv("TRIPAY_PRIVATE_KEY"),
			MerchantCode:    os.Getenv("TRIPAY_MERCHANT_CODE"),
			Mode:            mode,
			APIURL:          getEnv("TRIPAY_BASE_URL", APIURLForMode(mode)),
			Timeout:         getDurationEnv("TRIPAY_TIMEOUT", 30*time.Second),
			BreakerFailures: uint32(getIntEnv("TRIPAY_BREAKER_FAILURES", 5)),
			BreakerTimeout:  getDurationEnv("TRIPAY_BREAKER_TIMEOUT", 30*time.Second),
		},
		Site: SiteConfig{
			Domain:         getEnv("DOMAIN", "shiroine.my.id"),
			AllowedOrigins: allowedOrigins(os.Getenv("FRONTEND_URL")),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "shiroine"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "checkout-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		RateLimit: RateLimitConfig{
			Burst:    getIntEnv("RATE_LIMIT_BURST", 100),
			Interval: getDurationEnv("RATE_LIMIT_INTERVAL", 9*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// APIURLForMode returns the gateway base URL for a TRIPAY_MODE value.
func APIURLForMode(mode string) string {
	if mode == ModeProduction {
		return productionAPIURL
	}
	return sandboxAPIURL
}

// IsProduction reports whether cookies must be secure and domain-scoped.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// ExposeErrors reports whether internal error details may reach clients.
func (c *Config) ExposeErrors() bool {
	return c.Env == EnvDevelopment
}

// CanCreateTransactions reports whether all gateway credentials are present.
func (t TripayConfig) CanCreateTransactions() bool {
	return t.APIKey != "" && t.PrivateKey != "" && t.MerchantCode != ""
}

// DatabaseEnabled reports whether a PostgreSQL host was configured.
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != ""
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

func allowedOrigins(frontendURL string) []string {
	if frontendURL == "" {
		return []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	var origins []string
	for _, origin := range strings.Split(frontendURL, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
