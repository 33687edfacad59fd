package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Session    SessionConfig
	Location   LocationConfig
	Geocoder   GeocoderConfig
	Monitoring MonitoringConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	Host           string
	AllowedOrigins []string
}

// PostgresConfig leaves DSN empty to run on the in-memory store.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	LocationUpdatesPerMin int
	LoginAttemptsPerMin   int
}

type SessionConfig struct {
	TTL          time.Duration
	SecureCookie bool
}

type LocationConfig struct {
	GeohashPrecision uint
	HistoryLimit     int
}

type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

type MonitoringConfig struct {
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            getEnv("ENV", "development"),
			Host:           getEnv("HOST", "0.0.0.0"),
			AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "http://localhost:8080")},
		},
		Postgres: PostgresConfig{
			DSN:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			LocationUpdatesPerMin: getEnvAsInt("RATE_LIMIT_LOCATION_PER_MIN", 30),
			LoginAttemptsPerMin:   getEnvAsInt("RATE_LIMIT_LOGIN_PER_MIN", 10),
		},
		Session: SessionConfig{
			TTL:          getEnvAsDuration("SESSION_TTL", 14*24*time.Hour),
			SecureCookie: getEnvAsBool("SESSION_COOKIE_SECURE", false),
		},
		Location: LocationConfig{
			GeohashPrecision: uint(getEnvAsInt("GEOHASH_PRECISION", 7)),
			HistoryLimit:     getEnvAsInt("LOCATION_HISTORY_LIMIT", 20),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getEnv("GEOCODER_USER_AGENT", "proxipal"),
			Timeout:   getEnvAsDuration("GEOCODER_TIMEOUT", 10*time.Second),
		},
		Monitoring: MonitoringConfig{
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Location.GeohashPrecision < 1 || c.Location.GeohashPrecision > 12 {
		return fmt.Errorf("GEOHASH_PRECISION must be between 1 and 12, got %d", c.Location.GeohashPrecision)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.RateLimit.LocationUpdatesPerMin <= 0 || c.RateLimit.LoginAttemptsPerMin <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// UseMemoryStore reports whether no database is configured.
func (c *Config) UseMemoryStore() bool {
	return c.Postgres.DSN == ""
}
