package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full application configuration
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	GeocodeCache GeocodeCacheConfig
	Geocoder     GeocoderConfig
	Logging      LoggingConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds observation store settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// GeocodeCacheConfig holds the durable geocode cache settings
type GeocodeCacheConfig struct {
	Path string
}

// GeocoderConfig holds external geocoding provider settings
type GeocoderConfig struct {
	// Enabled controls whether the external provider is constructed at all.
	// When false, uncached geocode requests fail as capability-unavailable.
	Enabled   bool
	BaseURL   string
	UserAgent string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// LoadConfig reads configuration from the environment with defaults,
// loading a .env file first if one is present.
func LoadConfig() (*Config, error) {
	// A missing .env file is fine; real deployments set the environment.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getenvDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getenvInt("SERVER_PORT", 8080),
			ReadTimeout:  getenvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getenvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getenvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getenvDefault("DB_HOST", "localhost"),
			Port:            getenvInt("DB_PORT", 5432),
			User:            getenvDefault("DB_USER", "climate"),
			Password:        os.Getenv("DB_PASSWORD"),
			Database:        getenvDefault("DB_NAME", "climate_stats"),
			SSLMode:         getenvDefault("DB_SSLMODE", "disable"),
			MaxOpenConns:    getenvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getenvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getenvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getenvDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		GeocodeCache: GeocodeCacheConfig{
			Path: getenvDefault("GEOCODE_CACHE_PATH", "data/geocode_cache.sqlite3"),
		},
		Geocoder: GeocoderConfig{
			Enabled:   getenvBool("GEOCODER_ENABLED", true),
			BaseURL:   os.Getenv("GEOCODER_BASE_URL"),
			UserAgent: getenvDefault("GEOCODER_USER_AGENT", "climate-stats"),
		},
		Logging: LoggingConfig{
			Level: getenvDefault("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.GeocodeCache.Path == "" {
		return fmt.Errorf("geocode cache path is required")
	}
	if c.Geocoder.Enabled && c.Geocoder.UserAgent == "" {
		return fmt.Errorf("geocoder user agent is required when the provider is enabled")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
