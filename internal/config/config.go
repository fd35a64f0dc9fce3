// Package config provides configuration for the application
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database      DatabaseConfig
	Server        ServerConfig
	Logging       LoggingConfig
	CORS          CORSConfig
	QR            QRConfig
	Sweep         SweepConfig
	MediaBasePath string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port               int
	BaseURL            string
	RateLimitPerMinute int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// QRConfig holds QR code listing settings
type QRConfig struct {
	RecentLimit int
}

// SweepConfig holds artifact sweeper settings
type SweepConfig struct {
	Schedule    string
	GracePeriod time.Duration
	MetricsPort int
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}

	// Database configuration
	var err error
	if cfg.Database.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	dbPortStr, err := requireEnv("DB_PORT")
	if err != nil {
		return nil, err
	}
	if cfg.Database.Port, err = strconv.Atoi(dbPortStr); err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	if cfg.Database.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}

	// Storage configuration
	if cfg.MediaBasePath, err = requireEnv("MEDIA_BASE_PATH"); err != nil {
		return nil, err
	}

	// Server configuration
	if cfg.Server.Port, err = intEnv("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	cfg.Server.BaseURL = strings.TrimRight(os.Getenv("BASE_URL"), "/")
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	if cfg.Server.RateLimitPerMinute, err = intEnv("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}

	// Logging configuration
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// QR configuration
	if cfg.QR.RecentLimit, err = intEnv("RECENT_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.QR.RecentLimit <= 0 {
		return nil, fmt.Errorf("RECENT_LIMIT must be positive")
	}

	// Sweeper configuration
	cfg.Sweep.Schedule = os.Getenv("SWEEP_SCHEDULE")
	if cfg.Sweep.Schedule == "" {
		cfg.Sweep.Schedule = "@hourly"
	}
	cfg.Sweep.GracePeriod = time.Hour
	if grace := os.Getenv("SWEEP_GRACE_PERIOD"); grace != "" {
		if cfg.Sweep.GracePeriod, err = time.ParseDuration(grace); err != nil {
			return nil, fmt.Errorf("invalid SWEEP_GRACE_PERIOD: %w", err)
		}
	}
	if cfg.Sweep.GracePeriod <= 0 {
		return nil, fmt.Errorf("SWEEP_GRACE_PERIOD must be positive")
	}
	if cfg.Sweep.MetricsPort, err = intEnv("SWEEP_METRICS_PORT", 9091); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func intEnv(key string, def int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// parseOrigins parses comma-separated origins, allowing all when none are given
func parseOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
