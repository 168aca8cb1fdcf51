package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"redevdash/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Data     DataConfig
	Auth     AuthConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	MaxOpen  int
	MaxIdle  int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
	UIPort  string
}

// DataConfig points at the pipeline workbook
type DataConfig struct {
	ExcelFile  string
	ExcelSheet string
}

// AuthConfig holds registration and token settings
type AuthConfig struct {
	JWTSecret          string
	TokenTTL           time.Duration
	ResetTokenTTL      time.Duration
	AllowedEmailDomain string
	FrontendURL        string
	AdminEmail         string
}

// LoggingConfig mirrors LOG_LEVEL and LOG_FORMAT
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables. Call Validate for the
// checks a given entrypoint needs.
func Load() (*Config, error) {
	config := &Config{
		Database: *loadDatabaseConfig(),
		Server:   *loadServerConfig(),
		Data:     *loadDataConfig(),
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "INFO"),
			Format: getEnvOrDefault("LOG_FORMAT", "console"),
		},
	}

	authConfig, err := loadAuthConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load auth configuration")
	}
	config.Auth = *authConfig

	return config, nil
}

// Validate checks required settings. The spreadsheet dashboard runs without a database.
func (c *Config) Validate(requireDatabase bool) error {
	if requireDatabase && c.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL or DB_HOST/DB_NAME is required")
	}
	if requireDatabase && c.Auth.JWTSecret == "" {
		return errors.ConfigInvalid("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.ConfigInvalid("TOKEN_TTL must be positive")
	}
	if c.Auth.AllowedEmailDomain == "" {
		return errors.ConfigInvalid("ALLOWED_EMAIL_DOMAIN cannot be empty")
	}
	return nil
}

func loadDatabaseConfig() *DatabaseConfig {
	cfg := &DatabaseConfig{
		URL:      os.Getenv("DATABASE_URL"),
		User:     getEnvOrDefault("DB_USER", ""),
		Password: getEnvOrDefault("DB_PASSWORD", os.Getenv("DB_PASS")),
		Name:     getEnvOrDefault("DB_NAME", ""),
		Host:     getEnvOrDefault("DB_HOST", ""),
		Port:     getEnvIntOrDefault("DB_PORT", 5432),
		SSLMode:  getEnvOrDefault("SSL_MODE", "disable"),
		MaxOpen:  getEnvIntOrDefault("DB_MAX_OPEN", 20),
		MaxIdle:  getEnvIntOrDefault("DB_MAX_IDLE", 5),
	}
	if cfg.URL == "" && cfg.Host != "" && cfg.Name != "" {
		cfg.URL = cfg.DSN()
	}
	return cfg
}

// DSN assembles a postgres URL from the DB_* parts
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	return u.String()
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		UIPort:  getEnvOrDefault("UI_PORT", "8081"),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		ExcelFile:  getEnvOrDefault("EXCEL_FILE", ""),
		ExcelSheet: getEnvOrDefault("EXCEL_SHEET", ""),
	}
}

func loadAuthConfig() (*AuthConfig, error) {
	ttl, err := getEnvDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	return &AuthConfig{
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TokenTTL:           ttl,
		ResetTokenTTL:      time.Hour,
		AllowedEmailDomain: strings.TrimPrefix(getEnvOrDefault("ALLOWED_EMAIL_DOMAIN", "power-transitions.com"), "@"),
		FrontendURL:        strings.TrimRight(getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"), "/"),
		AdminEmail:         getEnvOrDefault("ADMIN_EMAIL", ""),
	}, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s is not a duration: %q", key, value))
	}
	return duration, nil
}
