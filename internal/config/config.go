package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	devJWTSecret     = "dev-jwt-secret-change-in-production"
	devSessionSecret = "dev-secret-change-in-production-use-openssl-rand-hex-32"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	Env       string
	Port      string
	AppURL    string
	APIPrefix string

	DBDriver    string
	DatabaseURL string
	DBPath      string
	SeedDevData bool

	JWTSecret     string
	SessionSecret string
	EncryptionKey string
	BcryptCost    int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	LogLevel  string
	LogFormat string

	RedisURL              string
	ReminderTimezone      string
	ReminderWebhookURL    string
	ReminderWebhookSecret string

	SMTPHost   string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	SMTPSender string
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Env:       getEnvWithDefault("ENV", "development"),
		Port:      getEnvWithDefault("PORT", "3001"),
		AppURL:    strings.TrimRight(getEnvWithDefault("APP_URL", "http://localhost:5173"), "/"),
		APIPrefix: getEnvWithDefault("API_PREFIX", "/api"),

		DBDriver:    strings.ToLower(getEnvWithDefault("DB_DRIVER", "sqlite")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBPath:      getEnvWithDefault("DB_PATH", "frequency.db"),
		SeedDevData: getEnvBool("SEED_DEV_DATA", false),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		EncryptionKey: os.Getenv("TOKEN_ENCRYPTION_KEY"),
		BcryptCost:    getEnvInt("BCRYPT_COST", 12),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		RedisURL:              os.Getenv("REDIS_URL"),
		ReminderTimezone:      getEnvWithDefault("REMINDER_TIMEZONE", "UTC"),
		ReminderWebhookURL:    os.Getenv("REMINDER_WEBHOOK_URL"),
		ReminderWebhookSecret: os.Getenv("REMINDER_WEBHOOK_SECRET"),

		SMTPHost:   os.Getenv("SMTP_HOST"),
		SMTPPort:   getEnvInt("SMTP_PORT", 587),
		SMTPUser:   os.Getenv("SMTP_USER"),
		SMTPPass:   os.Getenv("SMTP_PASS"),
		SMTPSender: os.Getenv("SMTP_SENDER"),
	}

	if cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = cfg.AppURL + cfg.APIPrefix + "/auth/google/callback"
	}

	// Warn if using default secrets (insecure for production)
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = devJWTSecret
		log.Println("WARNING: Using default JWT_SECRET. Generate a secure secret with: openssl rand -hex 32")
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = devSessionSecret
		log.Println("WARNING: Using default SESSION_SECRET. Generate a secure secret with: openssl rand -hex 32")
	}
	if cfg.EncryptionKey == "" {
		log.Println("WARNING: TOKEN_ENCRYPTION_KEY not set. OAuth provider tokens will be stored unencrypted.")
	}

	return cfg
}

// IsProduction reports whether the app runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DSN returns the connection string for the configured driver: DATABASE_URL
// for postgres, DB_PATH otherwise.
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.DBPath
}

// GoogleEnabled reports whether Google OAuth credentials are configured
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// RemindersEnabled reports whether the reminder worker has a Redis backend
func (c *Config) RemindersEnabled() bool {
	return c.RedisURL != ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("WARNING: invalid integer for %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("WARNING: invalid boolean for %s=%q, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}
