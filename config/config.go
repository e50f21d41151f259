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

type Config struct {
	Port      string // ex: "8080"
	GinMode   string // "debug" | "release" | "test"
	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Database
	DBDriver   string // "postgres" | "sqlite"
	DBHost     string
	DBUsername string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string
	DBTimeZone string
	SQLitePath string

	// Auth
	JWTSecret       string
	SessionSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Invitations stay acceptable for this many days after creation.
	InvitationExpirationDays int

	// Optional superuser created on startup when both are set.
	SuperuserUsername string
	SuperuserPassword string
}

// Load reads the optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Port:      getenv("PORT", "8080"),
		GinMode:   getenv("GIN_MODE", "debug"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		PrettyLog: mustBool("PRETTY_LOG", true),

		DBDriver:   strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DBHost:     getenv("DB_HOST", "localhost"),
		DBUsername: getenv("DB_USERNAME", "postgres"),
		DBPassword: getenv("DB_PASSWORD", ""),
		DBName:     getenv("DB_NAME", "home_catalog"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),
		DBTimeZone: getenv("DB_TIMEZONE", "UTC"),
		SQLitePath: getenv("SQLITE_PATH", "./data/catalog.db"),

		JWTSecret:       os.Getenv("JWT_SECRET_KEY"),
		SessionSecret:   os.Getenv("SESSION_SECRET"),
		AccessTokenTTL:  mustDuration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL: mustDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		InvitationExpirationDays: getenvInt("INVITATION_EXPIRATION_DAYS", 7),

		SuperuserUsername: os.Getenv("SUPERUSER_USERNAME"),
		SuperuserPassword: os.Getenv("SUPERUSER_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET_KEY environment variable is required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET environment variable is required")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.DBDriver)
	}
	if c.InvitationExpirationDays < 1 {
		return fmt.Errorf("INVITATION_EXPIRATION_DAYS must be >= 1, got %d", c.InvitationExpirationDays)
	}
	return nil
}

// SecureCookies reports whether session and CSRF cookies are HTTPS only.
func (c *Config) SecureCookies() bool {
	return c.GinMode == "release"
}

// InvitationTTL is the validity window of a catalog group invitation.
func (c *Config) InvitationTTL() time.Duration {
	return time.Duration(c.InvitationExpirationDays) * 24 * time.Hour
}

// PostgresDSN builds the libpq style connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUsername, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimeZone,
	)
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
