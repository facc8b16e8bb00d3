package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"qr_dine_backend/pkg/utils"
)

// Config is read once from the environment at startup.
type Config struct {
	Port string

	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	DBApplySchema bool

	JWTSecret string
	JWTTTL    time.Duration

	CORSAllowedOrigins []string
	PublicBaseURL      string

	RedisAddr      string
	ScanSessionTTL time.Duration

	BillingInterval  time.Duration
	BillingGraceDays int

	AdminUsername string
	AdminPassword string

	LogLevel   string
	LogFormat  string
	GinRelease bool
}

// Load builds a Config from environment variables, applying development defaults.
func Load() Config {
	return Config{
		Port: utils.Getenv("PORT", "8080"),

		DBHost:        utils.Getenv("DB_HOST", "localhost"),
		DBPort:        utils.Getenv("DB_PORT", "5432"),
		DBUser:        utils.Getenv("DB_USER", "qr_dine_user"),
		DBPassword:    utils.Getenv("DB_PASSWORD", "qr_dine_password"),
		DBName:        utils.Getenv("DB_NAME", "qr_dine_db"),
		DBSSLMode:     utils.Getenv("DB_SSLMODE", "disable"),
		DBApplySchema: utils.GetenvBool("DB_APPLY_SCHEMA", false),

		JWTSecret: utils.Getenv("JWT_SECRET", ""),
		JWTTTL:    utils.GetenvDuration("JWT_TTL", 12*time.Hour),

		CORSAllowedOrigins: utils.GetenvList("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000", "http://localhost:3001", "http://localhost:3002",
		}),
		PublicBaseURL: strings.TrimRight(utils.Getenv("PUBLIC_BASE_URL", "http://localhost:3002"), "/"),

		RedisAddr:      strings.TrimSpace(utils.Getenv("REDIS_ADDR", "")),
		ScanSessionTTL: utils.GetenvDuration("SCAN_SESSION_TTL", 2*time.Hour),

		BillingInterval:  utils.GetenvDuration("BILLING_INTERVAL", time.Hour),
		BillingGraceDays: utils.GetenvInt("BILLING_GRACE_DAYS", 7),

		AdminUsername: strings.TrimSpace(utils.Getenv("ADMIN_USERNAME", "")),
		AdminPassword: utils.Getenv("ADMIN_PASSWORD", ""),

		LogLevel:   utils.Getenv("LOG_LEVEL", "info"),
		LogFormat:  utils.Getenv("LOG_FORMAT", "console"),
		GinRelease: utils.GetenvBool("GIN_RELEASE", false),
	}
}

// DSN renders the lib/pq connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// Validate reports configuration that would make the server misbehave.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.ScanSessionTTL <= 0 {
		errs = append(errs, errors.New("SCAN_SESSION_TTL must be positive"))
	}
	if c.BillingInterval <= 0 {
		errs = append(errs, errors.New("BILLING_INTERVAL must be positive"))
	}
	if c.BillingGraceDays < 0 {
		errs = append(errs, errors.New("BILLING_GRACE_DAYS must not be negative"))
	}
	if c.AdminUsername != "" && len(c.AdminPassword) < 8 {
		errs = append(errs, errors.New("ADMIN_PASSWORD must be at least 8 characters when ADMIN_USERNAME is set"))
	}
	if !strings.HasPrefix(c.PublicBaseURL, "http://") && !strings.HasPrefix(c.PublicBaseURL, "https://") {
		errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL must be an http(s) URL, got %q", c.PublicBaseURL))
	}
	return errors.Join(errs...)
}
