package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	Port        string
	LogLevel    string
	Environment string

	StoreDriver string
	SQLitePath  string
	DatabaseURL string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	PortalURL    string

	TelegramToken string

	CronSpecBillingStatements string
	CronSpecVisitorPassExpiry string
}

// EmailEnabled reports whether outgoing mail is configured.
func (c *AppConfig) EmailEnabled() bool {
	return c.SMTPHost != ""
}

// TelegramEnabled reports whether a bot token is configured.
func (c *AppConfig) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

// Load reads configuration from environment variables and from envFiles
// (".env" when none are given). Missing files are ignored and real
// environment variables take precedence over file values.
func Load(envFiles ...string) (*AppConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	fileValues := map[string]string{}
	for _, path := range envFiles {
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for k, v := range values {
			if _, seen := fileValues[k]; !seen {
				fileValues[k] = v
			}
		}
	}

	getEnv := func(key, defaultVal string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		if value, exists := fileValues[key]; exists {
			return value
		}
		return defaultVal
	}

	cfg := &AppConfig{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Environment: strings.ToLower(getEnv("ENVIRONMENT", "development")),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
		SQLitePath:  getEnv("SQLITE_PATH", "hoaportal.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", ""),
		PortalURL:    strings.TrimRight(getEnv("PORTAL_URL", "http://localhost:8080"), "/"),

		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),

		CronSpecBillingStatements: getEnv("CRON_SPEC_BILLING_STATEMENTS", "0 8 1 * *"),     // 08:00 on the 1st
		CronSpecVisitorPassExpiry: getEnv("CRON_SPEC_VISITOR_PASS_EXPIRY", "*/15 * * * *"), // every 15 minutes
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.EmailEnabled() && c.SenderEmail == "" {
		return fmt.Errorf("SENDER_EMAIL is required when SMTP_HOST is set")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is not set")
	}
	return nil
}
