package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	MailTransportConsole  = "console"
	MailTransportSendGrid = "sendgrid"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL            string
	TablePrefix            string
	SiteURL                string
	Location               *time.Location
	LanguageFieldShortname string
	CronSpecDaily          string
	RunOnce                bool
	JobTimeout             time.Duration // 0 means no deadline
	MailTransport          string
	SendGridAPIKey         string
	NoReplyEmail           string
	NoReplyName            string
	TraceMuted             bool
	MetricsAddr            string // empty disables the /metrics listener
	TelegramToken          string
	AdminTelegramID        int64
	LogLevel               string
	Environment            string
}

// TelegramEnabled reports whether the admin bot should be started.
func (c *AppConfig) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.AdminTelegramID != 0
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	cfg.TablePrefix = getenv("DB_TABLE_PREFIX", "mdl_")

	cfg.SiteURL = strings.TrimRight(os.Getenv("SITE_URL"), "/")
	if cfg.SiteURL == "" {
		return nil, fmt.Errorf("SITE_URL is not set")
	}

	cfg.Location, err = time.LoadLocation(getenv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg.LanguageFieldShortname = getenv("LANGUAGE_FIELD_SHORTNAME", "lingua")
	cfg.CronSpecDaily = getenv("CRON_SPEC_DAILY", "0 6 * * *") // Default: 06:00 daily

	if cfg.RunOnce, err = getbool("RUN_ONCE", false); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(os.Getenv("JOB_TIMEOUT")); v != "" && v != "0" {
		cfg.JobTimeout, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JOB_TIMEOUT: %w", err)
		}
		if cfg.JobTimeout < 0 {
			return nil, fmt.Errorf("invalid JOB_TIMEOUT: must not be negative")
		}
	}

	cfg.MailTransport = strings.ToLower(getenv("MAIL_TRANSPORT", MailTransportConsole))
	switch cfg.MailTransport {
	case MailTransportConsole:
	case MailTransportSendGrid:
		cfg.SendGridAPIKey = os.Getenv("SENDGRID_API_KEY")
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is not set but MAIL_TRANSPORT is sendgrid")
		}
	default:
		return nil, fmt.Errorf("invalid MAIL_TRANSPORT %q (expected console or sendgrid)", cfg.MailTransport)
	}
	cfg.NoReplyEmail = getenv("NOREPLY_EMAIL", "noreply@localhost")
	cfg.NoReplyName = getenv("NOREPLY_NAME", "Do not reply")

	if cfg.TraceMuted, err = getbool("TRACE_MUTED", false); err != nil {
		return nil, err
	}
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set but TELEGRAM_TOKEN is")
	}

	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getenv("ENVIRONMENT", "development"))

	return cfg, nil
}
