// Package config loads application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"wedding-rsvp/internal/links"
	"wedding-rsvp/internal/mailer"
	"wedding-rsvp/internal/storage/postgres"
	"wedding-rsvp/internal/whatsapp"
)

// Store backends
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	AppURL string `env:"APP_URL" envDefault:"http://localhost:8080"`

	StoreType  string `env:"STORE_TYPE" envDefault:"file"`
	DataDir    string `env:"DATA_DIR" envDefault:"data"`
	SQLitePath string `env:"SQLITE_PATH"`

	Postgres PostgresConfig

	Email   EmailConfig
	Wedding WeddingConfig

	WhatsAppEnabled    bool   `env:"WHATSAPP_ENABLED" envDefault:"false"`
	DefaultCountryCode string `env:"DEFAULT_COUNTRY_CODE" envDefault:"972"`
}

type PostgresConfig struct {
	ConnString      string `env:"POSTGRES_CONNECTION_STRING"`
	MaxConns        int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns        int32  `env:"POSTGRES_MIN_CONNS" envDefault:"1"`
	MaxConnLifetime int32  `env:"POSTGRES_MAX_CONN_LIFETIME" envDefault:"3600"`
	MaxConnIdleTime int32  `env:"POSTGRES_MAX_CONN_IDLE_TIME" envDefault:"1800"`
	AutoMigrate     bool   `env:"POSTGRES_AUTO_MIGRATE" envDefault:"true"`
}

type EmailConfig struct {
	ResendAPIKey string `env:"RESEND_API_KEY"`
	From         string `env:"EMAIL_FROM" envDefault:"onboarding@resend.dev"`
	ReplyTo      string `env:"EMAIL_REPLY_TO"`
	Subject      string `env:"EMAIL_SUBJECT"`
}

type WeddingConfig struct {
	BrideName string `env:"BRIDE_NAME" envDefault:"Bride"`
	GroomName string `env:"GROOM_NAME" envDefault:"Groom"`
	Date      string `env:"WEDDING_DATE" envDefault:"Saturday, January 1, 2025"`
	Location  string `env:"WEDDING_LOCATION" envDefault:"Venue TBD"`
}

// LoadConfig loads configuration from environment variables or defaults
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that have no usable default
func (c *Config) Validate() error {
	switch c.StoreType {
	case StoreFile, StoreSQLite:
	case StorePostgres:
		if c.Postgres.ConnString == "" {
			return errors.New("POSTGRES_CONNECTION_STRING is required when STORE_TYPE=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_TYPE %q (want file, sqlite or postgres)", c.StoreType)
	}
	if c.AppURL == "" {
		return errors.New("APP_URL is required")
	}
	return nil
}

// JSONPath is where the file store keeps its document
func (c *Config) JSONPath() string {
	return filepath.Join(c.DataDir, "guests.json")
}

// SQLiteFile is the sqlite database path, defaulting to DATA_DIR/rsvp.db
func (c *Config) SQLiteFile() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.DataDir, "rsvp.db")
}

func (c *Config) Links() links.Builder {
	return links.Builder{BaseURL: c.AppURL, Wedding: c.Wedding.Wedding()}
}

func (w WeddingConfig) Wedding() links.Wedding {
	return links.Wedding{BrideName: w.BrideName, GroomName: w.GroomName, Date: w.Date, Location: w.Location}
}

func (c *Config) PoolConfig() *postgres.PoolConfig {
	return &postgres.PoolConfig{
		ConnString:      c.Postgres.ConnString,
		MaxConns:        c.Postgres.MaxConns,
		MinConns:        c.Postgres.MinConns,
		MaxConnLifetime: c.Postgres.MaxConnLifetime,
		MaxConnIdleTime: c.Postgres.MaxConnIdleTime,
	}
}

func (c *Config) Resend() mailer.ResendConfig {
	return mailer.ResendConfig{
		APIKey:  c.Email.ResendAPIKey,
		From:    c.Email.From,
		ReplyTo: c.Email.ReplyTo,
		Subject: c.Email.Subject,
		Wedding: c.Wedding.Wedding(),
	}
}

func (c *Config) WhatsApp() whatsapp.Config {
	return whatsapp.Config{DataDir: c.DataDir, CountryCode: c.DefaultCountryCode}
}
