// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Brevo         BrevoConfig         `mapstructure:"brevo"`
	Email         EmailConfig         `mapstructure:"email"`
	Forms         FormsConfig         `mapstructure:"forms"`
	Notifications NotificationConfig  `mapstructure:"notifications"`
	AWS           AWSConfig           `mapstructure:"aws"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address           string   `mapstructure:"address"`
	AllowedOrigins    []string `mapstructure:"allowed_origins"`
	AdminToken        string   `mapstructure:"admin_token"`
	ReadHeaderTimeout int      `mapstructure:"read_header_timeout"` // milliseconds
	ShutdownTimeout   int      `mapstructure:"shutdown_timeout"`    // milliseconds
	MaxBodyBytes      int64    `mapstructure:"max_body_bytes"`
}

// --- CRM / Email provider ---
type BrevoConfig struct {
	APIKey  string     `mapstructure:"api_key"`
	BaseURL string     `mapstructure:"base_url"`
	Timeout int        `mapstructure:"timeout"` // milliseconds
	Lists   ListConfig `mapstructure:"lists"`
}

// ListConfig holds CRM list ids per audience segment. Zero means unset.
type ListConfig struct {
	Newsletter    int64 `mapstructure:"newsletter"`
	PartnershipGP int64 `mapstructure:"partnership_gp"`
	PartnershipLP int64 `mapstructure:"partnership_lp"`
	Funding       int64 `mapstructure:"funding"`
}

type EmailConfig struct {
	Provider    string `mapstructure:"provider"` // "brevo" or "ses"
	SenderEmail string `mapstructure:"sender_email"`
	SenderName  string `mapstructure:"sender_name"`
	Timezone    string `mapstructure:"timezone"`
}

type FormsConfig struct {
	Newsletter NewsletterFormConfig `mapstructure:"newsletter"`
}

type NewsletterFormConfig struct {
	NotifyOperator bool `mapstructure:"notify_operator"`
}

type NotificationConfig struct {
	Recipient    string             `mapstructure:"recipient"`
	SMS          SMSConfig          `mapstructure:"sms"`
	FailureStore FailureStoreConfig `mapstructure:"failure_store"`
}

type SMSConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	OperatorPhone string `mapstructure:"operator_phone"`
}

// FailureStoreConfig selects where undeliverable notifications are recorded.
type FailureStoreConfig struct {
	Backend   string `mapstructure:"backend"` // "", "redis" or "postgres"
	ListKey   string `mapstructure:"list_key"`
	MaxLength int64  `mapstructure:"max_length"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// Location returns the time zone used for timestamps in emails.
// Unknown zones fall back to UTC.
func (e EmailConfig) Location() *time.Location {
	if e.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
