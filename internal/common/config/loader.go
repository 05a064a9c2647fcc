// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderBrevo = "brevo"
	ProviderSES   = "ses"

	FailureStoreRedis    = "redis"
	FailureStorePostgres = "postgres"
)

// Load reads configs/config.yaml, the environment overlay
// config.<APP_ENVIRONMENT>.yaml, .env files and process environment.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	return v
}

// bindEnvKeys registers every key so AutomaticEnv can override values
// that are absent from the YAML files.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.address", "server.admin_token",
		"brevo.api_key", "brevo.base_url", "brevo.timeout",
		"brevo.lists.newsletter", "brevo.lists.partnership_gp",
		"brevo.lists.partnership_lp", "brevo.lists.funding",
		"email.provider", "email.sender_email", "email.sender_name", "email.timezone",
		"forms.newsletter.notify_operator",
		"notifications.recipient", "notifications.sms.enabled", "notifications.sms.operator_phone",
		"notifications.failure_store.backend",
		"aws.region",
		"database.redis.address", "database.redis.password",
		"database.postgres.host", "database.postgres.user", "database.postgres.password",
		"logging.level", "logging.format",
		"observability.jaeger_endpoint",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found near the working directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig falls back to the variable names the marketing site
// has always been deployed with.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Brevo.APIKey == "" {
		cfg.Brevo.APIKey = os.Getenv("BREVO_API_KEY")
	}

	listEnv := []struct {
		target *int64
		name   string
	}{
		{&cfg.Brevo.Lists.Newsletter, "BREVO_NEWSLETTER_LIST_ID"},
		{&cfg.Brevo.Lists.PartnershipGP, "BREVO_PARTNERSHIP_GP_LIST_ID"},
		{&cfg.Brevo.Lists.PartnershipLP, "BREVO_PARTNERSHIP_LP_LIST_ID"},
		{&cfg.Brevo.Lists.Funding, "BREVO_FUNDING_LIST_ID"},
	}
	for _, l := range listEnv {
		if *l.target != 0 {
			continue
		}
		if id, ok := parseListID(os.Getenv(l.name)); ok {
			*l.target = id
		}
	}

	if cfg.Notifications.Recipient == "" {
		cfg.Notifications.Recipient = os.Getenv("NOTIFICATION_EMAIL")
	}

	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
}

// parseListID accepts positive integers only; anything else leaves the
// list unassigned.
func parseListID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "lead-intake"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadHeaderTimeout == 0 {
		cfg.Server.ReadHeaderTimeout = 5000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}

	if cfg.Brevo.BaseURL == "" {
		cfg.Brevo.BaseURL = "https://api.brevo.com/v3"
	}
	if cfg.Brevo.Timeout == 0 {
		cfg.Brevo.Timeout = 30000
	}

	if cfg.Email.Provider == "" {
		cfg.Email.Provider = ProviderBrevo
	}
	if cfg.Email.SenderName == "" {
		cfg.Email.SenderName = "Jason Reeder - JReeder REI Solutions"
	}
	if cfg.Email.SenderEmail == "" {
		cfg.Email.SenderEmail = "ceo@jreeder-reisolutions.com"
	}
	if cfg.Email.Timezone == "" {
		cfg.Email.Timezone = "America/Denver"
	}

	if cfg.Notifications.Recipient == "" {
		cfg.Notifications.Recipient = cfg.Email.SenderEmail
	}
	if cfg.Notifications.FailureStore.ListKey == "" {
		cfg.Notifications.FailureStore.ListKey = "lead-intake:delivery-failures"
	}
	if cfg.Notifications.FailureStore.MaxLength == 0 {
		cfg.Notifications.FailureStore.MaxLength = 1000
	}

	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-east-1"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 5
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
}

// validateConfig validates settings the process cannot start without.
// The Brevo API key is checked per request instead.
func validateConfig(cfg *Config) error {
	switch cfg.Email.Provider {
	case ProviderBrevo, ProviderSES:
	default:
		return fmt.Errorf("email.provider must be %q or %q, got %q", ProviderBrevo, ProviderSES, cfg.Email.Provider)
	}

	if cfg.Brevo.Timeout < 0 {
		return fmt.Errorf("brevo.timeout must not be negative")
	}

	if cfg.Notifications.SMS.Enabled && cfg.Notifications.SMS.OperatorPhone == "" {
		return fmt.Errorf("notifications.sms.operator_phone is required when sms is enabled")
	}

	switch cfg.Notifications.FailureStore.Backend {
	case "":
	case FailureStoreRedis:
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis failure store")
		}
	case FailureStorePostgres:
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required for the postgres failure store")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required for the postgres failure store")
		}
	default:
		return fmt.Errorf("unknown notifications.failure_store.backend %q", cfg.Notifications.FailureStore.Backend)
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
