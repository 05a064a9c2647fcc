package newsletter

import "fmt"

type Config struct {
	ListID         int64  `mapstructure:"list_id"`
	NotifyOperator bool   `mapstructure:"notify_operator"`
	Recipient      string `mapstructure:"recipient"`
	MaxBodyBytes   int64  `mapstructure:"max_body_bytes"`
}

func DefaultConfig() *Config {
	return &Config{
		MaxBodyBytes: 1 << 20,
	}
}

func (c *Config) Validate() error {
	if c.ListID < 0 {
		return fmt.Errorf("list_id must not be negative")
	}
	if c.NotifyOperator && c.Recipient == "" {
		return fmt.Errorf("recipient is required when notify_operator is set")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}
	return nil
}
