package partnership

import "fmt"

type Config struct {
	GPListID     int64  `mapstructure:"gp_list_id"`
	LPListID     int64  `mapstructure:"lp_list_id"`
	Recipient    string `mapstructure:"recipient"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

func DefaultConfig() *Config {
	return &Config{
		MaxBodyBytes: 1 << 20,
	}
}

func (c *Config) Validate() error {
	if c.GPListID < 0 || c.LPListID < 0 {
		return fmt.Errorf("list ids must not be negative")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}
	return nil
}
