package config

import (
	"fmt"
	"net/url"
	"time"
)

// DatabaseConfig is the PostgreSQL connection of the catalog and kv backends.
// Migrate applies the embedded migrations at startup.
type DatabaseConfig struct {
	URL      string        `koanf:"url"`
	Timeout  time.Duration `koanf:"timeout"`
	MaxConns int32         `koanf:"maxconns"`
	Migrate  bool          `koanf:"migrate"`
}

func (c *DatabaseConfig) String() string {
	return section("Database",
		field{"url", MaskURL(c.URL)},
		field{"timeout", c.Timeout},
		field{"maxconns", c.MaxConns},
		field{"migrate", c.Migrate},
	)
}

func (c *DatabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") || u.Host == "" {
		return fmt.Errorf("database URL must be postgres://host/db: %s", MaskURL(c.URL))
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("database connect timeout must be greater than 0")
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("database maxconns must not be negative")
	}
	return nil
}

// MaskURL hides the password of a connection URL.
func MaskURL(raw string) string {
	if raw == "" {
		return "<not configured>"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "****"
	}
	return u.Redacted()
}
