package config

import (
	"fmt"
	"time"
)

// HTTPConfig configures the storefront REST listener.
type HTTPConfig struct {
	Port           int `koanf:"port"`
	MaxHeaderBytes int `koanf:"maxHeaderBytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readHeader"`
	} `koanf:"timeout"`
}

func (c *HTTPConfig) String() string {
	return section("HTTP Server",
		field{"port", c.Port},
		field{"maxHeaderBytes", c.MaxHeaderBytes},
		field{"timeout.read", c.Timeout.Read},
		field{"timeout.write", c.Timeout.Write},
		field{"timeout.idle", c.Timeout.Idle},
		field{"timeout.readHeader", c.Timeout.ReadHeader},
	)
}

func (c *HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.Port)
	}
	if c.MaxHeaderBytes < 0 {
		return fmt.Errorf("server.maxHeaderBytes must not be negative")
	}
	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{"read", c.Timeout.Read},
		{"write", c.Timeout.Write},
		{"idle", c.Timeout.Idle},
		{"readHeader", c.Timeout.ReadHeader},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			return fmt.Errorf("server.timeout.%s must be greater than 0, got %v", t.name, t.value)
		}
	}
	return nil
}
