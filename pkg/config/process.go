package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// LogConfig selects the minimum level of the JSON logger. Empty means info.
type LogConfig struct {
	Level string `koanf:"level"`
}

func (c *LogConfig) String() string {
	return section("Log", field{"level", c.Level})
}

func (c *LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Level)
}

// PProfConfig serves net/http/pprof on a dedicated listener.
type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func (c *PProfConfig) String() string {
	return section("PProf", field{"enabled", c.Enabled}, field{"addr", c.Addr})
}

func (c *PProfConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("pprof.addr must be host:port, got %q", c.Addr)
	}
	return nil
}

// ShutdownConfig bounds the graceful stop of every server.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) String() string {
	return section("Shutdown", field{"timeout", c.Timeout})
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown timeout is not configured")
	}
	return nil
}
