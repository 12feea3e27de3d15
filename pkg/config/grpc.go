package config

import (
	"fmt"
	"strconv"
	"time"
)

type GrpcServerConfig struct {
	Port              string `koanf:"port"`
	ReflectionEnabled bool   `koanf:"reflection"`
}

func (c *GrpcServerConfig) String() string {
	return section("gRPC Server", field{"port", c.Port}, field{"reflection", c.ReflectionEnabled})
}

func (c *GrpcServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("gRPC port is not configured")
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid gRPC port: %q", c.Port)
	}
	return nil
}

// GrpcClientConfig describes how catalogctl reaches the storefront gRPC API.
type GrpcClientConfig struct {
	Addr       string           `koanf:"addr"`
	Timeout    time.Duration    `koanf:"timeout"`
	Resilience ResilienceConfig `koanf:"resilience"`
}

func (c *GrpcClientConfig) String() string {
	return section("gRPC Client", field{"addr", c.Addr}, field{"timeout", c.Timeout}) + c.Resilience.String()
}

func (c *GrpcClientConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("gRPC address is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("gRPC timeout is not configured")
	}
	if err := c.Resilience.Validate(); err != nil {
		return fmt.Errorf("resilience: %w", err)
	}
	return nil
}
