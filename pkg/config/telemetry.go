package config

import (
	"fmt"
	"strings"
	"time"
)

// TelemetryConfig controls OTLP trace export. Metrics are always collected and
// exposed on /metrics when MetricsConfig.Enabled is set.
type TelemetryConfig struct {
	Enabled bool         `koanf:"enabled"`
	Traces  TracesConfig `koanf:"traces"`
}

type TracesConfig struct {
	OtlpHttp    OtlpHttpConfig `koanf:"otlphttp"`
	SampleRatio float64        `koanf:"sampleratio"`
}

type OtlpHttpConfig struct {
	Endpoint string        `koanf:"endpoint"`
	Insecure bool          `koanf:"insecure"`
	Timeout  time.Duration `koanf:"timeout"`
}

func (c *TelemetryConfig) String() string {
	t := c.Traces
	return section("Telemetry",
		field{"enabled", c.Enabled},
		field{"traces.otlphttp.endpoint", t.OtlpHttp.Endpoint},
		field{"traces.otlphttp.insecure", t.OtlpHttp.Insecure},
		field{"traces.otlphttp.timeout", t.OtlpHttp.Timeout},
		field{"traces.sampleratio", t.SampleRatio},
	)
}

func (c *TelemetryConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Traces.OtlpHttp.Endpoint == "" {
		return fmt.Errorf("OTel endpoint is not configured")
	}
	if c.Traces.OtlpHttp.Timeout <= 0 {
		return fmt.Errorf("telemetry timeout must be greater than 0")
	}
	if c.Traces.SampleRatio < 0 || c.Traces.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be between 0 and 1")
	}
	return nil
}

// MetricsConfig exposes the Prometheus scrape endpoint on the HTTP server.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

func (c *MetricsConfig) String() string {
	return section("Metrics", field{"enabled", c.Enabled}, field{"path", c.Path})
}

func (c *MetricsConfig) Validate() error {
	if c.Enabled && !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("metrics path must start with '/': %q", c.Path)
	}
	return nil
}
