package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSection(t *testing.T) {
	out := section("Catalog", field{"pagesize", 8}, field{"latency", 250 * time.Millisecond})
	assert.Equal(t, "\n--- Catalog ---\n  pagesize: 8\n  latency: 250ms\n", out)
}

func TestMaskURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "", want: "<not configured>"},
		{name: "password is redacted", raw: "postgres://shop:secret@db:5432/shop", want: "postgres://shop:xxxxx@db:5432/shop"},
		{name: "no credentials", raw: "postgres://db:5432/shop", want: "postgres://db:5432/shop"},
		{name: "unparseable", raw: "postgres://%zz", want: "****"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskURL(tt.raw))
		})
	}
}

func TestDatabaseConfig_String_DoesNotLeakPassword(t *testing.T) {
	cfg := DatabaseConfig{URL: "postgres://shop:secret@db:5432/shop", Timeout: time.Second}
	assert.NotContains(t, cfg.String(), "secret")
	assert.Contains(t, cfg.String(), "--- Database ---")
}

func TestValidate(t *testing.T) {
	validDB := func() *DatabaseConfig {
		return &DatabaseConfig{URL: "postgres://shop:secret@db:5432/shop", Timeout: time.Second, MaxConns: 4}
	}
	validSubscriber := func() *SubscriberConfig {
		return &SubscriberConfig{
			Stream:   "STOREFRONT",
			Subjects: []string{"catalog.>"},
			Consumer: "notifier",
			Batch:    10,
			Timeout:  time.Second,
			Interval: time.Second,
			Workers:  1,
		}
	}

	tests := []struct {
		name    string
		section interface{ Validate() error }
		wantErr string
	}{
		{name: "database ok", section: validDB()},
		{name: "database without url", section: &DatabaseConfig{Timeout: time.Second}, wantErr: "database URL is not configured"},
		{name: "database wrong scheme", section: &DatabaseConfig{URL: "mysql://db/shop", Timeout: time.Second}, wantErr: "postgres://host/db"},
		{name: "database without timeout", section: &DatabaseConfig{URL: "postgres://db/shop"}, wantErr: "timeout"},
		{name: "grpc server port not numeric", section: &GrpcServerConfig{Port: "grpc"}, wantErr: "invalid gRPC port"},
		{name: "grpc server port out of range", section: &GrpcServerConfig{Port: "70000"}, wantErr: "invalid gRPC port"},
		{name: "grpc client without addr", section: &GrpcClientConfig{Timeout: time.Second}, wantErr: "gRPC address"},
		{name: "log level unknown", section: &LogConfig{Level: "trace"}, wantErr: "log.level"},
		{name: "log level any case", section: &LogConfig{Level: "DEBUG"}},
		{name: "pprof disabled ignores addr", section: &PProfConfig{Addr: "nonsense"}},
		{name: "pprof addr without port", section: &PProfConfig{Enabled: true, Addr: "localhost"}, wantErr: "pprof.addr"},
		{name: "shutdown timeout missing", section: &ShutdownConfig{}, wantErr: "shutdown timeout"},
		{name: "nats disabled", section: &NATSConfig{}},
		{name: "nats bad scheme", section: &NATSConfig{Enabled: true, Url: "http://nats:4222", Timeout: time.Second, Stream: "S"}, wantErr: "nats.url"},
		{name: "nats without stream", section: &NATSConfig{Enabled: true, Url: "nats://nats:4222", Timeout: time.Second}, wantErr: "stream"},
		{name: "subscriber ok", section: validSubscriber()},
		{name: "subscriber blank subject", section: func() *SubscriberConfig {
			c := validSubscriber()
			c.Subjects = append(c.Subjects, " ")
			return c
		}(), wantErr: "empty subject"},
		{name: "subscriber without workers", section: func() *SubscriberConfig {
			c := validSubscriber()
			c.Workers = 0
			return c
		}(), wantErr: "subscriber.workers"},
		{name: "metrics path", section: &MetricsConfig{Enabled: true, Path: "metrics"}, wantErr: "metrics path"},
		{name: "telemetry ratio", section: &TelemetryConfig{Enabled: true, Traces: TracesConfig{
			OtlpHttp:    OtlpHttpConfig{Endpoint: "otel:4318", Timeout: time.Second},
			SampleRatio: 2,
		}}, wantErr: "sample ratio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// when
			err := tt.section.Validate()

			// then
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHTTPConfig_Validate_NamesTimeout(t *testing.T) {
	var cfg HTTPConfig
	cfg.Port = 8080
	cfg.Timeout.Read = time.Second
	cfg.Timeout.Write = time.Second
	cfg.Timeout.Idle = time.Second

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.timeout.readHeader")
}

func TestResilienceConfig_Validate(t *testing.T) {
	cfg := ResilienceConfig{
		Retry:          RetryConfig{MaxAttempts: 3, InitialBackoff: 100 * time.Millisecond},
		CircuitBreaker: CircuitBreakerConfig{ConsecutiveFailures: 5, ErrorRatePercent: 50, MinRequests: 10, OpenTimeout: time.Second},
	}
	require.NoError(t, cfg.Validate())

	cfg.CircuitBreaker.ErrorRatePercent = 101
	assert.ErrorContains(t, cfg.Validate(), "errorratepercent")
}
