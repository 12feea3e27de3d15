// Package config holds the configuration of the storefront binaries.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/webstore/pkg/config"
	"github.com/abgdnv/webstore/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConfig selects the backends of the product catalog and of the
// identity-keyed values (favorites, carts).
type StorageConfig struct {
	Catalog string `koanf:"catalog"`
	KV      struct {
		Driver string `koanf:"driver"`
		Path   string `koanf:"path"`
	} `koanf:"kv"`
	Seed bool `koanf:"seed"`
}

func (c *StorageConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  catalog: %s\n", c.Catalog))
	b.WriteString(fmt.Sprintf("  kv.driver: %s\n", c.KV.Driver))
	b.WriteString(fmt.Sprintf("  kv.path: %s\n", c.KV.Path))
	b.WriteString(fmt.Sprintf("  seed: %t\n", c.Seed))
	return b.String()
}

func (c *StorageConfig) Validate() error {
	switch c.Catalog {
	case DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("storage.catalog must be %s or %s, got %q", DriverMemory, DriverPostgres, c.Catalog)
	}
	switch c.KV.Driver {
	case DriverMemory, DriverPostgres:
	case DriverSQLite:
		if c.KV.Path == "" {
			return fmt.Errorf("storage.kv.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("storage.kv.driver must be %s, %s or %s, got %q", DriverMemory, DriverSQLite, DriverPostgres, c.KV.Driver)
	}
	return nil
}

// UsesPostgres reports whether any backend needs the database.
func (c *StorageConfig) UsesPostgres() bool {
	return c.Catalog == DriverPostgres || c.KV.Driver == DriverPostgres
}

// CatalogConfig tunes the product listing.
type CatalogConfig struct {
	PageSize int           `koanf:"pagesize"`
	Latency  time.Duration `koanf:"latency"`
	Slots    int           `koanf:"slots"`
}

func (c *CatalogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  pagesize: %d\n", c.PageSize))
	b.WriteString(fmt.Sprintf("  latency: %s\n", c.Latency))
	b.WriteString(fmt.Sprintf("  slots: %d\n", c.Slots))
	return b.String()
}

func (c *CatalogConfig) Validate() error {
	if c.PageSize < 0 || c.PageSize > 100 {
		return fmt.Errorf("catalog.pagesize must be between 0 and 100, got %d", c.PageSize)
	}
	if c.Latency < 0 {
		return fmt.Errorf("catalog.latency must not be negative")
	}
	if c.Slots < 0 {
		return fmt.Errorf("catalog.slots must not be negative")
	}
	return nil
}

// Config is the configuration of the storefront service.
type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Database   config.DatabaseConfig   `koanf:"database"`
	Storage    StorageConfig           `koanf:"storage"`
	Nats       config.NATSConfig       `koanf:"nats"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Metrics    config.MetricsConfig    `koanf:"metrics"`
	Catalog    CatalogConfig           `koanf:"catalog"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	if c.Storage.UsesPostgres() {
		b.WriteString(c.Database.String())
	}
	b.WriteString(c.Storage.String())
	b.WriteString(c.Nats.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Metrics.String())
	b.WriteString(c.Catalog.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks every section. The database is validated only when a postgres backend is selected.
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer, &c.GRPC, &c.Storage, &c.Nats, &c.Telemetry,
		&c.Metrics, &c.Catalog, &c.Log, &c.PProf, &c.Shutdown,
	}
	if c.Storage.UsesPostgres() {
		validators = append(validators, &c.Database)
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
