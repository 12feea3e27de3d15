package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/webstore/pkg/config"
	"github.com/abgdnv/webstore/pkg/config/configloader"
)

var _ configloader.Validator = (*NotifierConfig)(nil)

// NotifierConfig is the configuration of the event consumer.
type NotifierConfig struct {
	Nats       config.NATSConfig       `koanf:"nats"`
	Subscriber config.SubscriberConfig `koanf:"subscriber"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

func (c *NotifierConfig) String() string {
	var b strings.Builder
	b.WriteString(c.Nats.String())
	b.WriteString(c.Subscriber.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

func (c *NotifierConfig) Validate() error {
	if !c.Nats.Enabled {
		return fmt.Errorf("nats must be enabled for the notifier")
	}
	for _, v := range []configloader.Validator{&c.Nats, &c.Subscriber, &c.Telemetry, &c.Log, &c.PProf, &c.Shutdown} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
