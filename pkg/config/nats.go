package config

import (
	"fmt"
	"strings"
	"time"
)

// NATSConfig configures the JetStream connection used for catalog and order events.
// When Enabled is false events are dropped by a no-op publisher.
type NATSConfig struct {
	Enabled bool          `koanf:"enabled"`
	Url     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	Stream  string        `koanf:"stream"`
}

func (c *NATSConfig) String() string {
	return section("NATS",
		field{"enabled", c.Enabled},
		field{"url", c.Url},
		field{"timeout", c.Timeout},
		field{"stream", c.Stream},
	)
}

func (c *NATSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if !strings.HasPrefix(c.Url, "nats://") && !strings.HasPrefix(c.Url, "tls://") {
		return fmt.Errorf("nats.url must start with nats:// or tls://, got %q", c.Url)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("nats dial timeout is not configured")
	}
	if c.Stream == "" {
		return fmt.Errorf("nats stream is not configured")
	}
	return nil
}

// SubscriberConfig configures a durable pull consumer. Subjects are filter
// subjects of the consumer, e.g. "catalog.>" and "orders.created".
type SubscriberConfig struct {
	Stream   string        `koanf:"stream"`
	Subjects []string      `koanf:"subjects"`
	Consumer string        `koanf:"consumer"`
	Batch    int           `koanf:"batch"`
	Timeout  time.Duration `koanf:"timeout"`
	Interval time.Duration `koanf:"interval"`
	Workers  int           `koanf:"workers"`
}

func (c *SubscriberConfig) String() string {
	return section("NATS Subscriber",
		field{"stream", c.Stream},
		field{"subjects", strings.Join(c.Subjects, ",")},
		field{"consumer", c.Consumer},
		field{"batch", c.Batch},
		field{"timeout", c.Timeout},
		field{"interval", c.Interval},
		field{"workers", c.Workers},
	)
}

func (c *SubscriberConfig) Validate() error {
	switch {
	case c.Stream == "":
		return fmt.Errorf("subscriber.stream is not configured")
	case len(c.Subjects) == 0:
		return fmt.Errorf("subscriber.subjects are not configured")
	case c.Consumer == "":
		return fmt.Errorf("subscriber.consumer is not configured")
	case c.Batch <= 0 || c.Workers <= 0:
		return fmt.Errorf("subscriber.batch and subscriber.workers must be greater than zero")
	case c.Timeout <= 0 || c.Interval <= 0:
		return fmt.Errorf("subscriber.timeout and subscriber.interval must be greater than zero")
	}
	for _, s := range c.Subjects {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("subscriber.subjects contains an empty subject")
		}
	}
	return nil
}
