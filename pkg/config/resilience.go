package config

import (
	"errors"
	"time"
)

type ResilienceConfig struct {
	Retry          RetryConfig          `koanf:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

// RetryConfig retries transient failures with exponential backoff.
type RetryConfig struct {
	MaxAttempts    uint          `koanf:"maxattempts"`
	InitialBackoff time.Duration `koanf:"initialbackoff"`
}

// CircuitBreakerConfig trips the breaker after ConsecutiveFailures failed calls,
// or when the failure ratio of at least MinRequests calls reaches ErrorRatePercent.
type CircuitBreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	ErrorRatePercent    int           `koanf:"errorratepercent"`
	MinRequests         uint32        `koanf:"minrequests"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
}

func (c *ResilienceConfig) String() string {
	cb := c.CircuitBreaker
	return section("Retry",
		field{"maxattempts", c.Retry.MaxAttempts},
		field{"initialbackoff", c.Retry.InitialBackoff},
	) + section("Circuit Breaker",
		field{"consecutivefailures", cb.ConsecutiveFailures},
		field{"errorratepercent", cb.ErrorRatePercent},
		field{"minrequests", cb.MinRequests},
		field{"opentimeout", cb.OpenTimeout},
	)
}

func (c *ResilienceConfig) Validate() error {
	cb := c.CircuitBreaker
	switch {
	case c.Retry.MaxAttempts == 0:
		return errors.New("retry.maxattempts must be greater than 0")
	case c.Retry.InitialBackoff <= 0:
		return errors.New("retry.initialbackoff must be greater than 0")
	case cb.ConsecutiveFailures == 0:
		return errors.New("circuitbreaker.consecutivefailures must be greater than 0")
	case cb.ErrorRatePercent < 0 || cb.ErrorRatePercent > 100:
		return errors.New("circuitbreaker.errorratepercent must be between 0 and 100")
	case cb.OpenTimeout <= 0:
		return errors.New("circuitbreaker.opentimeout must be greater than 0")
	}
	return nil
}
