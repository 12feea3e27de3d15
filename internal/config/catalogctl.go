package config

import (
	"strings"

	"github.com/abgdnv/webstore/pkg/config"
	"github.com/abgdnv/webstore/pkg/config/configloader"
)

var _ configloader.Validator = (*CtlConfig)(nil)

// CtlConfig is the configuration of the catalogctl command line client.
type CtlConfig struct {
	Client config.GrpcClientConfig `koanf:"client"`
	Log    config.LogConfig        `koanf:"log"`
}

func (c *CtlConfig) String() string {
	var b strings.Builder
	b.WriteString(c.Client.String())
	b.WriteString(c.Log.String())
	return b.String()
}

func (c *CtlConfig) Validate() error {
	if err := c.Client.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
