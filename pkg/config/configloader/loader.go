// Package configloader reads a service configuration with koanf.
//
// Sources are applied in increasing priority:
//
//	config.yaml (or the file named by <SERVICE>_CONFIG_FILE)
//	.env in the working directory, <SERVICE>_ keys only
//	<SERVICE>_ environment variables
//
// Keys are matched case-insensitively, and "_" in a variable name is a level
// separator, so STOREFRONT_STORAGE_KV_DRIVER sets storage.kv.driver.
package configloader

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultConfigFile = "config.yaml"
	dotEnvFile        = ".env"
)

// Validator is implemented by every loadable configuration.
type Validator interface {
	Validate() error
}

// Load reads the configuration of serviceName from its default sources.
func Load[T Validator](serviceName string) (T, error) {
	configFile := os.Getenv(envPrefix(serviceName) + "CONFIG_FILE")
	if configFile == "" {
		configFile = defaultConfigFile
	}
	return LoadFile[T](serviceName, configFile)
}

// LoadFile is Load with an explicit yaml file. A missing file is not an error,
// the remaining sources and Validate decide whether the result is usable.
func LoadFile[T Validator](serviceName, configFile string) (T, error) {
	var cfg T
	prefix := envPrefix(serviceName)
	k := koanf.New(".")

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !os.IsNotExist(err) {
		slog.Warn("Ignoring config file", slog.String("file", configFile), slog.Any("error", err))
	}
	if err := loadDotEnv(k, prefix); err != nil {
		slog.Warn("Ignoring .env file", slog.Any("error", err))
	}
	if err := k.Load(env.Provider(prefix, ".", keyMapper(prefix)), nil); err != nil {
		slog.Warn("Ignoring environment", slog.Any("error", err))
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling %s config: %w", serviceName, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func envPrefix(serviceName string) string {
	return strings.ToUpper(serviceName) + "_"
}

// keyMapper turns STOREFRONT_CATALOG_PAGESIZE into catalog.pagesize.
func keyMapper(prefix string) func(string) string {
	lower := strings.ToLower(prefix)
	return func(key string) string {
		key = strings.TrimPrefix(strings.ToLower(key), lower)
		return strings.ReplaceAll(key, "_", ".")
	}
}

func loadDotEnv(k *koanf.Koanf, prefix string) error {
	vars, err := godotenv.Read(dotEnvFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	mapKey := keyMapper(prefix)
	values := make(map[string]any, len(vars))
	for key, value := range vars {
		if strings.HasPrefix(strings.ToUpper(key), prefix) {
			values[mapKey(key)] = value
		}
	}
	return k.Load(confmap.Provider(values, "."), nil)
}
