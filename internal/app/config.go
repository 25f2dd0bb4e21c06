package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/vk/regionfactory/internal/bridge"
)

// EnvPrefix prefixes every environment variable the configuration reads,
// e.g. REGIONFACTORY_LOG_LEVEL.
const EnvPrefix = "REGIONFACTORY"

// Configuration keys, shared by flags, environment and config file.
const (
	KeyLogLevel      = "log-level"
	KeyLogFormat     = "log-format"
	KeyNamespaces    = "namespace"
	KeyBridgeRoot    = "bridge-root"
	KeyBridgeLibrary = "bridge-library"
	KeyPython        = "python"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	LogFormat string
	LogLevel  string

	// Namespaces are appended to the default foreign search path.
	Namespaces []string
	// BridgeRoot, if set, replaces installation root discovery.
	BridgeRoot    string
	BridgeLibrary string
	Python        string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	for _, ns := range cfg.Namespaces {
		if strings.TrimSpace(ns) == "" {
			return nil, errors.New("namespace entries cannot be empty")
		}
	}
	if cfg.Python == "" {
		cfg.Python = "python"
	}
	return &cfg, nil
}

// NewViper returns a viper instance reading REGIONFACTORY_* variables and,
// if configFile is non-empty, that YAML file.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyPython, "python")

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

// ConfigFromViper reads and validates the configuration held by v.
func ConfigFromViper(v *viper.Viper) (*Config, error) {
	return NewConfig(Config{
		LogLevel:      v.GetString(KeyLogLevel),
		LogFormat:     v.GetString(KeyLogFormat),
		Namespaces:    v.GetStringSlice(KeyNamespaces),
		BridgeRoot:    v.GetString(KeyBridgeRoot),
		BridgeLibrary: v.GetString(KeyBridgeLibrary),
		Python:        v.GetString(KeyPython),
	})
}

// BridgeOptions translates the bridge settings into loader options.
func (c *Config) BridgeOptions() bridge.Options {
	opts := bridge.Options{LibraryName: c.BridgeLibrary}
	if c.BridgeRoot != "" {
		opts.Discoverer = bridge.StaticDiscoverer(c.BridgeRoot)
	} else {
		opts.Discoverer = bridge.PythonDiscoverer(c.Python)
	}
	return opts
}
