// Package config loads the txclassifier daemon configuration from defaults,
// environment variables, command line flags and a toml file.
package config

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/resultxdr"
)

// Config represents the configuration of a txclassifier server
type Config struct {
	ConfigPath string

	Strict bool

	Endpoint           string
	AdminEndpoint      string
	CORSAllowedOrigins []string
	LogLevel           logrus.Level
	LogFormat          LogFormat
	SQLiteDBPath       string
	ResultLayout       resultxdr.Layout
	HistoryRetention   uint32
	RequestTimeout     time.Duration
	MaxRequestSize     uint

	optionsCache *Options
	flagset      *pflag.FlagSet
}

// SetValues sets the config values, in order of precedence:
// defaults, env vars, cli flags, then the config file (if any), whose values
// are in turn overridden by env vars and cli flags.
func (cfg *Config) SetValues(lookupEnv func(string) (string, bool)) error {
	// We start with the defaults
	if err := cfg.loadDefaults(); err != nil {
		return err
	}

	if err := cfg.loadEnv(lookupEnv); err != nil {
		return err
	}

	if err := cfg.loadFlags(); err != nil {
		return err
	}

	if cfg.ConfigPath == "" {
		return nil
	}

	if err := cfg.loadConfigPath(); err != nil {
		return err
	}

	// env vars and cli flags win over the config file
	if err := cfg.loadEnv(lookupEnv); err != nil {
		return err
	}

	return cfg.loadFlags()
}

func (cfg *Config) loadDefaults() error {
	for _, option := range cfg.options() {
		if option.ConfigKey != nil && option.DefaultValue != nil {
			if err := option.setValue(option.DefaultValue); err != nil {
				return err
			}
		}
	}
	return nil
}

func (cfg *Config) loadEnv(lookupEnv func(string) (string, bool)) error {
	for _, option := range cfg.options() {
		key, ok := option.getEnvKey()
		if !ok {
			continue
		}
		value, ok := lookupEnv(key)
		if !ok {
			continue
		}
		if err := option.setValue(value); err != nil {
			return err
		}
	}
	return nil
}

func (cfg *Config) loadFlags() error {
	if cfg.flagset == nil {
		return nil
	}

	for _, option := range cfg.options() {
		if option.flag == nil || !option.flag.Changed {
			continue
		}
		val, err := option.GetFlag(cfg.flagset)
		if err != nil {
			return err
		}
		if err := option.setValue(val); err != nil {
			return err
		}
	}
	return nil
}

func (cfg *Config) loadConfigPath() error {
	file, err := os.Open(cfg.ConfigPath)
	if err != nil {
		return err
	}
	defer file.Close()
	return parseToml(file, cfg.Strict, cfg)
}

func (cfg *Config) Validate() error {
	return cfg.options().Validate()
}
