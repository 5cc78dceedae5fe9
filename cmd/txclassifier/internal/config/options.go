package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/resultxdr"
)

const (
	defaultHTTPEndpoint     = "localhost:8000"
	defaultHistoryRetention = 10000
	defaultRequestTimeout   = 5 * time.Second
	defaultMaxRequestSize   = 512 * 1024
)

//nolint:funlen // the option table is long by nature
func (cfg *Config) options() Options {
	if cfg.optionsCache != nil {
		return *cfg.optionsCache
	}
	cfg.optionsCache = &Options{
		{
			Name:      "config-path",
			EnvVar:    "TXCLASSIFIER_CONFIG_PATH",
			TomlKey:   "-",
			Usage:     "File path to the toml configuration file",
			ConfigKey: &cfg.ConfigPath,
		},
		{
			Name:         "config-strict",
			EnvVar:       "TXCLASSIFIER_CONFIG_STRICT",
			TomlKey:      "STRICT",
			Usage:        "Enable strict toml configuration file parsing. This will prevent unknown fields in the config toml from being parsed.",
			ConfigKey:    &cfg.Strict,
			DefaultValue: false,
		},
		{
			Name:         "endpoint",
			Usage:        "Endpoint to listen and serve on",
			ConfigKey:    &cfg.Endpoint,
			DefaultValue: defaultHTTPEndpoint,
			Validate:     required,
		},
		{
			Name:      "admin-endpoint",
			Usage:     "Admin endpoint to listen and serve on. WARNING: this should not be accessible from the Internet and does not use TLS. \"\" (default) disables the admin server",
			ConfigKey: &cfg.AdminEndpoint,
		},
		{
			Name:         "cors-allowed-origins",
			Usage:        "Comma separated list of origins allowed to call the JSON-RPC endpoint from a browser",
			ConfigKey:    &cfg.CORSAllowedOrigins,
			DefaultValue: []string{"*"},
		},
		{
			Name:         "log-level",
			Usage:        "minimum log severity (debug, info, warn, error) to log",
			ConfigKey:    &cfg.LogLevel,
			DefaultValue: logrus.InfoLevel,
			CustomSetValue: func(option *Option, i interface{}) error {
				switch v := i.(type) {
				case nil:
					return nil
				case string:
					ll, err := logrus.ParseLevel(v)
					if err != nil {
						return fmt.Errorf("could not parse %s: %q", option.Name, v)
					}
					cfg.LogLevel = ll
				case logrus.Level:
					cfg.LogLevel = v
				case *logrus.Level:
					cfg.LogLevel = *v
				default:
					return fmt.Errorf("could not parse %s: %q", option.Name, v)
				}
				return nil
			},
			MarshalTOML: func(_ *Option) (interface{}, error) {
				return cfg.LogLevel.String(), nil
			},
		},
		{
			Name:         "log-format",
			Usage:        "format used for output logs (json or text)",
			ConfigKey:    &cfg.LogFormat,
			DefaultValue: LogFormatText,
			CustomSetValue: func(option *Option, i interface{}) error {
				switch v := i.(type) {
				case nil:
					return nil
				case string:
					if err := cfg.LogFormat.UnmarshalText([]byte(v)); err != nil {
						return fmt.Errorf("could not parse %s: %w", option.Name, err)
					}
				case LogFormat:
					cfg.LogFormat = v
				case *LogFormat:
					cfg.LogFormat = *v
				default:
					return fmt.Errorf("could not parse %s: %q", option.Name, v)
				}
				return nil
			},
			MarshalTOML: func(_ *Option) (interface{}, error) {
				return cfg.LogFormat.String(), nil
			},
		},
		{
			Name:         "db-path",
			Usage:        "SQLite DB path where the classification history is kept",
			ConfigKey:    &cfg.SQLiteDBPath,
			DefaultValue: "txclassifier.sqlite",
			Validate:     required,
		},
		{
			Name:         "result-layout",
			Usage:        "layout of result records to decode by default: bare (result code first) or ledger (fee charged first, as served by Horizon)",
			ConfigKey:    &cfg.ResultLayout,
			DefaultValue: resultxdr.LayoutBare,
			CustomSetValue: func(option *Option, i interface{}) error {
				switch v := i.(type) {
				case nil:
					return nil
				case string:
					layout, err := resultxdr.ParseLayout(v)
					if err != nil {
						return fmt.Errorf("could not parse %s: %w", option.Name, err)
					}
					cfg.ResultLayout = layout
				case resultxdr.Layout:
					cfg.ResultLayout = v
				default:
					return fmt.Errorf("could not parse %s: %q", option.Name, v)
				}
				return nil
			},
			MarshalTOML: func(_ *Option) (interface{}, error) {
				return cfg.ResultLayout.String(), nil
			},
		},
		{
			Name:         "history-retention",
			Usage:        "number of most recent classifications kept in the history store",
			ConfigKey:    &cfg.HistoryRetention,
			DefaultValue: uint32(defaultHistoryRetention),
			Validate:     positive,
		},
		{
			Name:         "request-timeout",
			Usage:        "timeout applied to every JSON-RPC request",
			ConfigKey:    &cfg.RequestTimeout,
			DefaultValue: defaultRequestTimeout,
			Validate:     positive,
		},
		{
			Name:         "max-request-size",
			Usage:        "maximum size in bytes of a JSON-RPC request body",
			ConfigKey:    &cfg.MaxRequestSize,
			DefaultValue: uint(defaultMaxRequestSize),
			Validate:     positive,
		},
	}
	return *cfg.optionsCache
}
