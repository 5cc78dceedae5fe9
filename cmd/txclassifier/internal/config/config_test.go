package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/resultxdr"
)

func envFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.SetValues(envFrom(nil)))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "localhost:8000", cfg.Endpoint)
	assert.Equal(t, "", cfg.AdminEndpoint)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, "txclassifier.sqlite", cfg.SQLiteDBPath)
	assert.Equal(t, resultxdr.LayoutBare, cfg.ResultLayout)
	assert.Equal(t, uint32(10000), cfg.HistoryRetention)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, uint(512*1024), cfg.MaxRequestSize)
}

func TestLoadEnv(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.SetValues(envFrom(map[string]string{
		"ENDPOINT":          "0.0.0.0:9000",
		"LOG_LEVEL":         "debug",
		"LOG_FORMAT":        "json",
		"RESULT_LAYOUT":     "ledger",
		"HISTORY_RETENTION": "50",
		"REQUEST_TIMEOUT":   "1m",
	})))
	assert.Equal(t, "0.0.0.0:9000", cfg.Endpoint)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, resultxdr.LayoutLedger, cfg.ResultLayout)
	assert.Equal(t, uint32(50), cfg.HistoryRetention)
	assert.Equal(t, time.Minute, cfg.RequestTimeout)
}

func TestLoadEnvErrors(t *testing.T) {
	testCases := []struct {
		env map[string]string
		err string
	}{
		{map[string]string{"LOG_LEVEL": "loud"}, "could not parse log-level: \"loud\""},
		{map[string]string{"LOG_FORMAT": "xml"}, "could not parse log-format: unknown log format: xml"},
		{map[string]string{"RESULT_LAYOUT": "raw"}, "could not parse result-layout: unknown result layout \"raw\", expected bare or ledger"},
	}
	for _, tc := range testCases {
		var cfg Config
		require.EqualError(t, cfg.SetValues(envFrom(tc.env)), tc.err)
	}
}

func TestValidateConfig(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.SetValues(envFrom(map[string]string{
		"HISTORY_RETENTION": "0",
		"DB_PATH":           "",
	})))
	err := cfg.Validate()
	require.ErrorContains(t, err, "history-retention must be positive")
	require.ErrorContains(t, err, "db-path is required")
}

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "txclassifier.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfigFilePrecedence(t *testing.T) {
	path := writeConfigFile(t, strings.Join([]string{
		`ENDPOINT = "file:8000"`,
		`DB_PATH = "/var/lib/txclassifier.sqlite"`,
		`HISTORY_RETENTION = 20`,
		`CORS_ALLOWED_ORIGINS = ["https://a.example", "https://b.example"]`,
		`RESULT_LAYOUT = "ledger"`,
	}, "\n"))

	cmd := &cobra.Command{}
	var cfg Config
	require.NoError(t, cfg.AddFlags(cmd))
	require.NoError(t, cmd.ParseFlags([]string{"--history-retention", "30"}))

	require.NoError(t, cfg.SetValues(envFrom(map[string]string{
		"TXCLASSIFIER_CONFIG_PATH": path,
		"ENDPOINT":                 "env:8000",
	})))

	// env and flags override the file
	assert.Equal(t, "env:8000", cfg.Endpoint)
	assert.Equal(t, uint32(30), cfg.HistoryRetention)
	// values only in the file are kept
	assert.Equal(t, "/var/lib/txclassifier.sqlite", cfg.SQLiteDBPath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, resultxdr.LayoutLedger, cfg.ResultLayout)
}

func TestConfigFileStrict(t *testing.T) {
	path := writeConfigFile(t, "STRICT = true\nUNKNOWN_KEY = 1\n")

	var cfg Config
	err := cfg.SetValues(envFrom(map[string]string{"TXCLASSIFIER_CONFIG_PATH": path}))
	require.EqualError(t, err, "invalid config: unexpected entry specified in toml file \"UNKNOWN_KEY\"")

	path = writeConfigFile(t, "UNKNOWN_KEY = 1\n")
	cfg = Config{}
	require.NoError(t, cfg.SetValues(envFrom(map[string]string{"TXCLASSIFIER_CONFIG_PATH": path})))
}

func TestMarshalTOMLRoundTrip(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.SetValues(envFrom(map[string]string{
		"LOG_LEVEL":        "warn",
		"RESULT_LAYOUT":    "ledger",
		"REQUEST_TIMEOUT":  "3s",
		"MAX_REQUEST_SIZE": "1024",
	})))

	out, err := cfg.MarshalTOML()
	require.NoError(t, err)
	assert.Regexp(t, `LOG_LEVEL\s*=\s*"warning"`, string(out))
	assert.NotContains(t, string(out), "CONFIG_PATH")

	var loaded Config
	require.NoError(t, loaded.loadDefaults())
	require.NoError(t, parseToml(bytes.NewReader(out), true, &loaded))

	assert.Equal(t, logrus.WarnLevel, loaded.LogLevel)
	assert.Equal(t, resultxdr.LayoutLedger, loaded.ResultLayout)
	assert.Equal(t, 3*time.Second, loaded.RequestTimeout)
	assert.Equal(t, uint(1024), loaded.MaxRequestSize)
	assert.Equal(t, cfg.CORSAllowedOrigins, loaded.CORSAllowedOrigins)
}

func TestAddFlagsUsage(t *testing.T) {
	cmd := &cobra.Command{}
	var cfg Config
	require.NoError(t, cfg.AddFlags(cmd))

	flag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, flag)
	assert.Equal(t, "info", flag.DefValue)
	assert.Contains(t, flag.Usage, "(LOG_LEVEL)")

	require.NoError(t, cmd.ParseFlags([]string{"--log-level", "error", "--result-layout", "ledger"}))
	require.NoError(t, cfg.SetValues(envFrom(nil)))
	assert.Equal(t, logrus.ErrorLevel, cfg.LogLevel)
	assert.Equal(t, resultxdr.LayoutLedger, cfg.ResultLayout)
}
