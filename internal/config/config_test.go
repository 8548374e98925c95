package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears every bound variable and points HOME at an empty directory
// so no ambient config leaks into a test.
func isolate(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
	}
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	t.Setenv("MARKETDATA_API_TOKEN", "tok")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "tok", cfg.APIToken)
	assert.Equal(t, "https://api.marketdata.app/v1", cfg.BaseURL)
	assert.Equal(t, "ticker.txt", cfg.SymbolsFile)
	assert.Equal(t, "results.txt", cfg.OutputFile)
	assert.Empty(t, cfg.MetricsFile)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 11, cfg.LookbackMonths)
	assert.Zero(t, cfg.RequestsPerSecond)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoad_FromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("MARKETDATA_API_TOKEN", "tok")
	t.Setenv("MARKETDATA_BASE_URL", "https://test.marketdata.local/v1")
	t.Setenv("SYMBOLS_FILE", "in.txt")
	t.Setenv("OUTPUT_FILE", "out.txt")
	t.Setenv("CONCURRENCY", "3")
	t.Setenv("REQUEST_TIMEOUT", "10s")
	t.Setenv("LOOKBACK_MONTHS", "6")
	t.Setenv("REQUESTS_PER_SECOND", "2.5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("METRICS_FILE", "run.prom")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "https://test.marketdata.local/v1", cfg.BaseURL)
	assert.Equal(t, "in.txt", cfg.SymbolsFile)
	assert.Equal(t, "out.txt", cfg.OutputFile)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 6, cfg.LookbackMonths)
	assert.Equal(t, 2.5, cfg.RequestsPerSecond)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "run.prom", cfg.MetricsFile)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("MARKETDATA_API_TOKEN", "env-token")
	t.Setenv("CONCURRENCY", "3")

	cfg, err := Load([]string{
		"--api-token", "flag-token",
		"--concurrency", "7",
		"--request-timeout", "2s",
	})
	require.NoError(t, err)

	assert.Equal(t, "flag-token", cfg.APIToken)
	assert.Equal(t, 7, cfg.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
}

func TestLoad_ConfigFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "tickeravg.yaml")
	body := "api_token: file-token\nconcurrency: 4\noutput_file: averages.txt\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, "file-token", cfg.APIToken)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "averages.txt", cfg.OutputFile)

	t.Setenv("CONCURRENCY", "9")
	cfg, err = Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Concurrency, "env should override the config file")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	isolate(t)
	t.Setenv("MARKETDATA_API_TOKEN", "tok")

	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_MissingToken(t *testing.T) {
	isolate(t)

	_, err := Load(nil)
	require.Error(t, err)
	assert.Equal(t, "missing required configuration: MARKETDATA_API_TOKEN", err.Error())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"zero concurrency", []string{"--concurrency", "0"}, "concurrency"},
		{"zero timeout", []string{"--request-timeout", "0s"}, "request_timeout"},
		{"zero lookback", []string{"--lookback-months", "0"}, "lookback_months"},
		{"negative rate", []string{"--requests-per-second", "-1"}, "requests_per_second"},
		{"bad level", []string{"--log-level", "loud"}, "log_level"},
		{"bad format", []string{"--log-format", "xml"}, "log_format"},
		{"bad url", []string{"--base-url", "not a url"}, "base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv("MARKETDATA_API_TOKEN", "tok")

			_, err := Load(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad_Help(t *testing.T) {
	isolate(t)

	_, err := Load([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestLoad_UnknownFlag(t *testing.T) {
	isolate(t)

	_, err := Load([]string{"--frobnicate"})
	assert.Error(t, err)
}
