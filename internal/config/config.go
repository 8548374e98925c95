package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for a tickeravg run.
type Config struct {
	// API access
	APIToken string `mapstructure:"api_token" validate:"required"`
	BaseURL  string `mapstructure:"base_url" default:"https://api.marketdata.app/v1" validate:"required,url"`

	// Input and output
	SymbolsFile string `mapstructure:"symbols_file" default:"ticker.txt" validate:"required"`
	OutputFile  string `mapstructure:"output_file" default:"results.txt" validate:"required"`
	MetricsFile string `mapstructure:"metrics_file"`

	// Fetch policy
	Concurrency       int           `mapstructure:"concurrency" default:"5" validate:"min=1"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" default:"30s" validate:"gt=0"`
	LookbackMonths    int           `mapstructure:"lookback_months" default:"11" validate:"min=1,max=120"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" default:"0" validate:"gte=0"`

	// Logging
	LogLevel  string `mapstructure:"log_level" default:"info" validate:"oneof=trace debug info warn error"`
	LogFormat string `mapstructure:"log_format" default:"console" validate:"oneof=console json"`
}

// envBindings maps config keys to the environment variables that set them
var envBindings = map[string]string{
	"api_token":           "MARKETDATA_API_TOKEN",
	"base_url":            "MARKETDATA_BASE_URL",
	"symbols_file":        "SYMBOLS_FILE",
	"output_file":         "OUTPUT_FILE",
	"metrics_file":        "METRICS_FILE",
	"concurrency":         "CONCURRENCY",
	"request_timeout":     "REQUEST_TIMEOUT",
	"lookback_months":     "LOOKBACK_MONTHS",
	"requests_per_second": "REQUESTS_PER_SECOND",
	"log_level":           "LOG_LEVEL",
	"log_format":          "LOG_FORMAT",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	return v
}

// Load reads configuration from command-line args, environment variables and
// an optional YAML config file, in that order of precedence, on top of the
// struct defaults.
//
// The config file is the one given by --config, or config.yaml found in the
// working directory or $HOME/.tickeravg. A missing default config file is not
// an error; a missing --config file is.
func Load(args []string) (*Config, error) {
	config := &Config{}
	if err := defaults.Set(config); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	flags := newFlagSet(config)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")

	configFile, _ := flags.GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.tickeravg")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
		if err := v.BindPFlag(key, flags.Lookup(flagName(key))); err != nil {
			return nil, fmt.Errorf("failed to bind --%s: %w", flagName(key), err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := check(config); err != nil {
		return nil, err
	}

	return config, nil
}

func newFlagSet(d *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("tickeravg", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String(flagName("api_token"), d.APIToken, "marketdata.app API token")
	fs.String(flagName("base_url"), d.BaseURL, "API base URL")
	fs.String(flagName("symbols_file"), d.SymbolsFile, "file with one ticker symbol per line")
	fs.String(flagName("output_file"), d.OutputFile, "report destination")
	fs.String(flagName("metrics_file"), d.MetricsFile, "write Prometheus metrics to this file after the run")
	fs.Int(flagName("concurrency"), d.Concurrency, "maximum number of requests in flight")
	fs.Duration(flagName("request_timeout"), d.RequestTimeout, "deadline for each request")
	fs.Int(flagName("lookback_months"), d.LookbackMonths, "number of months of candles to average")
	fs.Float64(flagName("requests_per_second"), d.RequestsPerSecond, "pace requests to this rate (0 disables pacing)")
	fs.String(flagName("log_level"), d.LogLevel, "trace, debug, info, warn or error")
	fs.String(flagName("log_format"), d.LogFormat, "console or json")
	return fs
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// check validates the struct tags and reports missing required values by
// their environment variable names.
func check(c *Config) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, envBindings[fe.Field()])
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s=%v (%s)", fe.Field(), fe.Value(), fe.ActualTag()))
	}
	sort.Strings(missing)
	sort.Strings(invalid)

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(invalid, ", "))
}
