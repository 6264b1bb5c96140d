package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIBase is used when no backend URL is configured
	DefaultAPIBase = "http://localhost:8000"
	// DefaultLogLevel is the log level used when none is configured
	DefaultLogLevel = "info"
)

// Environment variables read by Load
const (
	EnvConfigPath  = "DATAOPS_CONFIG"
	EnvAPIBase     = "DATAOPS_API_BASE"
	EnvLogLevel    = "DATAOPS_LOG_LEVEL"
	EnvLogPretty   = "DATAOPS_LOG_PRETTY"
	EnvMetricsAddr = "DATAOPS_METRICS_ADDR"
	EnvJournalPath = "DATAOPS_JOURNAL_PATH"

	EnvTracingEndpoint = "DATAOPS_OTLP_ENDPOINT"
	EnvTracingInsecure = "DATAOPS_OTLP_INSECURE"
)

// Validation errors
var (
	ErrInvalidAPIBase  = errors.New("api base must be an absolute http or https URL")
	ErrInvalidLogLevel = errors.New("unknown log level")
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Config holds the server configuration
type Config struct {
	APIBase     string        `yaml:"api_base"`
	Log         LogConfig     `yaml:"log"`
	MetricsAddr string        `yaml:"metrics_addr"` // empty disables the /metrics listener
	JournalPath string        `yaml:"journal_path"` // empty disables the call journal
	Tracing     TracingConfig `yaml:"tracing"`
}

// TracingConfig holds OpenTelemetry export settings
type TracingConfig struct {
	Endpoint string `yaml:"endpoint"` // OTLP/gRPC host:port; empty disables export
	Insecure bool   `yaml:"insecure"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Overrides carries flag values. Empty fields leave the loaded value untouched.
type Overrides struct {
	APIBase     string
	LogLevel    string
	MetricsAddr string
	JournalPath string
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		APIBase: DefaultAPIBase,
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// non-empty, otherwise DATAOPS_CONFIG), a .env file in the working directory,
// the environment and finally the overrides. The result is validated.
func Load(path string, overrides Overrides) (Config, error) {
	// A missing .env is the normal case
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}
	cfg.apply(overrides)

	cfg.APIBase = strings.TrimSpace(cfg.APIBase)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	if v := os.Getenv(EnvAPIBase); v != "" {
		c.APIBase = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogPretty); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvLogPretty, err)
		}
		c.Log.Pretty = pretty
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv(EnvJournalPath); v != "" {
		c.JournalPath = v
	}
	if v := os.Getenv(EnvTracingEndpoint); v != "" {
		c.Tracing.Endpoint = v
	}
	if v := os.Getenv(EnvTracingInsecure); v != "" {
		insecure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvTracingInsecure, err)
		}
		c.Tracing.Insecure = insecure
	}
	return nil
}

func (c *Config) apply(o Overrides) {
	if o.APIBase != "" {
		c.APIBase = o.APIBase
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.MetricsAddr != "" {
		c.MetricsAddr = o.MetricsAddr
	}
	if o.JournalPath != "" {
		c.JournalPath = o.JournalPath
	}
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	u, err := url.Parse(c.APIBase)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAPIBase, c.APIBase)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrInvalidAPIBase, c.APIBase)
	}

	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	return nil
}

// envVarPattern matches ${VAR_NAME}
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the variable's value.
// Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		return os.Getenv(name)
	})
}
