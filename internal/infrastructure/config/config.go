package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the SmartThings exporter.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	SmartThings SmartThingsConfig `yaml:"smartthings"`
	Poll        PollConfig        `yaml:"poll"`
	API         APIConfig         `yaml:"api"`
	Units       UnitsConfig       `yaml:"units"`
	Mirror      MirrorConfig      `yaml:"mirror"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// SmartThingsConfig contains SmartThings cloud API settings.
type SmartThingsConfig struct {
	// Token is the personal access token used as a bearer credential.
	// Always set via STEXPORTER_SMARTTHINGS_TOKEN rather than the file.
	Token   string      `yaml:"token"`
	BaseURL string      `yaml:"base_url"`
	Timeout int         `yaml:"timeout"` // per-request timeout in seconds
	Retry   RetryConfig `yaml:"retry"`
}

// RetryConfig bounds the retry behaviour for transient upstream failures.
type RetryConfig struct {
	MaxAttempts  int `yaml:"max_attempts"`
	InitialDelay int `yaml:"initial_delay"` // seconds
	MaxDelay     int `yaml:"max_delay"`     // seconds
}

// PollConfig contains poll scheduler settings.
type PollConfig struct {
	Interval int `yaml:"interval"` // seconds between poll cycles
}

// APIConfig contains HTTP metrics server settings.
type APIConfig struct {
	Host        string           `yaml:"host"`
	Port        int              `yaml:"port"`
	MetricsPath string           `yaml:"metrics_path"`
	Timeouts    APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// UnitsConfig contains unit normalisation preferences.
type UnitsConfig struct {
	// Temperature selects the reporting unit for temperature readings.
	// Empty means pass values through as the upstream reports them;
	// "celsius" converts Fahrenheit readings to Celsius.
	Temperature string `yaml:"temperature"`
}

// MirrorConfig contains optional MQTT state mirror settings.
type MirrorConfig struct {
	Enabled     bool               `yaml:"enabled"`
	Broker      MirrorBrokerConfig `yaml:"broker"`
	Auth        MirrorAuthConfig   `yaml:"auth"`
	TopicPrefix string             `yaml:"topic_prefix"`
	QoS         int                `yaml:"qos"`
}

// MirrorBrokerConfig contains MQTT broker connection details.
type MirrorBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MirrorAuthConfig contains MQTT authentication credentials.
type MirrorAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: STEXPORTER_SECTION_KEY
// For example: STEXPORTER_SMARTTHINGS_TOKEN, STEXPORTER_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		SmartThings: SmartThingsConfig{
			BaseURL: "https://api.smartthings.com/v1",
			Timeout: 10,
			Retry: RetryConfig{
				MaxAttempts:  4,
				InitialDelay: 1,
				MaxDelay:     30,
			},
		},
		Poll: PollConfig{
			Interval: 30,
		},
		API: APIConfig{
			Host:        "0.0.0.0",
			Port:        9119,
			MetricsPath: "/metrics",
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Mirror: MirrorConfig{
			Broker: MirrorBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "stexporter",
			},
			TopicPrefix: "stexporter",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: STEXPORTER_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// SmartThings - the token is a credential, always preferred from environment
	if v := os.Getenv("STEXPORTER_SMARTTHINGS_TOKEN"); v != "" {
		cfg.SmartThings.Token = v
	}
	if v := os.Getenv("STEXPORTER_SMARTTHINGS_BASE_URL"); v != "" {
		cfg.SmartThings.BaseURL = v
	}

	// Poll
	if v := os.Getenv("STEXPORTER_POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Poll.Interval = n
		}
	}

	// API
	if v := os.Getenv("STEXPORTER_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("STEXPORTER_API_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = n
		}
	}

	// Mirror credentials
	if v := os.Getenv("STEXPORTER_MIRROR_USERNAME"); v != "" {
		cfg.Mirror.Auth.Username = v
	}
	if v := os.Getenv("STEXPORTER_MIRROR_PASSWORD"); v != "" {
		cfg.Mirror.Auth.Password = v
	}
}

// Validate checks the configuration for errors.
//
// A missing API token is a startup-time fatal condition: the exporter
// cannot do anything useful without upstream credentials, and retrying
// at runtime cannot fix it.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// SmartThings validation
	if c.SmartThings.Token == "" {
		errs = append(errs, "smartthings.token is required (set STEXPORTER_SMARTTHINGS_TOKEN environment variable)")
	}
	if c.SmartThings.BaseURL == "" {
		errs = append(errs, "smartthings.base_url is required")
	}
	if c.SmartThings.Timeout <= 0 {
		errs = append(errs, "smartthings.timeout must be positive")
	}
	if c.SmartThings.Retry.MaxAttempts < 1 {
		errs = append(errs, "smartthings.retry.max_attempts must be at least 1")
	}

	// Poll validation
	if c.Poll.Interval <= 0 {
		errs = append(errs, "poll.interval must be positive")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if !strings.HasPrefix(c.API.MetricsPath, "/") {
		errs = append(errs, "api.metrics_path must start with /")
	}

	// Units validation
	switch c.Units.Temperature {
	case "", "celsius":
	default:
		errs = append(errs, `units.temperature must be "" or "celsius"`)
	}

	// Mirror validation (only when enabled)
	if c.Mirror.Enabled {
		if c.Mirror.QoS < 0 || c.Mirror.QoS > 2 {
			errs = append(errs, "mirror.qos must be 0, 1, or 2")
		}
		if c.Mirror.TopicPrefix == "" {
			errs = append(errs, "mirror.topic_prefix is required when mirror is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetPollInterval returns the poll interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Poll.Interval) * time.Second
}

// GetRequestTimeout returns the per-request upstream timeout as a Duration.
func (c SmartThingsConfig) GetRequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
