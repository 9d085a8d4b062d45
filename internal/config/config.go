// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the contact-form relay.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shineum/contact-form-relay/internal/origin"
)

// defaultDeliveryTimeout bounds one SES call.
const defaultDeliveryTimeout = 10 * time.Second

// Config holds the complete application configuration.
type Config struct {
	Provider string         `yaml:"provider"`
	Origins  []string       `yaml:"origins"`
	SES      SESConfig      `yaml:"ses"`
	Delivery DeliveryConfig `yaml:"delivery"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
}

// DeliveryConfig holds limits on the delivery call.
type DeliveryConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// HTTPConfig holds the local HTTP server configuration. An empty Listen
// address means the binary runs as a Lambda function.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, cfg.Validate()
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, cfg.Validate()
}

// Validate reports configuration that cannot serve any request.
func (c *Config) Validate() error {
	var errs []error
	if origin.NewAllowList(c.Origins).Len() == 0 {
		errs = append(errs, errors.New("at least one allowed origin is required"))
	}
	if c.Delivery.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("delivery timeout must be positive, got %s", c.Delivery.Timeout))
	}
	switch c.Provider {
	case "", "ses", "stdout":
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	return errors.Join(errs...)
}

// SESConfigured returns true if the SES region is set. Credentials are
// optional and fall back to the default AWS chain.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != ""
}

// LocalMode returns true if the binary should serve HTTP itself instead
// of running under the Lambda runtime.
func (c *Config) LocalMode() bool {
	return c.HTTP.Listen != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Origins = append([]string(nil), origin.DefaultOrigins...)
	c.Delivery.Timeout = defaultDeliveryTimeout
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Origins = splitList(v)
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	} else if v := os.Getenv("AWS_REGION"); v != "" && c.SES.Region == "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}
	if v := os.Getenv("SES_SENDER"); v != "" {
		c.SES.Sender = v
	}

	if v := os.Getenv("DELIVERY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Delivery.Timeout = d
		}
	}

	if v := os.Getenv("HTTP_LISTEN"); v != "" {
		c.HTTP.Listen = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
