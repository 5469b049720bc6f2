// Package config holds application configuration for the mugctl tool.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from yaml strings like "10s".
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Config holds application configuration.
type Config struct {
	LogLevel       string   `yaml:"log_level" default:"info"`
	ScanTimeout    Duration `yaml:"scan_timeout"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
	// Imperial formats temperatures in °F. Stored values stay metric.
	Imperial bool `yaml:"imperial"`
	// ExtraAttributes includes battery voltage and the device clock in
	// refreshes.
	ExtraAttributes bool `yaml:"extra_attributes"`
}

// Default returns the configuration default values.
func Default() *Config {
	c := &Config{
		ScanTimeout:    Duration(10 * time.Second),
		ConnectTimeout: Duration(20 * time.Second),
	}
	defaults.SetDefaults(c)
	return c
}

// Load reads a yaml configuration file over the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return c, nil
}

// NewLogger creates a configured logger instance.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger, nil
}
