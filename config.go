package accesskit

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// DefaultMaxHierarchyDepth bounds manager-chain walks.
const DefaultMaxHierarchyDepth = 64

// Config holds engine settings, loadable from ACCESSKIT_* environment variables.
type Config struct {
	DatabaseURL       string `envconfig:"DATABASE_URL"`
	MaxHierarchyDepth int    `envconfig:"MAX_HIERARCHY_DEPTH" default:"64"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`
	MetricsNamespace  string `envconfig:"METRICS_NAMESPACE" default:"accesskit"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		MaxHierarchyDepth: DefaultMaxHierarchyDepth,
		LogLevel:          "info",
		MetricsNamespace:  "accesskit",
	}
}

// LoadConfig reads configuration from the environment using the ACCESSKIT prefix.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("accesskit", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.MaxHierarchyDepth <= 0 {
		return NewError(ErrInvalidInput, fmt.Sprintf("max hierarchy depth must be positive, got %d", c.MaxHierarchyDepth))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return NewError(ErrInvalidInput, err.Error())
	}
	return nil
}

// NewLogger builds a logrus logger at the configured level.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}
