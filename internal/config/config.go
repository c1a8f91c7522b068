package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/invoiceflow/invoiceflow/internal/types"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Backend    BackendConfig    `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Cache      CacheConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

// BackendConfig configures the connection to the invoice backend service that
// owns persistence and posting. All workflow transitions are executed there.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	APIKey  string `mapstructure:"api_key"`

	// Timeout bounds a single request attempt, not the whole retry loop.
	Timeout time.Duration

	// RetryMax is the number of retries on transient failures (5xx, network).
	// Client errors are never retried.
	RetryMax          int           `mapstructure:"retry_max"`
	RetryWaitMin      time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax      time.Duration `mapstructure:"retry_wait_max"`
	BackoffMaxElapsed time.Duration `mapstructure:"backoff_max_elapsed"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type CacheConfig struct {
	Enabled         bool
	TTL             time.Duration
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/invoiceflow")

	v.SetEnvPrefix("INVOICEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Configuration) applyDefaults() {
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 30 * time.Second
	}
	if c.Backend.RetryMax == 0 {
		c.Backend.RetryMax = 3
	}
	if c.Backend.RetryWaitMin == 0 {
		c.Backend.RetryWaitMin = 500 * time.Millisecond
	}
	if c.Backend.RetryWaitMax == 0 {
		c.Backend.RetryWaitMax = 5 * time.Second
	}
	if c.Backend.BackoffMaxElapsed == 0 {
		c.Backend.BackoffMaxElapsed = time.Minute
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 30 * time.Minute
	}
	if c.Cache.CleanupInterval == 0 {
		c.Cache.CleanupInterval = time.Hour
	}
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	cfg := &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Backend:    BackendConfig{BaseURL: "http://localhost:9090"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Cache:      CacheConfig{Enabled: true},
	}
	cfg.applyDefaults()
	return cfg
}
