package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ClientConfig holds the settings needed to talk to the Golemio API.
type ClientConfig struct {
	AppName  string `mapstructure:"app_name" validate:"required"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`

	AccessKey             string        `mapstructure:"golemio_access_key"`
	APIVersion            string        `mapstructure:"golemio_api_version" validate:"required"`
	Staging               bool          `mapstructure:"golemio_staging"`
	Insecure              bool          `mapstructure:"golemio_insecure"`
	Host                  string        `mapstructure:"golemio_host"`
	RequestTimeoutSeconds int64         `mapstructure:"golemio_timeout_seconds" validate:"gt=0"`
	RequestTimeout        time.Duration `mapstructure:"-"`
}

// RelayConfig holds the feed polling, publishing and storage settings.
type RelayConfig struct {
	FeedsFile           string        `mapstructure:"feeds_file"`
	PublishersFile      string        `mapstructure:"publishers_file"`
	PollIntervalSeconds int64         `mapstructure:"poll_interval" validate:"gt=0"`
	PollInterval        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type" validate:"omitempty,oneof=none disabled bbolt"`
	BBoltPath              string        `mapstructure:"bbolt_path" validate:"required_if=StorageType bbolt"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds" validate:"gt=0"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds" validate:"gt=0"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	ClientConfig `mapstructure:",squash"`
	RelayConfig  `mapstructure:",squash"`
}

// Load reads the full relay configuration from environment variables and config files.
func Load() (*Config, error) {
	var cfg Config
	if err := load(&cfg); err != nil {
		return nil, err
	}
	cfg.ClientConfig.resolve()
	cfg.RelayConfig.resolve()
	return &cfg, nil
}

// LoadClient reads only the API client settings. Relay settings are neither
// parsed nor validated.
func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := load(&cfg); err != nil {
		return nil, err
	}
	cfg.resolve()
	return &cfg, nil
}

func load(out any) error {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "golemio-relay")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("golemio_access_key", "")
	v.SetDefault("golemio_api_version", "v2")
	v.SetDefault("golemio_staging", false)
	v.SetDefault("golemio_insecure", false)
	v.SetDefault("golemio_host", "")
	v.SetDefault("golemio_timeout_seconds", 30)
	v.SetDefault("feeds_file", "./configs/feeds.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("poll_interval", 30) // seconds
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/relay.db")
	v.SetDefault("storage_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64(time.Hour/time.Second))

	v.AutomaticEnv()

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(out); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

func (c *ClientConfig) resolve() {
	c.RequestTimeout = time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *RelayConfig) resolve() {
	c.PollInterval = time.Duration(c.PollIntervalSeconds) * time.Second
	c.StorageTTL = time.Duration(c.StorageTTLSeconds) * time.Second
	c.StorageCleanupInterval = time.Duration(c.StorageCleanupSeconds) * time.Second
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	c.ClientConfig = c.ClientConfig.Redacted()
	return c
}

// Redacted returns a copy safe to log.
func (c ClientConfig) Redacted() ClientConfig {
	if c.AccessKey != "" {
		c.AccessKey = "***"
	}
	return c
}
