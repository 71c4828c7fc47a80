package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, for example
// LINKGUARD_CHECKER_WORKERS for checker.workers
const EnvPrefix = "LINKGUARD"

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/linkguard/")
	v.AddConfigPath("$HOME/.linkguard")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromFile loads configuration from an explicit file path
func NewFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Checker defaults
	v.SetDefault("checker.workers", 4)
	v.SetDefault("checker.max_hops", 10)
	v.SetDefault("checker.request_timeout", "5s")
	v.SetDefault("checker.request_method", "HEAD")
	v.SetDefault("checker.max_message_size", 4000)
	v.SetDefault("checker.whitelisted_domains", []string{})
	v.SetDefault("checker.nsfw_domains", []string{})
	v.SetDefault("checker.result_timeout", "30s")

	// Tenant defaults
	v.SetDefault("tenants.default_mode", "relaxed")
	v.SetDefault("tenants.default_categories", []string{})

	// Store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.sqlite_path", "/data/linkguard.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/linkguard")
	v.SetDefault("store.redis_address", "localhost:6379")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.connect_retries", 5)

	// Server defaults
	v.SetDefault("server.filter_type", "http")
	v.SetDefault("server.listen_address", ":8085")
	v.SetDefault("server.metrics_enabled", true)

	// CLI defaults
	v.SetDefault("cli.verbose", false)
	v.SetDefault("cli.mature", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Set overrides a configuration value
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
