package config

import (
	"fmt"
	"strings"
	"time"
)

// CheckerConfig configures the URL checker
type CheckerConfig struct {
	Workers            int
	MaxHops            int
	RequestTimeout     time.Duration
	RequestMethod      string
	MaxMessageSize     int
	WhitelistedDomains []string
	NSFWDomains        []string
	ResultTimeout      time.Duration
}

// TenantsConfig holds the policy a new tenant starts with
type TenantsConfig struct {
	DefaultMode string
	// DefaultCategories falls back to the built-in defaults when empty
	DefaultCategories []string
}

// StoreConfig selects and configures the policy store
type StoreConfig struct {
	Type           string
	SQLitePath     string
	MySQLDSN       string
	RedisAddress   string
	RedisPassword  string
	RedisDB        int
	ConnectRetries uint64
}

// ServerConfig configures the front end
type ServerConfig struct {
	FilterType     string
	ListenAddress  string
	MetricsEnabled bool
}

// GetChecker returns the checker configuration
func (c *Config) GetChecker() (CheckerConfig, error) {
	requestTimeout, err := c.GetDuration("checker.request_timeout")
	if err != nil {
		return CheckerConfig{}, err
	}
	resultTimeout, err := c.GetDuration("checker.result_timeout")
	if err != nil {
		return CheckerConfig{}, err
	}

	cfg := CheckerConfig{
		Workers:            c.GetInt("checker.workers"),
		MaxHops:            c.GetInt("checker.max_hops"),
		RequestTimeout:     requestTimeout,
		RequestMethod:      strings.ToUpper(c.GetString("checker.request_method")),
		MaxMessageSize:     c.GetInt("checker.max_message_size"),
		WhitelistedDomains: c.GetStringSlice("checker.whitelisted_domains"),
		NSFWDomains:        c.GetStringSlice("checker.nsfw_domains"),
		ResultTimeout:      resultTimeout,
	}
	if cfg.Workers <= 0 {
		return CheckerConfig{}, fmt.Errorf("checker.workers must be positive, got %d", cfg.Workers)
	}
	if cfg.MaxHops <= 0 {
		return CheckerConfig{}, fmt.Errorf("checker.max_hops must be positive, got %d", cfg.MaxHops)
	}
	return cfg, nil
}

// GetTenants returns the tenant defaults
func (c *Config) GetTenants() TenantsConfig {
	return TenantsConfig{
		DefaultMode:       c.GetString("tenants.default_mode"),
		DefaultCategories: c.GetStringSlice("tenants.default_categories"),
	}
}

// GetStore returns the policy store configuration
func (c *Config) GetStore() StoreConfig {
	retries := c.GetInt("store.connect_retries")
	if retries < 0 {
		retries = 0
	}
	return StoreConfig{
		Type:           c.GetString("store.type"),
		SQLitePath:     c.GetString("store.sqlite_path"),
		MySQLDSN:       c.GetString("store.mysql_dsn"),
		RedisAddress:   c.GetString("store.redis_address"),
		RedisPassword:  c.GetString("store.redis_password"),
		RedisDB:        c.GetInt("store.redis_db"),
		ConnectRetries: uint64(retries),
	}
}

// GetServer returns the server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		FilterType:     c.GetString("server.filter_type"),
		ListenAddress:  c.GetString("server.listen_address"),
		MetricsEnabled: c.GetBool("server.metrics_enabled"),
	}
}
