package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	checker, err := cfg.GetChecker()
	require.NoError(t, err)
	assert.Equal(t, 4, checker.Workers)
	assert.Equal(t, 10, checker.MaxHops)
	assert.Equal(t, 5*time.Second, checker.RequestTimeout)
	assert.Equal(t, "HEAD", checker.RequestMethod)
	assert.Equal(t, 4000, checker.MaxMessageSize)
	assert.Equal(t, 30*time.Second, checker.ResultTimeout)
	assert.Empty(t, checker.WhitelistedDomains)
	assert.Empty(t, checker.NSFWDomains)

	tenants := cfg.GetTenants()
	assert.Equal(t, "relaxed", tenants.DefaultMode)
	assert.Empty(t, tenants.DefaultCategories)

	store := cfg.GetStore()
	assert.Equal(t, "memory", store.Type)
	assert.Equal(t, uint64(5), store.ConnectRetries)
	assert.Equal(t, "localhost:6379", store.RedisAddress)

	server := cfg.GetServer()
	assert.Equal(t, "http", server.FilterType)
	assert.Equal(t, ":8085", server.ListenAddress)
	assert.True(t, server.MetricsEnabled)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
checker:
  workers: 8
  request_method: GET
  nsfw_domains:
    - adult-example.com
tenants:
  default_mode: aggressive
  default_categories: [phishing, ip_grabber]
store:
  type: sqlite
  sqlite_path: /tmp/policies.db
`), 0o600))

	cfg, err := NewFromFile(path)
	require.NoError(t, err)

	checker, err := cfg.GetChecker()
	require.NoError(t, err)
	assert.Equal(t, 8, checker.Workers)
	assert.Equal(t, "GET", checker.RequestMethod)
	assert.Equal(t, []string{"adult-example.com"}, checker.NSFWDomains)
	assert.Equal(t, 10, checker.MaxHops, "unset keys keep their defaults")

	assert.Equal(t, "aggressive", cfg.GetTenants().DefaultMode)
	assert.Equal(t, []string{"phishing", "ip_grabber"}, cfg.GetTenants().DefaultCategories)
	assert.Equal(t, "sqlite", cfg.GetStore().Type)
	assert.Equal(t, "/tmp/policies.db", cfg.GetStore().SQLitePath)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("LINKGUARD_CHECKER_MAX_HOPS", "3")
	t.Setenv("LINKGUARD_STORE_TYPE", "redis")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  type: sqlite\n"), 0o600))

	cfg, err := NewFromFile(path)
	require.NoError(t, err)

	checker, err := cfg.GetChecker()
	require.NoError(t, err)
	assert.Equal(t, 3, checker.MaxHops)
	assert.Equal(t, "redis", cfg.GetStore().Type)
}

func TestGetChecker_Invalid(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	cfg.Set("checker.request_timeout", "soon")
	_, err := cfg.GetChecker()
	assert.ErrorContains(t, err, "checker.request_timeout")

	cfg.Set("checker.request_timeout", "1s")
	cfg.Set("checker.workers", 0)
	_, err = cfg.GetChecker()
	assert.ErrorContains(t, err, "checker.workers")
}

func TestNewFromFile_Missing(t *testing.T) {
	_, err := NewFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
