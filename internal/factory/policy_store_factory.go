package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/linkguard/internal/adapters/policy"
	"github.com/mikey/linkguard/internal/config"
	"github.com/mikey/linkguard/internal/core"
	"github.com/mikey/linkguard/internal/ports"
	"go.uber.org/zap"
)

// PolicyStoreFactory creates policy stores and the policy service based on configuration
type PolicyStoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewPolicyStoreFactory creates a new policy store factory
func NewPolicyStoreFactory(cfg *config.Config, logger *zap.Logger) *PolicyStoreFactory {
	return &PolicyStoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreatePolicyStore creates a policy store based on the configuration
func (f *PolicyStoreFactory) CreatePolicyStore(ctx context.Context) (ports.PolicyStore, error) {
	storeCfg := f.cfg.GetStore()
	f.logger.Info("Creating policy store", zap.String("type", storeCfg.Type))

	switch storeCfg.Type {
	case "memory":
		return policy.NewMemoryStore(f.logger), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(storeCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return policy.NewSQLiteStore(storeCfg.SQLitePath, f.logger)
	case "mysql":
		return policy.NewMySQLStore(ctx, storeCfg.MySQLDSN, storeCfg.ConnectRetries, f.logger)
	case "redis":
		return policy.NewRedisStore(ctx, policy.RedisOptions{
			Address:  storeCfg.RedisAddress,
			Password: storeCfg.RedisPassword,
			DB:       storeCfg.RedisDB,
			Retries:  storeCfg.ConnectRetries,
		}, f.logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
}

// CreatePolicyService creates the tenant policy service on top of repo
func (f *PolicyStoreFactory) CreatePolicyService(repo core.PolicyRepository) (*core.PolicyService, error) {
	tenants := f.cfg.GetTenants()

	mode, err := core.ParseMode(tenants.DefaultMode)
	if err != nil {
		return nil, fmt.Errorf("invalid tenants.default_mode: %w", err)
	}

	categories := core.DefaultCategories()
	if len(tenants.DefaultCategories) > 0 {
		categories, err = core.ParseCategorySet(tenants.DefaultCategories)
		if err != nil {
			return nil, fmt.Errorf("invalid tenants.default_categories: %w", err)
		}
	}

	return core.NewPolicyService(repo, mode, categories, f.logger), nil
}
