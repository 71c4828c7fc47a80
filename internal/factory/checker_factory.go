package factory

import (
	"fmt"

	"github.com/mikey/linkguard/internal/config"
	"github.com/mikey/linkguard/internal/core"
	"github.com/mikey/linkguard/internal/utils"
	"github.com/mikey/linkguard/internal/whitelist"
	"go.uber.org/zap"
)

// CheckerFactory assembles the URL checker from configuration
type CheckerFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	recorder      core.Recorder
}

// NewCheckerFactory creates a new checker factory
func NewCheckerFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor, recorder core.Recorder) *CheckerFactory {
	return &CheckerFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
		recorder:      recorder,
	}
}

// CreateURLChecker builds the catalog, the redirect follower and a started
// dispatch pool. The caller must Stop the returned checker.
func (f *CheckerFactory) CreateURLChecker() (*core.URLChecker, error) {
	checkerCfg, err := f.cfg.GetChecker()
	if err != nil {
		return nil, err
	}

	var extra core.Matcher
	if wl := whitelist.NewChecker(checkerCfg.WhitelistedDomains, f.logger); wl.Len() > 0 {
		extra = wl
	}

	catalog, err := core.DefaultCatalog(extra, checkerCfg.NSFWDomains)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	classifier := core.NewClassifier(catalog, f.logger)
	follower := core.NewRedirectFollower(
		core.NewNoRedirectClient(checkerCfg.RequestTimeout),
		classifier,
		core.NewChainTracker(),
		checkerCfg.MaxHops,
		checkerCfg.RequestMethod,
		f.logger,
	)

	pool := core.NewDispatchPool(checkerCfg.Workers, f.logger, f.recorder)
	pool.Start()

	f.logger.Info("URL checker ready",
		zap.Int("workers", checkerCfg.Workers),
		zap.Int("max_hops", checkerCfg.MaxHops),
		zap.String("request_method", checkerCfg.RequestMethod),
		zap.Duration("request_timeout", checkerCfg.RequestTimeout))

	return core.NewURLChecker(
		classifier,
		follower,
		pool,
		f.textProcessor,
		checkerCfg.MaxMessageSize,
		f.recorder,
		f.logger,
	), nil
}
