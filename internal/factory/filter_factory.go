package factory

import (
	"fmt"
	"os"

	"github.com/mikey/linkguard/internal/adapters/filter"
	"github.com/mikey/linkguard/internal/config"
	"github.com/mikey/linkguard/internal/core"
	"github.com/mikey/linkguard/internal/ports"
	"go.uber.org/zap"
)

// FilterFactory creates message filters based on configuration
type FilterFactory struct {
	cfg      *config.Config
	logger   *zap.Logger
	checker  *core.URLChecker
	policies *core.PolicyService
	metrics  *MetricsFactory
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(
	cfg *config.Config,
	logger *zap.Logger,
	checker *core.URLChecker,
	policies *core.PolicyService,
	metrics *MetricsFactory,
) *FilterFactory {
	return &FilterFactory{
		cfg:      cfg,
		logger:   logger,
		checker:  checker,
		policies: policies,
		metrics:  metrics,
	}
}

// CreateMessageFilter creates a message filter based on the configuration
func (f *FilterFactory) CreateMessageFilter() (ports.MessageFilter, error) {
	filterType := f.cfg.GetServer().FilterType

	switch filterType {
	case "http":
		return f.CreateHTTPFilter()
	case "cli":
		return f.CreateCliFilter(), nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}

// CreateHTTPFilter creates the HTTP API front end
func (f *FilterFactory) CreateHTTPFilter() (*filter.HTTPFilter, error) {
	checkerCfg, err := f.cfg.GetChecker()
	if err != nil {
		return nil, err
	}
	return filter.NewHTTPFilter(
		f.checker,
		f.policies,
		f.logger,
		f.cfg.GetServer().ListenAddress,
		checkerCfg.ResultTimeout,
		f.metrics.Handler(),
	), nil
}

// CreateCliFilter creates a batch filter that checks links under the
// default tenant policy, writing to stdout
func (f *FilterFactory) CreateCliFilter() *filter.CliFilter {
	return filter.NewCliFilter(
		f.checker,
		f.policies.DefaultPolicy("cli"),
		core.CheckContext{Mature: f.cfg.GetBool("cli.mature")},
		f.logger,
		os.Stdout,
		f.cfg.GetBool("cli.verbose"),
	)
}
