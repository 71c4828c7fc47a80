package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/linkguard/internal/config"
	"github.com/mikey/linkguard/internal/core"
	"github.com/mikey/linkguard/internal/factory"
	"github.com/mikey/linkguard/internal/logging"
	"github.com/mikey/linkguard/internal/ports"
	"github.com/mikey/linkguard/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideShared(container); err != nil {
		return nil, err
	}

	// Register policy store
	if err := container.Provide(func(f *factory.PolicyStoreFactory) (ports.PolicyStore, error) {
		return f.CreatePolicyStore(context.Background())
	}); err != nil {
		return nil, err
	}

	// Register policy service
	if err := container.Provide(func(f *factory.PolicyStoreFactory, store ports.PolicyStore) (*core.PolicyService, error) {
		return f.CreatePolicyService(store)
	}); err != nil {
		return nil, err
	}

	// Register message filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.MessageFilter, error) {
		return f.CreateMessageFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideShared registers everything both binaries need once a config and
// a logger are available
func provideShared(container *dig.Container) error {
	// Register factories
	for _, constructor := range []interface{}{
		factory.NewTextProcessorFactory,
		factory.NewMetricsFactory,
		factory.NewCheckerFactory,
		factory.NewPolicyStoreFactory,
		factory.NewFilterFactory,
	} {
		if err := container.Provide(constructor); err != nil {
			return err
		}
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register metrics recorder
	if err := container.Provide(func(f *factory.MetricsFactory) core.Recorder {
		return f.CreateRecorder()
	}); err != nil {
		return err
	}

	// Register URL checker
	if err := container.Provide(func(f *factory.CheckerFactory, logger *zap.Logger) (*core.URLChecker, error) {
		checker, err := f.CreateURLChecker()
		if err != nil {
			logger.Error("Failed to create URL checker", zap.Error(err))
		}
		return checker, err
	}); err != nil {
		return err
	}

	return nil
}
