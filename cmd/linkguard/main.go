package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/linkguard/internal/core"
	"github.com/mikey/linkguard/internal/di"
	"github.com/mikey/linkguard/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	messageFilter ports.MessageFilter,
	checker *core.URLChecker,
	store ports.PolicyStore,
) error {
	defer logger.Sync()

	if err := messageFilter.Start(); err != nil {
		logger.Error("Failed to start filter", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if err := messageFilter.Stop(); err != nil {
		logger.Error("Failed to stop filter", zap.Error(err))
	}

	// Deliver every report already submitted before closing the store
	checker.Stop()
	store.Stop()

	logger.Info("Shutdown complete")
	return nil
}
