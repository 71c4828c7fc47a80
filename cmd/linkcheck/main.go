package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mikey/linkguard/internal/adapters/filter"
	"github.com/mikey/linkguard/internal/core"
	"github.com/mikey/linkguard/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	var flagged int
	err = container.Invoke(func(logger *zap.Logger, cliFilter *filter.CliFilter, checker *core.URLChecker) error {
		defer logger.Sync()
		defer checker.Stop()

		n, runErr := run(logger, cliFilter, flags.Links, flags.InputFile)
		flagged = n
		return runErr
	})
	if err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}

	if flagged > 0 {
		os.Exit(2)
	}
}

func run(logger *zap.Logger, cliFilter *filter.CliFilter, args []string, inputFile string) (int, error) {
	links, err := collectLinks(logger, args, inputFile, os.Stdin)
	if err != nil {
		return 0, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cliFilter.ProcessLinks(ctx, links)
}

// collectLinks takes the links from args, then inputFile, then stdin
func collectLinks(logger *zap.Logger, args []string, inputFile string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 {
		logger.Info("Reading links from arguments", zap.Int("count", len(args)))
		return readLinks(strings.NewReader(strings.Join(args, "\n")))
	}

	if inputFile != "" {
		file, err := os.Open(inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		logger.Info("Reading links from file", zap.String("file", inputFile))
		return readLinks(file)
	}

	logger.Info("Reading links from stdin")
	return readLinks(stdin)
}

// readLinks returns the non-blank, non-comment lines of r
func readLinks(r io.Reader) ([]string, error) {
	var links []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		links = append(links, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read links: %w", err)
	}
	return links, nil
}
