package di

import (
	"flag"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/linkguard/internal/adapters/filter"
	"github.com/mikey/linkguard/internal/adapters/policy"
	"github.com/mikey/linkguard/internal/config"
	"github.com/mikey/linkguard/internal/core"
	"github.com/mikey/linkguard/internal/factory"
	"github.com/mikey/linkguard/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Policy flags
	Mode       string
	Categories string
	Mature     bool

	// Checker flags
	Workers       int
	MaxHops       int
	RequestMethod string
	Whitelist     string
	NSFWDomains   string

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string

	// Links are the positional arguments left after the flags
	Links []string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	return ParseFlagSet(flag.CommandLine, nil)
}

// ParseFlagSet registers the CLI flags on fs and parses args. A nil args
// parses os.Args through flag.Parse.
func ParseFlagSet(fs *flag.FlagSet, args []string) *CLIFlags {
	flags := &CLIFlags{}

	// Policy flags
	fs.StringVar(&flags.Mode, "mode", "aggressive", "Scan mode (relaxed, aggressive)")
	fs.StringVar(&flags.Categories, "categories", "all", "Comma-separated categories to flag, \"all\" or \"default\"")
	fs.BoolVar(&flags.Mature, "mature", false, "Treat the links as posted in a mature channel")

	// Checker flags
	fs.IntVar(&flags.Workers, "workers", core.DefaultWorkers, "Number of checker workers")
	fs.IntVar(&flags.MaxHops, "max-hops", core.DefaultMaxHops, "Maximum redirects followed per link")
	fs.StringVar(&flags.RequestMethod, "method", "HEAD", "HTTP method used to follow redirects (HEAD, GET)")
	fs.StringVar(&flags.Whitelist, "whitelist", "", "Comma-separated list of extra whitelisted domains")
	fs.StringVar(&flags.NSFWDomains, "nsfw-domains", "", "Comma-separated list of NSFW domains")

	// Input flags
	fs.StringVar(&flags.InputFile, "file", "", "File with one link per line (use stdin if not specified)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose output")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	if args == nil {
		flag.Parse()
	} else {
		_ = fs.Parse(args)
	}
	flags.Links = fs.Args()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			cfg.Set("server.filter_type", "cli")
			cfg.Set("cli.verbose", flags.Verbose)
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideShared(container); err != nil {
		return nil, err
	}

	// Register policy service over a throwaway memory store
	if err := container.Provide(func(f *factory.PolicyStoreFactory, logger *zap.Logger) (*core.PolicyService, error) {
		return f.CreatePolicyService(policy.NewMemoryStore(logger))
	}); err != nil {
		return nil, err
	}

	// Register CLI filter
	if err := container.Provide(func(f *factory.FilterFactory) *filter.CliFilter {
		return f.CreateCliFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set some cli specific settings
	v.Set("server.filter_type", "cli")
	v.Set("server.metrics_enabled", false)
	v.Set("cli.verbose", flags.Verbose)
	v.Set("cli.mature", flags.Mature)

	// Set checker configuration
	v.Set("checker.workers", flags.Workers)
	v.Set("checker.max_hops", flags.MaxHops)
	v.Set("checker.request_method", strings.ToUpper(flags.RequestMethod))
	v.Set("checker.whitelisted_domains", splitList(flags.Whitelist))
	v.Set("checker.nsfw_domains", splitList(flags.NSFWDomains))

	// Set the policy every link is checked under
	v.Set("tenants.default_mode", flags.Mode)
	switch strings.ToLower(strings.TrimSpace(flags.Categories)) {
	case "all":
		v.Set("tenants.default_categories", core.AllCategories().Names())
	case "default", "":
		v.Set("tenants.default_categories", []string{})
	default:
		v.Set("tenants.default_categories", splitList(flags.Categories))
	}

	return config.NewFromViper(v)
}

func splitList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return []string{}
	}
	items := strings.Split(list, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
