package filter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mikey/linkguard/internal/core"
	"go.uber.org/zap"
)

// CliFilter checks a batch of links and prints the results
type CliFilter struct {
	checker  *core.URLChecker
	policy   core.TenantPolicy
	checkCtx core.CheckContext
	logger   *zap.Logger
	out      io.Writer
	verbose  bool
}

// NewCliFilter creates a new CLI filter that checks every link under policy
func NewCliFilter(
	checker *core.URLChecker,
	policy core.TenantPolicy,
	checkCtx core.CheckContext,
	logger *zap.Logger,
	out io.Writer,
	verbose bool,
) *CliFilter {
	return &CliFilter{
		checker:  checker,
		policy:   policy,
		checkCtx: checkCtx,
		logger:   logger,
		out:      out,
		verbose:  verbose,
	}
}

// ProcessLinks checks the links and prints a report. It returns the number
// of flagged links.
func (f *CliFilter) ProcessLinks(ctx context.Context, links []string) (int, error) {
	f.logger.Debug("Checking links", zap.Int("count", len(links)))

	fmt.Fprintf(f.out, "\n=== Policy ===\n")
	fmt.Fprintf(f.out, "Mode: %s\n", f.policy.Mode)
	fmt.Fprintf(f.out, "Categories: %s\n", f.policy.Categories)
	fmt.Fprintf(f.out, "Mature: %t\n\n", f.checkCtx.Mature)

	startTime := time.Now()
	reports, err := f.checker.CheckLinks(ctx, f.policy, f.checkCtx, links)
	if err != nil {
		f.logger.Error("Failed to check links", zap.Error(err))
		return 0, err
	}
	duration := time.Since(startTime)

	fmt.Fprintf(f.out, "=== Results ===\n")
	flagged := 0
	for _, lr := range reports {
		if !lr.Checked {
			if f.verbose {
				fmt.Fprintf(f.out, "[skipped]     %s (no URL found)\n", lr.Link)
			}
			continue
		}

		report := lr.Report
		switch report.Result.Verdict {
		case core.VerdictFlagged:
			flagged++
			fmt.Fprintf(f.out, "[flagged]     %s -> %s (%s)\n", report.URL, report.Result.Category, report.Result.Match)
		case core.VerdictWhitelisted:
			fmt.Fprintf(f.out, "[whitelisted] %s (%s)\n", report.URL, report.Result.Match)
		default:
			fmt.Fprintf(f.out, "[clean]       %s\n", report.URL)
		}

		if f.verbose {
			fmt.Fprintf(f.out, "              outcome=%s hops=%d took=%v\n", report.Outcome, report.Hops, report.Duration)
			for _, hop := range report.Trace {
				fmt.Fprintf(f.out, "              #%d %s -> %d %s\n", hop.Index, hop.URL, hop.Status, hop.Location)
			}
		}
	}

	fmt.Fprintf(f.out, "\nChecked %d links, %d flagged in %v\n", len(reports), flagged, duration)
	return flagged, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
