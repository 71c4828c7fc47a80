package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/linkguard/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// URLChecker is the entry point for checking chat messages. Extraction
// happens on the caller's goroutine; classification and redirect following
// happen on the dispatch pool.
type URLChecker struct {
	classifier     *Classifier
	follower       *RedirectFollower
	pool           *DispatchPool
	textProcessor  *utils.TextProcessor
	maxMessageSize int
	recorder       Recorder
	logger         *zap.Logger
}

// NewURLChecker creates a new URL checker
func NewURLChecker(
	classifier *Classifier,
	follower *RedirectFollower,
	pool *DispatchPool,
	textProcessor *utils.TextProcessor,
	maxMessageSize int,
	recorder Recorder,
	logger *zap.Logger,
) *URLChecker {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &URLChecker{
		classifier:     classifier,
		follower:       follower,
		pool:           pool,
		textProcessor:  textProcessor,
		maxMessageSize: maxMessageSize,
		recorder:       recorder,
		logger:         logger,
	}
}

// CheckMessage finds the first URL in message and submits it for checking.
// It returns false, and submits nothing, when the message has no URL.
// Otherwise the returned channel yields exactly one Report and is closed.
func (c *URLChecker) CheckMessage(
	ctx context.Context,
	policy TenantPolicy,
	checkCtx CheckContext,
	message string,
) (<-chan Report, bool) {
	out := make(chan Report, 1)
	ok := c.submit(ctx, policy, checkCtx, message, func(report Report) {
		out <- report
		close(out)
	})
	if !ok {
		return nil, false
	}
	return out, true
}

// CheckMessageFunc is CheckMessage with a callback. The callback runs on a
// pool worker and receives the category and matched text when the URL was
// flagged, or CategoryNone and "" otherwise. It must not block.
func (c *URLChecker) CheckMessageFunc(
	ctx context.Context,
	policy TenantPolicy,
	checkCtx CheckContext,
	message string,
	callback func(Category, string),
) bool {
	return c.submit(ctx, policy, checkCtx, message, func(report Report) {
		if report.Result.Flagged() {
			callback(report.Result.Category, report.Result.Match)
			return
		}
		callback(CategoryNone, "")
	})
}

// CheckLinks checks every link and waits for all of the reports. Links
// without an extractable URL come back with Checked set to false.
func (c *URLChecker) CheckLinks(
	ctx context.Context,
	policy TenantPolicy,
	checkCtx CheckContext,
	links []string,
) ([]LinkReport, error) {
	reports := make([]LinkReport, len(links))
	g, gctx := errgroup.WithContext(ctx)

	for i, link := range links {
		link = strings.TrimSpace(link)
		reports[i].Link = link

		ch, ok := c.CheckMessage(ctx, policy, checkCtx, link)
		if !ok {
			continue
		}
		reports[i].Checked = true

		g.Go(func() error {
			select {
			case report := <-ch:
				reports[i].Report = report
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return reports, err
	}
	return reports, nil
}

// Stop drains the dispatch pool. Reports for already submitted checks are
// still delivered.
func (c *URLChecker) Stop() {
	c.pool.Stop()
}

func (c *URLChecker) submit(
	ctx context.Context,
	policy TenantPolicy,
	checkCtx CheckContext,
	message string,
	deliver func(Report),
) bool {
	prepared := message
	if c.textProcessor != nil {
		prepared = c.textProcessor.ProcessText(message, c.maxMessageSize)
	}

	raw, found := ExtractFirstURL(prepared, policy.Mode)
	if !found {
		return false
	}
	url := NormalizeURL(raw)

	err := c.pool.Submit(func() {
		c.run(ctx, policy, checkCtx, url, deliver)
	})
	if err != nil {
		c.logger.Error("Failed to submit URL check", zap.String("url", url), zap.Error(err))
		report := Report{URL: url, Outcome: OutcomeFailed}
		c.recorder.ObserveCheck(report)
		deliver(report)
	}
	return true
}

func (c *URLChecker) run(
	ctx context.Context,
	policy TenantPolicy,
	checkCtx CheckContext,
	url string,
	deliver func(Report),
) {
	start := time.Now()
	report := Report{URL: url}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("URL check panicked", zap.String("url", url), zap.Any("panic", r))
			report = Report{URL: url, Outcome: OutcomeFailed}
		}
		report.Duration = time.Since(start)
		c.recorder.ObserveCheck(report)
		deliver(report)
	}()

	if ctx.Err() != nil {
		report.Outcome = OutcomeCancelled
		return
	}

	result := c.classifier.Classify(url, policy.Categories, checkCtx)
	if result.Decided() {
		if result.Flagged() {
			c.logger.Debug("URL was found to be under a flag",
				zap.String("url", url),
				zap.Stringer("flag", result.Category),
				zap.String("match", result.Match))
		}
		report.Result = result
		report.Outcome = OutcomeClassified
		return
	}

	if policy.Mode == ModeRelaxed {
		report.Outcome = OutcomeNoMatch
		return
	}

	c.logger.Debug("URL was not flagged, going to try and follow it", zap.String("url", url))
	followed := c.follower.Follow(ctx, url, policy.Categories, checkCtx, uuid.Nil)

	report.Result = followed.Result
	report.Outcome = followed.Outcome
	report.ChainID = followed.ChainID
	report.Trace = followed.Trace
	report.Hops = len(followed.Trace)

	if followed.Result.Flagged() {
		c.logger.Debug("URL was found to be under a flag after following it",
			zap.String("url", url),
			zap.Stringer("flag", followed.Result.Category),
			zap.String("match", followed.Result.Match))
	}
}
