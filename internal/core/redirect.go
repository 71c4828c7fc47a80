package core

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxHops is the redirect budget of one chain
const DefaultMaxHops = 10

// FollowResult is the outcome of following one redirect chain
type FollowResult struct {
	Result  Result
	Outcome Outcome
	ChainID uuid.UUID
	Trace   []Hop
}

// RedirectFollower walks redirect chains one hop at a time and classifies
// every Location it is sent to. It performs blocking network I/O and must
// only run inside a DispatchPool worker.
type RedirectFollower struct {
	client     HTTPClient
	classifier *Classifier
	chains     *ChainTracker
	maxHops    int
	method     string
	logger     *zap.Logger
}

// NewRedirectFollower creates a new redirect follower. The client must not
// follow redirects on its own; see NewNoRedirectClient.
func NewRedirectFollower(
	client HTTPClient,
	classifier *Classifier,
	chains *ChainTracker,
	maxHops int,
	method string,
	logger *zap.Logger,
) *RedirectFollower {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	if method != http.MethodGet {
		method = http.MethodHead
	}
	return &RedirectFollower{
		client:     client,
		classifier: classifier,
		chains:     chains,
		maxHops:    maxHops,
		method:     method,
		logger:     logger,
	}
}

// Follow requests url and keeps following Location headers until a target
// classifies, a hop has no Location, the hop budget is spent or a request
// fails. A zero chainID mints a fresh chain that is forgotten on return;
// a supplied chainID keeps counting where it left off.
func (f *RedirectFollower) Follow(
	ctx context.Context,
	url string,
	enabled CategorySet,
	checkCtx CheckContext,
	chainID uuid.UUID,
) FollowResult {
	if chainID == uuid.Nil {
		chainID = f.chains.Begin()
		defer f.chains.End(chainID)
	} else {
		f.chains.Track(chainID)
	}

	res := FollowResult{ChainID: chainID}
	current := url

	for {
		if hops := f.chains.Hops(chainID); hops >= f.maxHops {
			f.logger.Info("Redirect chain abandoned",
				zap.String("url", url),
				zap.String("chain_id", chainID.String()),
				zap.Int("hops", hops))
			res.Outcome = OutcomeAbandoned
			return res
		}

		hop, location, err := f.request(ctx, current, len(res.Trace))
		if hop.URL != "" {
			res.Trace = append(res.Trace, hop)
		}
		if err != nil {
			if ctx.Err() != nil {
				f.logger.Debug("Redirect chain cancelled",
					zap.String("url", current),
					zap.Error(ctx.Err()))
				res.Outcome = OutcomeCancelled
				return res
			}
			f.logger.Warn("Failed to follow URL",
				zap.String("url", current),
				zap.Error(err))
			res.Outcome = OutcomeFailed
			return res
		}

		if location == "" {
			f.logger.Debug("Redirect chain ended",
				zap.String("url", current),
				zap.Int("status", hop.Status))
			res.Outcome = OutcomeChainEnded
			return res
		}

		f.logger.Info("URL wants to redirect",
			zap.String("url", current),
			zap.Int("status", hop.Status),
			zap.String("location", location))

		if result := f.classifier.Classify(location, enabled, checkCtx); result.Decided() {
			res.Result = result
			res.Outcome = OutcomeResolved
			return res
		}

		if _, ok := f.chains.Advance(chainID, f.maxHops); !ok {
			res.Outcome = OutcomeAbandoned
			return res
		}
		current = location
	}
}

// request performs a single hop and returns the resolved Location, if any
func (f *RedirectFollower) request(ctx context.Context, url string, index int) (Hop, string, error) {
	req, err := http.NewRequestWithContext(ctx, f.method, url, nil)
	if err != nil {
		return Hop{}, "", fmt.Errorf("failed to build request: %w", err)
	}

	hop := Hop{Index: index, URL: url}

	resp, err := f.client.Do(req)
	if err != nil {
		return hop, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	hop.Status = resp.StatusCode

	raw := resp.Header.Get("Location")
	if raw == "" {
		return hop, "", nil
	}

	location, err := req.URL.Parse(raw)
	if err != nil {
		return hop, "", fmt.Errorf("malformed location %q: %w", raw, err)
	}
	hop.Location = location.String()

	return hop, hop.Location, nil
}
