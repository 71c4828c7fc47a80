package core

import (
	"go.uber.org/zap"
)

// priority is the fixed evaluation order after the whitelist. Identity and
// malware risks come before cosmetic ones.
var priority = [...]Category{
	CategoryIPGrabber,
	CategoryDiscordInvite,
	CategoryPhishing,
	CategorySuspicious,
	CategoryScreamers,
	CategoryNSFW,
}

// Classifier applies the catalog to a single normalised URL
type Classifier struct {
	catalog *Catalog
	logger  *zap.Logger
}

// NewClassifier creates a new classifier
func NewClassifier(catalog *Catalog, logger *zap.Logger) *Classifier {
	return &Classifier{
		catalog: catalog,
		logger:  logger,
	}
}

// Classify evaluates the whitelist and then each enabled category in
// priority order. The first match wins.
func (c *Classifier) Classify(url string, enabled CategorySet, checkCtx CheckContext) Result {
	c.logger.Debug("Checking URL",
		zap.String("url", url),
		zap.Stringer("flags", enabled))

	if match, ok := c.catalog.MatchWhitelist(url); ok {
		return whitelisted(match)
	}

	for _, category := range priority {
		if !enabled.Has(category) {
			continue
		}
		if category == CategoryNSFW && (checkCtx.Mature || !c.catalog.Has(CategoryNSFW)) {
			continue
		}
		if match, ok := c.catalog.Match(category, url); ok {
			return flagged(category, match)
		}
	}

	if enabled.Has(CategoryURL) {
		return flagged(CategoryURL, url)
	}

	return Result{}
}
