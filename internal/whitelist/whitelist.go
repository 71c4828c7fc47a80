package whitelist

import (
	"net/url"
	"strings"

	"github.com/willf/bloom"
	"go.uber.org/zap"
)

// Checker matches the host of a URL, or any of its parent domains, against
// operator-configured whitelisted domains. A bloom filter screens lookups
// so that the exact set is only consulted for likely hits.
type Checker struct {
	domains map[string]struct{}
	filter  *bloom.BloomFilter
	logger  *zap.Logger
}

// NewChecker creates a new whitelist checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make(map[string]struct{}, len(domains))
	for _, domain := range domains {
		d := strings.ToLower(strings.TrimSpace(domain))
		d = strings.TrimPrefix(d, "*.")
		d = strings.Trim(d, ".")
		if d != "" {
			normalized[d] = struct{}{}
		}
	}

	filter := bloom.NewWithEstimates(uint(len(normalized)+1), 0.01)
	names := make([]string, 0, len(normalized))
	for d := range normalized {
		filter.AddString(d)
		names = append(names, d)
	}

	if len(names) > 0 && logger != nil {
		logger.Info("Initialized whitelist checker", zap.Strings("domains", names))
	}

	return &Checker{
		domains: normalized,
		filter:  filter,
		logger:  logger,
	}
}

// Len returns the number of whitelisted domains
func (c *Checker) Len() int {
	return len(c.domains)
}

// Find returns the whitelisted domain the URL's host falls under
func (c *Checker) Find(rawURL string) (string, bool) {
	if len(c.domains) == 0 {
		return "", false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")

	for candidate := host; candidate != ""; {
		if c.filter.TestString(candidate) {
			if _, ok := c.domains[candidate]; ok {
				if c.logger != nil {
					c.logger.Debug("Domain is whitelisted",
						zap.String("domain", candidate),
						zap.String("url", rawURL))
				}
				return candidate, true
			}
		}

		i := strings.IndexByte(candidate, '.')
		if i < 0 {
			break
		}
		candidate = candidate[i+1:]
	}

	return "", false
}
