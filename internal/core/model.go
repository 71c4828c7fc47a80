package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownMode is returned when a scan mode name is not recognised
var ErrUnknownMode = errors.New("unknown mode")

// Mode is the per-tenant scan mode
type Mode uint8

const (
	// ModeRelaxed only extracts URLs with a scheme or www. prefix and never follows redirects
	ModeRelaxed Mode = iota
	// ModeAggressive also extracts bare domains and follows redirects when nothing matched directly
	ModeAggressive
)

func (m Mode) String() string {
	switch m {
	case ModeAggressive:
		return "aggressive"
	case ModeRelaxed:
		return "relaxed"
	default:
		return "unknown"
	}
}

// ParseMode parses "aggressive" or "relaxed", ignoring case
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "aggressive":
		return ModeAggressive, nil
	case "relaxed":
		return ModeRelaxed, nil
	default:
		return ModeRelaxed, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// TenantPolicy is a read-only snapshot of one tenant's URL checking settings
type TenantPolicy struct {
	TenantID   string
	Mode       Mode
	Categories CategorySet
	UpdatedAt  time.Time
}

// CheckContext describes where a message was posted
type CheckContext struct {
	// Mature is true for adult-designated channels, where NSFW links are allowed
	Mature bool
}

// Verdict is the tri-state outcome of classifying one URL
type Verdict uint8

const (
	// VerdictUnmatched means no enabled category applied
	VerdictUnmatched Verdict = iota
	// VerdictWhitelisted means the URL is known safe; nothing else is evaluated for it
	VerdictWhitelisted
	// VerdictFlagged means the URL falls under Result.Category
	VerdictFlagged
)

func (v Verdict) String() string {
	switch v {
	case VerdictWhitelisted:
		return "whitelisted"
	case VerdictFlagged:
		return "flagged"
	default:
		return "unmatched"
	}
}

// Result is the classification of a single URL
type Result struct {
	Verdict  Verdict
	Category Category
	Match    string
}

// Flagged reports whether the result carries a category
func (r Result) Flagged() bool {
	return r.Verdict == VerdictFlagged
}

// Decided reports whether classification should stop here, either because
// the URL was flagged or because it is whitelisted
func (r Result) Decided() bool {
	return r.Verdict != VerdictUnmatched
}

func flagged(c Category, match string) Result {
	return Result{Verdict: VerdictFlagged, Category: c, Match: match}
}

func whitelisted(match string) Result {
	return Result{Verdict: VerdictWhitelisted, Match: match}
}

// Outcome records how a check finished. Callers only need Result; Outcome
// exists for logs and metrics.
type Outcome uint8

const (
	// OutcomeClassified means the extracted URL matched directly (flagged or whitelisted)
	OutcomeClassified Outcome = iota
	// OutcomeNoMatch means nothing matched and the mode does not follow redirects
	OutcomeNoMatch
	// OutcomeResolved means a redirect target was classified
	OutcomeResolved
	// OutcomeChainEnded means a hop returned no Location header
	OutcomeChainEnded
	// OutcomeAbandoned means the hop cap was reached
	OutcomeAbandoned
	// OutcomeFailed means a transport error, a rejected job or a recovered panic
	OutcomeFailed
	// OutcomeCancelled means the caller's context ended the check
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClassified:
		return "classified"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeResolved:
		return "resolved"
	case OutcomeChainEnded:
		return "chain_ended"
	case OutcomeAbandoned:
		return "abandoned"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Hop is one request made while following redirects
type Hop struct {
	Index    int
	URL      string
	Status   int
	Location string
}

// Report is delivered exactly once for every submitted check
type Report struct {
	URL      string
	Result   Result
	Outcome  Outcome
	ChainID  uuid.UUID
	Hops     int
	Trace    []Hop
	Duration time.Duration
}

// LinkReport pairs a link from a batch with its report
type LinkReport struct {
	Link    string
	Checked bool
	Report  Report
}
