package core

import (
	"regexp"
	"strings"
)

var (
	// urlPattern requires an explicit scheme or a www. prefix
	urlPattern = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s<>"]+`)

	// urlPatternNoProtocol also matches bare domains such as example.com
	urlPatternNoProtocol = regexp.MustCompile(`(?i)(?:https?://[^\s<>"]+|\b(?:www\.)?(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}(?::\d{1,5})?(?:[/?#][^\s<>"]*)?)`)
)

// trailingPunctuation is trimmed from extracted URLs so that a link at the
// end of a sentence does not carry the full stop along
const trailingPunctuation = `.,;:!?'")]>`

// ExtractFirstURL returns the first URL in text. Only the first match is
// ever considered.
func ExtractFirstURL(text string, mode Mode) (string, bool) {
	pattern := urlPattern
	if mode == ModeAggressive {
		pattern = urlPatternNoProtocol
	}
	match := pattern.FindString(text)
	if match == "" {
		return "", false
	}
	return match, true
}

// NormalizeURL prepends http:// when there is no http(s) scheme and trims
// surrounding whitespace and trailing punctuation
func NormalizeURL(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = trimTrailing(normalized)
	lower := strings.ToLower(normalized)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		normalized = "http://" + normalized
	}
	return normalized
}

// trimTrailing drops trailing punctuation. A closing paren is kept while it
// balances an opening one, as in wiki links like Foo_(bar).
func trimTrailing(s string) string {
	for s != "" {
		last := s[len(s)-1]
		if !strings.ContainsRune(trailingPunctuation, rune(last)) {
			break
		}
		if last == ')' && strings.Count(s, "(") >= strings.Count(s, ")") {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}
