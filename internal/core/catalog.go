package core

import (
	"fmt"
	"regexp"
	"strings"
)

// hostPrefix anchors a domain pattern to the host part of a normalised URL,
// allowing any number of subdomains and an optional userinfo section. The
// host starts after the last @ of the authority.
const hostPrefix = `(?i)^[a-z][a-z0-9+.-]*://(?:[^/?#\s]*@)?(?:[^/?#@:\s]*\.)?`

// hostSuffix requires the domain to end the authority. Only a numeric port
// may follow, so "good.com:80@bad.com" never matches good.com.
const hostSuffix = `(?::[0-9]*)?(?:[/?#]|$)`

var (
	whitelistedDomains = []string{
		"flarebot.stream",
		"google.com",
		"youtube.com",
		"youtu.be",
		"github.com",
		"gitlab.com",
		"twitch.tv",
		"twitter.com",
		"x.com",
		"reddit.com",
		"wikipedia.org",
		"imgur.com",
		"spotify.com",
		"soundcloud.com",
		"stackoverflow.com",
		"tenor.com",
		"giphy.com",
		"media.discordapp.net",
		"cdn.discordapp.com",
	}

	ipGrabberDomains = []string{
		"iplogger.com", "iplogger.org", "iplogger.ru", "iplogger.co", "iplogger.info",
		"2no.co", "yip.su", "grabify.link", "blasze.com", "blasze.tk",
		"iplis.ru", "ipgrabber.ru", "ezstat.ru", "whatstheirip.com", "ps3cfw.com",
		"bmwforum.co", "leancoding.co", "stopify.co", "freegiftcards.co", "headshot.monster",
		"gamingfun.me", "myprivate.pics", "joinmy.site", "curiouscat.club", "catsnthings.fun",
		"catsnthing.com", "partpicker.shop", "sportshub.bar", "locations.quest", "lovebird.guru",
		"trulove.guru", "dateing.club", "shrekis.life", "gaming-at-my.best", "progaming.monster",
		"screenshare.host", "imageshare.best", "screenshot.best", "fortnitechat.site", "fortnight.space",
		"hondachat.com", "youramonkey.com", "pronosparadise.com", "freebooter.pro", "blurred.pw",
		"shhh.lol", "youshouldclick.us", "hunterhood.co", "datingstrip.com",
	}

	phishingHosts = []string{
		`discord-?nitro[a-z0-9-]*\.[a-z]{2,}`,
		`[a-z0-9-]*nitro-?gift[a-z0-9-]*\.[a-z]{2,}`,
		`discord-?gifts?[a-z0-9-]*\.[a-z]{2,}`,
		`(?:dlscord|discrod|disocrd|dicsord|discorcl|dliscord|discordd|diiscord)[a-z0-9-]*\.[a-z]{2,}`,
		`(?:steamcommunnity|steamcommunitty|stearncommunity|steamcommuntiy|steamcomminuty|steancommunity|steamcommunlty)[a-z0-9-]*\.[a-z]{2,}`,
		`(?:steam-?nitro|free-?nitro|csgo-?skins?|free-?skins?)[a-z0-9-]*\.[a-z]{2,}`,
	}

	suspiciousTLDs = []string{
		"tk", "ml", "ga", "cf", "gq", "top", "xyz", "work", "click", "link",
		"loan", "men", "country", "stream", "download", "racing", "win", "bid",
		"date", "review", "trade", "party", "science", "accountant", "faith",
		"cricket", "webcam", "gdn", "kim", "pw", "icu", "buzz", "rest", "fit",
		"cam", "surf", "monster", "quest", "bar", "uno",
	}

	screamerDomains = []string{
		"scarymaze.com", "scarymaze.net", "scarymazegame.com", "thescarymaze.com",
		"scaremaze.com", "screamer.wtf", "screamer.io", "jumpscare.xyz", "jumpscare.me",
		"s3cr3tmaze.com",
	}

	// invitePattern is not host anchored: an invite anywhere in the URL,
	// including redirect wrapper query strings, counts.
	invitePattern = `(?i)(?:^|[^a-z0-9-])((?:discord(?:app)?\.com/invite|discord\.(?:gg|io|me|li)|invite\.gg)/[a-z0-9-]+)`
)

// RegexMatcher matches a compiled pattern. When the pattern has a capture
// group, the first group is reported as the match.
type RegexMatcher struct {
	re *regexp.Regexp
}

// NewRegexMatcher compiles a pattern into a matcher
func NewRegexMatcher(pattern string) (*RegexMatcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern: %w", err)
	}
	return &RegexMatcher{re: re}, nil
}

func mustMatcher(pattern string) *RegexMatcher {
	m, err := NewRegexMatcher(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// Find returns the matched substring
func (m *RegexMatcher) Find(url string) (string, bool) {
	groups := m.re.FindStringSubmatch(url)
	if groups == nil {
		return "", false
	}
	if len(groups) > 1 && groups[1] != "" {
		return groups[1], true
	}
	return groups[0], true
}

func (m *RegexMatcher) String() string {
	return m.re.String()
}

// DomainPattern builds a host-anchored pattern for a list of literal domains
func DomainPattern(domains []string) string {
	quoted := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(d))
	}
	return hostPattern(quoted)
}

func hostPattern(alternatives []string) string {
	return hostPrefix + "((?:" + strings.Join(alternatives, "|") + "))" + hostSuffix
}

func tldPattern(tlds []string) string {
	return `(?i)^[a-z][a-z0-9+.-]*://(?:[^/?#\s]*@)?[^/?#@:\s]+(\.(?:` + strings.Join(tlds, "|") + `))\.?` + hostSuffix
}

// Catalog holds one matcher per category plus the whitelist matchers.
// It carries no ordering; the Classifier owns priority.
type Catalog struct {
	whitelist []Matcher
	rules     map[Category]Matcher
}

// NewCatalog builds a catalog from explicit matchers. A category without a
// matcher never matches.
func NewCatalog(whitelist []Matcher, rules map[Category]Matcher) *Catalog {
	copied := make(map[Category]Matcher, len(rules))
	for c, m := range rules {
		if m != nil {
			copied[c] = m
		}
	}
	return &Catalog{
		whitelist: append([]Matcher(nil), whitelist...),
		rules:     copied,
	}
}

// DefaultCatalog builds the built-in catalog. extraWhitelist may be nil.
// An empty nsfwDomains list leaves the NSFW rule without a matcher.
func DefaultCatalog(extraWhitelist Matcher, nsfwDomains []string) (*Catalog, error) {
	whitelist := []Matcher{mustMatcher(DomainPattern(whitelistedDomains))}
	if extraWhitelist != nil {
		whitelist = append(whitelist, extraWhitelist)
	}

	rules := map[Category]Matcher{
		CategoryIPGrabber:     mustMatcher(DomainPattern(ipGrabberDomains)),
		CategoryDiscordInvite: mustMatcher(invitePattern),
		CategoryPhishing:      mustMatcher(hostPattern(phishingHosts)),
		CategorySuspicious:    mustMatcher(tldPattern(suspiciousTLDs)),
		CategoryScreamers:     mustMatcher(DomainPattern(screamerDomains)),
	}

	if len(nsfwDomains) > 0 {
		nsfw, err := NewRegexMatcher(DomainPattern(nsfwDomains))
		if err != nil {
			return nil, fmt.Errorf("invalid nsfw domains: %w", err)
		}
		rules[CategoryNSFW] = nsfw
	}

	return NewCatalog(whitelist, rules), nil
}

// MatchWhitelist reports the first whitelist match
func (c *Catalog) MatchWhitelist(url string) (string, bool) {
	for _, m := range c.whitelist {
		if match, ok := m.Find(url); ok {
			return match, true
		}
	}
	return "", false
}

// Has reports whether the category has a non-empty matcher
func (c *Catalog) Has(category Category) bool {
	_, ok := c.rules[category]
	return ok
}

// Match runs the matcher for one category
func (c *Catalog) Match(category Category, url string) (string, bool) {
	m, ok := c.rules[category]
	if !ok {
		return "", false
	}
	return m.Find(url)
}
