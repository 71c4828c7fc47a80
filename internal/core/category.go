package core

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrUnknownCategory is returned when a category name does not match any known category
var ErrUnknownCategory = errors.New("unknown category")

// Category identifies a threat class a URL can be flagged under
type Category uint8

const (
	// CategoryNone is the zero value, used for whitelisted or unmatched results
	CategoryNone Category = iota
	// CategoryURL flags any URL at all
	CategoryURL
	// CategoryIPGrabber flags known IP logging services
	CategoryIPGrabber
	// CategoryDiscordInvite flags Discord server invites
	CategoryDiscordInvite
	// CategoryPhishing flags known phishing and lookalike domains
	CategoryPhishing
	// CategorySuspicious flags cheap TLDs that are mostly used for spam and scams
	CategorySuspicious
	// CategoryScreamers flags jumpscare/screamer sites
	CategoryScreamers
	// CategoryNSFW flags adult sites outside of mature contexts
	CategoryNSFW
)

type categoryInfo struct {
	category  Category
	name      string
	isDefault bool
}

// categoryTable is the fixed, ordered category set. It is never mutated.
var categoryTable = [...]categoryInfo{
	{CategoryURL, "URL", false},
	{CategoryIPGrabber, "IP_GRABBER", true},
	{CategoryDiscordInvite, "DISCORD_INVITE", true},
	{CategoryPhishing, "PHISHING", true},
	{CategorySuspicious, "SUSPICIOUS", false},
	{CategoryScreamers, "SCREAMERS", false},
	{CategoryNSFW, "NSFW", false},
}

var (
	displayNames    = buildDisplayNames()
	defaultSet      = buildDefaultSet()
	allCategorySet  = buildAllSet()
	orderedCategory = buildOrdered()
)

func buildDisplayNames() map[Category]string {
	title := cases.Title(language.English)
	names := make(map[Category]string, len(categoryTable))
	for _, info := range categoryTable {
		names[info.category] = title.String(strings.ToLower(strings.ReplaceAll(info.name, "_", " ")))
	}
	return names
}

func buildDefaultSet() CategorySet {
	var set CategorySet
	for _, info := range categoryTable {
		if info.isDefault {
			set = set.With(info.category)
		}
	}
	return set
}

func buildAllSet() CategorySet {
	var set CategorySet
	for _, info := range categoryTable {
		set = set.With(info.category)
	}
	return set
}

func buildOrdered() []Category {
	out := make([]Category, 0, len(categoryTable))
	for _, info := range categoryTable {
		out = append(out, info.category)
	}
	return out
}

// Categories returns every category in table order
func Categories() []Category {
	return append([]Category(nil), orderedCategory...)
}

// DefaultCategories returns the categories enabled for a newly configured tenant
func DefaultCategories() CategorySet {
	return defaultSet
}

// AllCategories returns a set with every category enabled
func AllCategories() CategorySet {
	return allCategorySet
}

// Name returns the constant name of the category, e.g. IP_GRABBER
func (c Category) Name() string {
	for _, info := range categoryTable {
		if info.category == c {
			return info.name
		}
	}
	return "NONE"
}

// IsDefault reports whether the category is enabled for new tenants
func (c Category) IsDefault() bool {
	return defaultSet.Has(c)
}

// String returns the display name of the category, e.g. "Ip Grabber"
func (c Category) String() string {
	if name, ok := displayNames[c]; ok {
		return name
	}
	return "None"
}

// MarshalText encodes the category by its constant name
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.Name()), nil
}

// UnmarshalText decodes a category from either its constant or display name
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory looks a category up by display name ("Ip Grabber") or
// constant name ("IP_GRABBER"), ignoring case
func ParseCategory(s string) (Category, error) {
	trimmed := strings.TrimSpace(s)
	underscored := strings.ReplaceAll(trimmed, " ", "_")
	for _, info := range categoryTable {
		if strings.EqualFold(trimmed, displayNames[info.category]) || strings.EqualFold(underscored, info.name) {
			return info.category, nil
		}
	}
	return CategoryNone, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// CategorySet is an immutable set of categories. Values are copied, so a
// snapshot held by a worker can never change underneath it.
type CategorySet uint8

// NewCategorySet builds a set from the given categories
func NewCategorySet(categories ...Category) CategorySet {
	var set CategorySet
	for _, c := range categories {
		set = set.With(c)
	}
	return set
}

// ParseCategorySet builds a set from category names
func ParseCategorySet(names []string) (CategorySet, error) {
	var set CategorySet
	for _, name := range names {
		c, err := ParseCategory(name)
		if err != nil {
			return 0, err
		}
		set = set.With(c)
	}
	return set, nil
}

func (s CategorySet) bit(c Category) CategorySet {
	if c == CategoryNone || int(c) > len(categoryTable) {
		return 0
	}
	return 1 << c
}

// Has reports whether c is in the set
func (s CategorySet) Has(c Category) bool {
	b := s.bit(c)
	return b != 0 && s&b != 0
}

// With returns a copy of the set with c added
func (s CategorySet) With(c Category) CategorySet {
	return s | s.bit(c)
}

// Without returns a copy of the set with c removed
func (s CategorySet) Without(c Category) CategorySet {
	return s &^ s.bit(c)
}

// IsEmpty reports whether no category is enabled
func (s CategorySet) IsEmpty() bool {
	return s == 0
}

// Slice returns the categories in table order
func (s CategorySet) Slice() []Category {
	var out []Category
	for _, c := range orderedCategory {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Names returns the constant names of the categories in table order
func (s CategorySet) Names() []string {
	cats := s.Slice()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name()
	}
	return names
}

func (s CategorySet) String() string {
	cats := s.Slice()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	return "[" + strings.Join(names, ", ") + "]"
}
