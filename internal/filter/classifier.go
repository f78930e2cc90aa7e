package filter

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"
)

const (
	minTitleLength      = 4
	maxTitleLength      = 200
	maxSingleWordLength = 15
	maxTruncatedLength  = 20
)

// Rule names reported in a Verdict
const (
	RuleEmpty             = "empty"
	RuleTooShort          = "too_short"
	RuleTooLong           = "too_long"
	RuleGenericSingleWord = "generic_single_word"
	RuleTruncated         = "truncated"
	RulePattern           = "pattern"
)

const (
	categoryLengthBounds = "length"
	categorySingleWord   = "single_word"
	categoryTruncation   = "truncation"
)

// Verdict explains a classification. Rule and Category are empty when the
// title is kept.
type Verdict struct {
	Junk     bool
	Rule     string
	Category string
	Pattern  string
}

func (v Verdict) String() string {
	if !v.Junk {
		return "ok"
	}
	if v.Pattern != "" {
		return fmt.Sprintf("junk (%s: %s)", v.Category, v.Pattern)
	}
	return fmt.Sprintf("junk (%s)", v.Rule)
}

type compiledCategory struct {
	name     string
	patterns []*regexp.Regexp
}

// Classifier decides whether a scraped title is a real event name.
// It is safe for concurrent use.
type Classifier struct {
	shortWhitelist      map[string]bool
	singleWordWhitelist map[string]bool
	genericSingleWords  map[string]bool
	categories          []compiledCategory
}

// NewClassifier compiles a rule table
func NewClassifier(rules Rules) (*Classifier, error) {
	c := &Classifier{
		shortWhitelist:      foldSet(rules.ShortWhitelist),
		singleWordWhitelist: foldSet(rules.SingleWordWhitelist),
		genericSingleWords:  foldSet(rules.GenericSingleWords),
	}

	for _, cat := range rules.Categories {
		cc := compiledCategory{name: cat.Name}
		for _, p := range cat.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern in category %q: %w", cat.Name, err)
			}
			cc.patterns = append(cc.patterns, re)
		}
		c.categories = append(c.categories, cc)
	}

	return c, nil
}

var (
	defaultOnce       sync.Once
	defaultClassifier *Classifier
)

// Default returns the classifier built from the embedded rule table
func Default() *Classifier {
	defaultOnce.Do(func() {
		rules, err := DefaultRules()
		if err != nil {
			panic(fmt.Sprintf("embedded junk rules: %v", err))
		}
		c, err := NewClassifier(rules)
		if err != nil {
			panic(fmt.Sprintf("embedded junk rules: %v", err))
		}
		defaultClassifier = c
	})
	return defaultClassifier
}

// IsJunkTitle reports whether title is junk under the default rule table
func IsJunkTitle(title string) bool {
	return Default().IsJunk(title)
}

// IsJunk reports whether title should be rejected
func (c *Classifier) IsJunk(title string) bool {
	return c.Classify(title).Junk
}

// Classify runs the ordered checks and stops at the first one that rejects.
// Whitelisted titles are never junk.
func (c *Classifier) Classify(title string) Verdict {
	t := strings.Join(strings.Fields(title), " ")
	if t == "" {
		return Verdict{Junk: true, Rule: RuleEmpty, Category: categoryLengthBounds}
	}

	folded := strings.ToLower(t)
	if c.shortWhitelist[folded] {
		return Verdict{}
	}

	n := utf8.RuneCountInString(t)
	switch {
	case n < minTitleLength:
		return Verdict{Junk: true, Rule: RuleTooShort, Category: categoryLengthBounds}
	case n > maxTitleLength:
		return Verdict{Junk: true, Rule: RuleTooLong, Category: categoryLengthBounds}
	}

	if !strings.Contains(t, " ") && n < maxSingleWordLength &&
		!c.singleWordWhitelist[folded] && c.genericSingleWords[folded] {
		return Verdict{Junk: true, Rule: RuleGenericSingleWord, Category: categorySingleWord}
	}

	if n < maxTruncatedLength && (strings.HasSuffix(t, "...") || strings.HasSuffix(t, "…")) {
		return Verdict{Junk: true, Rule: RuleTruncated, Category: categoryTruncation}
	}

	for _, cat := range c.categories {
		for _, re := range cat.patterns {
			if re.MatchString(t) {
				return Verdict{Junk: true, Rule: RulePattern, Category: cat.name, Pattern: re.String()}
			}
		}
	}

	return Verdict{}
}

func foldSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.Join(strings.Fields(w), " "))
		if w != "" {
			set[w] = true
		}
	}
	return set
}
