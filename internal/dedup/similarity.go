package dedup

import (
	"strings"
	"unicode"
)

// Default similarity parameters. Both are tunable; the values carry no
// deeper meaning than having worked well on scraped listings.
const (
	DefaultMinWordLength  = 4
	DefaultMaxSharedWords = 2
)

// Matcher decides whether two titles name the same event. The check is
// deliberately approximate: exact match, containment, or enough shared
// significant words.
type Matcher struct {
	// MinWordLength is the shortest token counted as significant
	MinWordLength int

	// MaxSharedWords caps the number of shared significant words required
	MaxSharedWords int
}

// DefaultMatcher returns a Matcher with the default parameters
func DefaultMatcher() Matcher {
	return Matcher{MinWordLength: DefaultMinWordLength, MaxSharedWords: DefaultMaxSharedWords}
}

// CompareTitles reports whether a and b are similar using the default matcher
func CompareTitles(a, b string) bool {
	return DefaultMatcher().CompareTitles(a, b)
}

// CompareTitles is symmetric, reflexive for non-empty input, and ignores
// case and surrounding whitespace. An empty title is never similar to anything.
func (m Matcher) CompareTitles(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}

	if a == b {
		return true
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)

	sigA := m.significant(wordsA)
	if len(sigA) == 0 {
		return false
	}
	shared := 0
	for w := range m.significant(wordsB) {
		if sigA[w] {
			shared++
		}
	}

	return shared >= m.threshold(len(wordsA), len(wordsB))
}

// threshold is min(MaxSharedWords, floor(min(nA, nB)/2)), never below one so
// two unrelated one-word titles cannot match on zero overlap.
func (m Matcher) threshold(nA, nB int) int {
	need := min(nA, nB) / 2
	if maxShared := m.maxSharedWords(); need > maxShared {
		need = maxShared
	}
	if need < 1 {
		need = 1
	}
	return need
}

func (m Matcher) significant(words []string) map[string]bool {
	minLen := m.MinWordLength
	if minLen <= 0 {
		minLen = DefaultMinWordLength
	}

	set := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.TrimFunc(w, unicode.IsPunct)
		if len([]rune(w)) >= minLen {
			set[w] = true
		}
	}
	return set
}

func (m Matcher) maxSharedWords() int {
	if m.MaxSharedWords <= 0 {
		return DefaultMaxSharedWords
	}
	return m.MaxSharedWords
}
