package event

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	freePattern      = regexp.MustCompile(`(?i)free`)
	dollarAmount     = regexp.MustCompile(`\$\s?(\d+(?:\.\d+)?)`)
	freeDescriptions = []string{"free admission", "no cost", "free event"}
)

// DeterminePriceRange maps a raw price to a tier.
//
//   - nil, 0, "" or anything mentioning "free" is Free
//   - numbers: < 20 Low, < 50 Moderate, otherwise High
//   - strings: numeric text is treated as a number, otherwise the count of
//     '$' characters picks the tier ($ Low, $$ Moderate, $$$ High)
//   - anything else is Varies
func DeterminePriceRange(price any) PriceRange {
	switch p := price.(type) {
	case nil:
		return PriceFree
	case int:
		return tierFor(float64(p))
	case float64:
		return tierFor(p)
	case string:
		s := strings.TrimSpace(p)
		if s == "" || freePattern.MatchString(s) {
			return PriceFree
		}
		if n, err := strconv.ParseFloat(strings.TrimPrefix(s, "$"), 64); err == nil {
			return tierFor(n)
		}
		switch dollars := strings.Count(s, "$"); {
		case dollars >= 3:
			return PriceHigh
		case dollars == 2:
			return PriceModerate
		case dollars == 1:
			return PriceLow
		}
	}
	return PriceVaries
}

func tierFor(n float64) PriceRange {
	switch {
	case n == 0:
		return PriceFree
	case n < 20:
		return PriceLow
	case n < 50:
		return PriceModerate
	default:
		return PriceHigh
	}
}

// inferPriceRange guesses a tier from description text when a source
// supplied no price at all.
func inferPriceRange(description string) PriceRange {
	if description == "" {
		return PriceVaries
	}
	text := strings.ToLower(description)
	for _, phrase := range freeDescriptions {
		if strings.Contains(text, phrase) {
			return PriceFree
		}
	}
	if m := dollarAmount.FindStringSubmatch(text); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			return tierFor(n)
		}
	}
	return PriceVaries
}
