package event

import (
	"regexp"
	"strings"
	"time"
)

var (
	ordinalSuffix  = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	trailingParens = regexp.MustCompile(`\s*\([^)]*\)$`)
	atClock        = regexp.MustCompile(`(?i),?\s+at\s+(\d{1,2}(:\d{2})?\s*[ap]\.?m\.?)`)
	meridiem       = regexp.MustCompile(`(?i)(\d)\s*([ap])\.?m\.?$`)
)

// dateLayouts is tried in order. Layouts with a time component come before
// their date-only prefixes because time.Parse requires a full match.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.ANSIC,
	time.UnixDate,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 2 2006",
	"Monday, January 2, 2006 3:04 PM",
	"Monday, January 2, 2006 3 PM",
	"Monday, January 2, 2006",
	"Monday, 2 January 2006 03:04 PM",
	"Monday, 2 January 2006",
	"Mon, Jan 2, 2006 3:04 PM",
	"Mon, Jan 2, 2006",
	"Mon Jan 2, 2006",
	"January 2, 2006 3:04 PM",
	"January 2, 2006 3 PM",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"01/02/2006 3:04 PM",
	"1/2/2006",
	"2006/01/02",
	"1.2.06",
	"01/02/06",
}

// yearlessLayouts are completed with the current year
var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
}

// ParseDate attempts to parse free-form date text into a time.
// Returns nil when the text is not a valid calendar date; it never fails.
func ParseDate(dateText string) *time.Time {
	text := cleanDateText(dateText)
	if text == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			t = t.UTC()
			return &t
		}
	}

	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			now := time.Now().UTC()
			t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &t
		}
	}

	return nil
}

// cleanDateText strips decorations that no layout can express
func cleanDateText(s string) string {
	s = CleanText(s)
	s = trailingParens.ReplaceAllString(s, "")
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = atClock.ReplaceAllString(s, " $1")
	s = meridiem.ReplaceAllStringFunc(s, func(m string) string {
		sub := meridiem.FindStringSubmatch(m)
		return sub[1] + " " + strings.ToUpper(sub[2]) + "M"
	})
	return strings.TrimSpace(s)
}

// MapDateToSeason maps a start date to its Northern-Hemisphere season.
// A nil date maps to SeasonUnknown.
func MapDateToSeason(date *time.Time) Season {
	if date == nil {
		return SeasonUnknown
	}
	switch date.Month() {
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	case time.September, time.October, time.November:
		return SeasonFall
	default:
		return SeasonWinter
	}
}
