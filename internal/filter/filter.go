// Package filter decides which normalized events are worth keeping.
//
// Three layers live here:
//   - Classifier: the junk-title check, driven by an ordered, data-driven
//     rule table (rules.yaml, embedded; may be replaced from config)
//   - Gate: classifier plus the date gate, applied by the pipeline before
//     deduplication
//   - Filter: optional output criteria (date range, upcoming window, venue,
//     city, category, price tier, weekends) applied to the final list by the CLI
//
// Example usage:
//
//	// Keep only weekend music events in March
//	from, to, _ := filter.ParseDateRange("March")
//	f := filter.NewFilter()
//	f.DateFrom, f.DateTo = from, to
//	f.Categories = []string{"Music"}
//	f.WeekendsOnly = true
//
//	filtered := f.Apply(events)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/hann12-34/discovr-events/internal/event"
)

// Filter represents output filtering criteria
type Filter struct {
	// Date range filtering
	DateFrom *time.Time `json:"date_from,omitempty" yaml:"-"`
	DateTo   *time.Time `json:"date_to,omitempty" yaml:"-"`

	// Venue name filtering (case-insensitive substring match)
	Venues []string `json:"venues,omitempty" yaml:"venues"`

	// City filtering (case-insensitive substring match)
	Cities []string `json:"cities,omitempty" yaml:"cities"`

	// Category filtering (case-insensitive exact match)
	Categories []string `json:"categories,omitempty" yaml:"categories"`

	// Price tiers to keep
	PriceRanges []event.PriceRange `json:"price_ranges,omitempty" yaml:"price_ranges"`

	// Weekend-only filtering (Saturday/Sunday)
	WeekendsOnly bool `json:"weekends_only,omitempty" yaml:"weekends_only"`

	// Drop events whose start has passed
	UpcomingOnly bool `json:"upcoming_only,omitempty" yaml:"upcoming_only"`

	// Keep only events starting within this many days (0 disables)
	DaysAhead int `json:"days_ahead,omitempty" yaml:"days_ahead"`

	// Now is the reference time for UpcomingOnly and DaysAhead. Defaults to time.Now.
	Now func() time.Time `json:"-" yaml:"-"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Venues:      []string{},
		Cities:      []string{},
		Categories:  []string{},
		PriceRanges: []event.PriceRange{},
	}
}

// IsEmpty checks if the filter has any active criteria
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Venues) == 0 &&
		len(f.Cities) == 0 &&
		len(f.Categories) == 0 &&
		len(f.PriceRanges) == 0 &&
		!f.WeekendsOnly &&
		!f.UpcomingOnly &&
		f.DaysAhead <= 0
}

// Matches checks if an event matches all active filter criteria.
// An empty filter matches all events. Date criteria ignore undated events,
// which the gate has normally removed already.
func (f *Filter) Matches(evt *event.Event) bool {
	if f.IsEmpty() {
		return true
	}

	start := evt.StartDate

	if f.UpcomingOnly && evt.IsPastEvent(f.now()) {
		return false
	}
	if !evt.IsWithinDays(f.now(), f.DaysAhead) {
		return false
	}

	if f.DateFrom != nil && start != nil && start.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && start != nil && start.After(*f.DateTo) {
		return false
	}

	if f.WeekendsOnly && start != nil {
		weekday := start.Weekday()
		if weekday != time.Saturday && weekday != time.Sunday {
			return false
		}
	}

	if len(f.Venues) > 0 && !containsAny(evt.Venue.Name, f.Venues) {
		return false
	}

	if len(f.Cities) > 0 && !containsAny(evt.Venue.City, f.Cities) {
		return false
	}

	if len(f.Categories) > 0 {
		matched := false
		for _, c := range f.Categories {
			if strings.EqualFold(evt.Category, c) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(f.PriceRanges) > 0 {
		matched := false
		for _, pr := range f.PriceRanges {
			if evt.PriceRange == pr {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// Apply returns only matching events. An empty filter returns the input unchanged.
func (f *Filter) Apply(events []*event.Event) []*event.Event {
	if f.IsEmpty() {
		return events
	}

	var filtered []*event.Event
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Mar 1, 2026 | To: Mar 15, 2026 | Cities: Vancouver | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}
	if len(f.Venues) > 0 {
		parts = append(parts, fmt.Sprintf("Venues: %s", strings.Join(f.Venues, ", ")))
	}
	if len(f.Cities) > 0 {
		parts = append(parts, fmt.Sprintf("Cities: %s", strings.Join(f.Cities, ", ")))
	}
	if len(f.Categories) > 0 {
		parts = append(parts, fmt.Sprintf("Categories: %s", strings.Join(f.Categories, ", ")))
	}
	if len(f.PriceRanges) > 0 {
		tiers := make([]string, len(f.PriceRanges))
		for i, pr := range f.PriceRanges {
			tiers[i] = string(pr)
		}
		parts = append(parts, fmt.Sprintf("Price: %s", strings.Join(tiers, ", ")))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}
	if f.UpcomingOnly {
		parts = append(parts, "Upcoming only")
	}
	if f.DaysAhead > 0 {
		parts = append(parts, fmt.Sprintf("Next %d days", f.DaysAhead))
	}

	return strings.Join(parts, " | ")
}

func (f *Filter) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func containsAny(value string, needles []string) bool {
	lower := strings.ToLower(value)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
