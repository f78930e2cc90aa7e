package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hann12-34/discovr-events/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate  SortOrder = "date"
	SortByTitle SortOrder = "title"
	SortByVenue SortOrder = "venue"
)

// ParseSortOrder validates a --sort value
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortByDate, SortByTitle, SortByVenue:
		return o, nil
	case "":
		return SortByDate, nil
	}
	return "", fmt.Errorf("invalid sort order: %s (must be 'date', 'title' or 'venue')", s)
}

// sortEvents sorts a slice of events based on the specified sort order
func sortEvents(events []*event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByDate(events[i], events[j])
		})
	case SortByVenue:
		sort.SliceStable(events, func(i, j int) bool {
			vi, vj := strings.ToLower(events[i].Venue.Name), strings.ToLower(events[j].Venue.Name)
			if vi != vj {
				return vi < vj
			}
			// If venues are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	case SortByTitle:
		sort.SliceStable(events, func(i, j int) bool {
			ti, tj := strings.ToLower(events[i].Title), strings.ToLower(events[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	}
}

// compareByDate compares two events by their start date
// Returns true if event i should come before event j
func compareByDate(i, j *event.Event) bool {
	dateI, dateJ := i.StartDate, j.StartDate

	// If both dates are valid, compare them
	if dateI != nil && dateJ != nil && !dateI.Equal(*dateJ) {
		return dateI.Before(*dateJ)
	}

	// If only one date is valid, put the valid one first
	if dateI != nil && dateJ == nil {
		return true
	}
	if dateI == nil && dateJ != nil {
		return false
	}

	// Same date or neither dated: sort by title
	return strings.ToLower(i.Title) < strings.ToLower(j.Title)
}
