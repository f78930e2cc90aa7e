package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hann12-34/discovr-events/internal/event"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestFilter_IsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		filter *Filter
		want   bool
	}{
		{name: "empty filter", filter: NewFilter(), want: true},
		{name: "filter with date from", filter: &Filter{DateFrom: timePtr(time.Now())}, want: false},
		{name: "filter with weekends only", filter: &Filter{WeekendsOnly: true}, want: false},
		{name: "filter with venue", filter: &Filter{Venues: []string{"Orpheum"}}, want: false},
		{name: "filter with price", filter: &Filter{PriceRanges: []event.PriceRange{event.PriceFree}}, want: false},
		{name: "filter with upcoming only", filter: &Filter{UpcomingOnly: true}, want: false},
		{name: "filter with days ahead", filter: &Filter{DaysAhead: 7}, want: false},
		{name: "negative days ahead is inactive", filter: &Filter{DaysAhead: -1}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.IsEmpty())
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	mar14 := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC) // Saturday
	mar18 := time.Date(2026, 3, 18, 20, 0, 0, 0, time.UTC) // Wednesday

	saturdayShow := &event.Event{
		Title:      "Symphony Under the Stars",
		StartDate:  &mar14,
		Venue:      event.Venue{Name: "Orpheum Theatre", City: "Vancouver"},
		Category:   "Music",
		PriceRange: event.PriceModerate,
	}
	midweekShow := &event.Event{
		Title:      "Film Night",
		StartDate:  &mar18,
		Venue:      event.Venue{Name: "The Rio", City: "Vancouver"},
		Category:   "Film & Media",
		PriceRange: event.PriceLow,
	}

	tests := []struct {
		name   string
		filter *Filter
		evt    *event.Event
		want   bool
	}{
		{name: "empty filter matches", filter: NewFilter(), evt: midweekShow, want: true},
		{
			name:   "inside date range",
			filter: &Filter{DateFrom: timePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)), DateTo: timePtr(time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC))},
			evt:    saturdayShow,
			want:   true,
		},
		{
			name:   "after date range",
			filter: &Filter{DateTo: timePtr(time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC))},
			evt:    midweekShow,
			want:   false,
		},
		{name: "weekend show", filter: &Filter{WeekendsOnly: true}, evt: saturdayShow, want: true},
		{name: "midweek show", filter: &Filter{WeekendsOnly: true}, evt: midweekShow, want: false},
		{name: "venue substring", filter: &Filter{Venues: []string{"orpheum"}}, evt: saturdayShow, want: true},
		{name: "venue mismatch", filter: &Filter{Venues: []string{"orpheum"}}, evt: midweekShow, want: false},
		{name: "city", filter: &Filter{Cities: []string{"VANCOUVER"}}, evt: midweekShow, want: true},
		{name: "city mismatch", filter: &Filter{Cities: []string{"Toronto"}}, evt: midweekShow, want: false},
		{name: "category", filter: &Filter{Categories: []string{"music"}}, evt: saturdayShow, want: true},
		{name: "category mismatch", filter: &Filter{Categories: []string{"music"}}, evt: midweekShow, want: false},
		{name: "price tier", filter: &Filter{PriceRanges: []event.PriceRange{event.PriceLow, event.PriceFree}}, evt: midweekShow, want: true},
		{name: "price tier mismatch", filter: &Filter{PriceRanges: []event.PriceRange{event.PriceFree}}, evt: saturdayShow, want: false},
		{
			name:   "undated event ignores date criteria",
			filter: &Filter{DateFrom: timePtr(mar18), WeekendsOnly: true},
			evt:    &event.Event{Title: "Someday"},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.evt))
		})
	}
}

func TestFilter_UpcomingWindow(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -3)
	soon := now.AddDate(0, 0, 5)
	later := now.AddDate(0, 2, 0)

	lastWeek := &event.Event{Title: "Winter Lantern Walk", StartDate: &past}
	nextWeek := &event.Event{Title: "Chinese New Year Parade", StartDate: &soon}
	inApril := &event.Event{Title: "Cherry Blossom Festival", StartDate: &later}
	undated := &event.Event{Title: "Ongoing Exhibit"}
	clock := func() time.Time { return now }

	t.Run("upcoming only", func(t *testing.T) {
		f := &Filter{UpcomingOnly: true, Now: clock}
		assert.False(t, f.Matches(lastWeek))
		assert.True(t, f.Matches(nextWeek))
		assert.True(t, f.Matches(inApril))
		assert.True(t, f.Matches(undated), "undated events are not treated as past")
	})

	t.Run("days ahead", func(t *testing.T) {
		f := &Filter{DaysAhead: 30, Now: clock}
		got := f.Apply([]*event.Event{lastWeek, nextWeek, inApril, undated})
		assert.Equal(t, []*event.Event{nextWeek, undated}, got)
	})

	t.Run("described", func(t *testing.T) {
		f := &Filter{UpcomingOnly: true, DaysAhead: 14}
		assert.Equal(t, "Upcoming only | Next 14 days", f.String())
	})
}

func TestFilter_Apply(t *testing.T) {
	events := []*event.Event{
		{ID: "1", Venue: event.Venue{City: "Vancouver"}},
		{ID: "2", Venue: event.Venue{City: "Toronto"}},
		{ID: "3", Venue: event.Venue{City: "North Vancouver"}},
	}

	assert.Equal(t, events, NewFilter().Apply(events), "empty filter returns input unchanged")

	got := (&Filter{Cities: []string{"vancouver"}}).Apply(events)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "1", got[0].ID)
		assert.Equal(t, "3", got[1].ID)
	}
}

func TestFilter_String(t *testing.T) {
	assert.Equal(t, "No active filters", NewFilter().String())

	f := &Filter{
		DateFrom:     timePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		Cities:       []string{"Vancouver"},
		PriceRanges:  []event.PriceRange{event.PriceFree},
		WeekendsOnly: true,
	}
	assert.Equal(t, "From: Mar 1, 2026 | Cities: Vancouver | Price: Free | Weekends only", f.String())
}

