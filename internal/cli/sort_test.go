package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hann12-34/discovr-events/internal/event"
)

func dated(title, venue string, day int) *event.Event {
	e := &event.Event{Title: title, Venue: event.Venue{Name: venue}}
	if day > 0 {
		t := time.Date(2026, 3, day, 20, 0, 0, 0, time.UTC)
		e.StartDate = &t
	}
	return e
}

func titles(events []*event.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Title
	}
	return out
}

func TestSortEvents(t *testing.T) {
	build := func() []*event.Event {
		return []*event.Event{
			dated("Open Mic", "Rio Theatre", 0),
			dated("jazz brunch", "Commodore Ballroom", 20),
			dated("Blues Night", "Rio Theatre", 5),
			dated("Art Walk", "Commodore Ballroom", 5),
		}
	}

	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortByDate, []string{"Art Walk", "Blues Night", "jazz brunch", "Open Mic"}},
		{SortByTitle, []string{"Art Walk", "Blues Night", "jazz brunch", "Open Mic"}},
		{SortByVenue, []string{"Art Walk", "jazz brunch", "Blues Night", "Open Mic"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			events := build()
			sortEvents(events, tt.order)
			assert.Equal(t, tt.want, titles(events))
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	o, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortByDate, o)

	o, err = ParseSortOrder(" Venue ")
	require.NoError(t, err)
	assert.Equal(t, SortByVenue, o)

	_, err = ParseSortOrder("state")
	assert.Error(t, err)
}
