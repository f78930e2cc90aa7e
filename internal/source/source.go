// Package source provides the upstream collaborators that feed the pipeline:
// configurable HTML venue scrapers and JSON files written by external
// scrapers.
//
// A Source returns raw records as-is. It does not normalize or deduplicate
// beyond dropping repeats within a single page, and a failing source reports
// a *FetchError instead of panicking or returning partial junk.
package source

import (
	"context"

	"github.com/hann12-34/discovr-events/internal/event"
)

// Source produces raw event records from one upstream site or file
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]event.RawEvent, error)
}

// VenueDefaulter is implemented by sources dedicated to one venue or city.
// The returned venue fills fields the records leave empty.
type VenueDefaulter interface {
	VenueDefaults() event.Venue
}

// Batch is the output of one source for one run
type Batch struct {
	Source  string
	Venue   event.Venue
	Records []event.RawEvent
}

// NewBatch wraps records fetched from src
func NewBatch(src Source, records []event.RawEvent) Batch {
	b := Batch{Source: src.Name(), Records: records}
	if vd, ok := src.(VenueDefaulter); ok {
		b.Venue = vd.VenueDefaults()
	}
	return b
}
