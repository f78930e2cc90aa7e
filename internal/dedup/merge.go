package dedup

import (
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/hann12-34/discovr-events/internal/event"
)

// Names of the fields Merge may fill from a duplicate
const (
	FieldDescription     = "description"
	FieldImage           = "image"
	FieldEndDate         = "endDate"
	FieldOfficialWebsite = "officialWebsite"
	FieldSourceURL       = "sourceURL"
	FieldTicketURL       = "ticketURL"
	FieldVenueAddress    = "venue.address"
	FieldVenueCity       = "venue.city"
	FieldVenueState      = "venue.state"
	FieldVenueCountry    = "venue.country"
)

// DefaultMergeableFields is used when a Resolver is not configured otherwise
var DefaultMergeableFields = []string{
	FieldDescription,
	FieldImage,
	FieldEndDate,
	FieldOfficialWebsite,
	FieldTicketURL,
}

var stringFields = map[string]func(*event.Event) *string{
	FieldDescription:     func(e *event.Event) *string { return &e.Description },
	FieldImage:           func(e *event.Event) *string { return &e.Image },
	FieldOfficialWebsite: func(e *event.Event) *string { return &e.OfficialWebsite },
	FieldSourceURL:       func(e *event.Event) *string { return &e.SourceURL },
	FieldTicketURL:       func(e *event.Event) *string { return &e.TicketURL },
	FieldVenueAddress:    func(e *event.Event) *string { return &e.Venue.Address },
	FieldVenueCity:       func(e *event.Event) *string { return &e.Venue.City },
	FieldVenueState:      func(e *event.Event) *string { return &e.Venue.State },
	FieldVenueCountry:    func(e *event.Event) *string { return &e.Venue.Country },
}

var timeFields = map[string]func(*event.Event) **time.Time{
	FieldEndDate: func(e *event.Event) **time.Time { return &e.EndDate },
}

// KnownFields lists every field name accepted in MergeableFields
func KnownFields() []string {
	names := make([]string, 0, len(stringFields)+len(timeFields))
	for name := range stringFields {
		names = append(names, name)
	}
	for name := range timeFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateFields rejects names that are not mergeable fields
func ValidateFields(names []string) error {
	for _, name := range names {
		_, isString := stringFields[name]
		_, isTime := timeFields[name]
		if !isString && !isTime {
			return fmt.Errorf("unknown mergeable field %q (known: %v)", name, KnownFields())
		}
	}
	return nil
}

// mergeInto folds incoming into dst in place.
//
// DataSources are unioned. For each mergeable field an empty dst value is
// filled from incoming; when both are non-empty strings the longer one wins
// and ties keep dst. Every other field keeps dst's value. LastUpdated is
// always set to now.
func mergeInto(dst, incoming *event.Event, fields []string, now time.Time) {
	for _, s := range incoming.DataSources {
		dst.AddSource(s)
	}

	for _, name := range fields {
		if get, ok := stringFields[name]; ok {
			d, in := get(dst), get(incoming)
			if utf8.RuneCountInString(*in) > utf8.RuneCountInString(*d) {
				*d = *in
			}
			continue
		}
		if get, ok := timeFields[name]; ok {
			d, in := get(dst), get(incoming)
			if *d == nil && *in != nil {
				t := **in
				*d = &t
			}
		}
	}

	dst.LastUpdated = now
}
