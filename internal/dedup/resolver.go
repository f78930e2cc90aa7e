package dedup

import (
	"time"

	"github.com/hann12-34/discovr-events/internal/event"
)

// DefaultWindow is how far apart two dated records may start and still be
// the same occurrence. Recurring series share a title across dates; the
// window keeps their instances apart.
const DefaultWindow = 24 * time.Hour

// Stats summarizes one Deduplicate call
type Stats struct {
	Input       int `json:"input"`
	ExactMerges int `json:"exactMerges"`
	FuzzyMerges int `json:"fuzzyMerges"`
	Output      int `json:"output"`
}

// Resolver collapses records that describe the same real-world event.
// A Resolver holds only configuration, so one value may serve concurrent
// Deduplicate calls, each of which works on its own batch.
type Resolver struct {
	Matcher         Matcher
	Window          time.Duration
	MergeableFields []string

	// Now stamps LastUpdated on merged records. Defaults to time.Now.
	Now func() time.Time
}

// NewResolver returns a Resolver with the default matcher, window and fields
func NewResolver() *Resolver {
	return &Resolver{
		Matcher:         DefaultMatcher(),
		Window:          DefaultWindow,
		MergeableFields: append([]string(nil), DefaultMergeableFields...),
	}
}

// Deduplicate runs the resolver with default settings
func Deduplicate(events []*event.Event) []*event.Event {
	out, _ := NewResolver().Deduplicate(events)
	return out
}

// Validate checks the configured mergeable field names
func (r *Resolver) Validate() error {
	return ValidateFields(r.MergeableFields)
}

// Deduplicate returns one record per distinct event.
//
// Pass 1 merges records sharing an ID, in first-seen order. Pass 2 walks
// the result and merges each record into the first already-accepted record
// it duplicates, or accepts it. Inputs are never modified: survivors are
// copies, and nil entries are skipped.
func (r *Resolver) Deduplicate(events []*event.Event) ([]*event.Event, Stats) {
	stats := Stats{Input: len(events)}
	now := r.now()
	fields := r.fields()

	// Pass 1: exact-ID grouping
	byID := make(map[string]*event.Event, len(events))
	grouped := make([]*event.Event, 0, len(events))
	for _, e := range events {
		if e == nil {
			continue
		}
		if e.ID != "" {
			if survivor, ok := byID[e.ID]; ok {
				mergeInto(survivor, e, fields, now)
				stats.ExactMerges++
				continue
			}
		}
		c := e.Clone()
		if c.ID != "" {
			byID[c.ID] = c
		}
		grouped = append(grouped, c)
	}

	// Pass 2: fuzzy grouping against accepted records
	accepted := make([]*event.Event, 0, len(grouped))
	for _, e := range grouped {
		merged := false
		for _, a := range accepted {
			if r.IsDuplicate(a, e) {
				mergeInto(a, e, fields, now)
				stats.FuzzyMerges++
				merged = true
				break
			}
		}
		if !merged {
			accepted = append(accepted, e)
		}
	}

	stats.Output = len(accepted)
	return accepted, stats
}

// IsDuplicate reports whether a and b describe the same occurrence: similar
// titles, start dates within the window when both are dated, and similar
// venue names when both name a venue.
func (r *Resolver) IsDuplicate(a, b *event.Event) bool {
	if a == nil || b == nil {
		return false
	}

	if !r.Matcher.CompareTitles(a.Title, b.Title) {
		return false
	}

	if a.StartDate != nil && b.StartDate != nil {
		diff := a.StartDate.Sub(*b.StartDate)
		if diff < 0 {
			diff = -diff
		}
		if diff > r.window() {
			return false
		}
	}

	if a.Venue.Name != "" && b.Venue.Name != "" {
		if !r.Matcher.CompareTitles(a.Venue.Name, b.Venue.Name) {
			return false
		}
	}

	return true
}

// Merge returns a new record combining base and incoming. Neither input is
// modified. Fields outside MergeableFields keep base's value.
func (r *Resolver) Merge(base, incoming *event.Event) *event.Event {
	out := base.Clone()
	mergeInto(out, incoming, r.fields(), r.now())
	return out
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *Resolver) window() time.Duration {
	if r.Window <= 0 {
		return DefaultWindow
	}
	return r.Window
}

func (r *Resolver) fields() []string {
	if r.MergeableFields == nil {
		return DefaultMergeableFields
	}
	return r.MergeableFields
}
