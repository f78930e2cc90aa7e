package event

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultCategory is used when neither the source nor the keyword table
// provides a category.
const DefaultCategory = "Entertainment"

// UnknownSource is recorded when a record arrives without a source name,
// so DataSources is never empty.
const UnknownSource = "unknown"

// categoryKeywords is checked in order; the first group with a keyword
// present in the title or description wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Music", []string{"music", "concert", "festival"}},
	{"Art", []string{"art", "exhibit", "gallery"}},
	{"Food & Drink", []string{"food", "wine", "beer", "culinary"}},
	{"Film & Media", []string{"film", "movie", "cinema"}},
	{"Performing Arts", []string{"theater", "theatre", "performance"}},
	{"Family", []string{"family", "kids", "children"}},
	{"Sports & Fitness", []string{"sports", "marathon", "race"}},
	{"Holiday", []string{"holiday", "christmas", "halloween"}},
}

// CleanText collapses every run of whitespace to a single space and trims.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// InferCategory picks a category from keywords in the title and description
func InferCategory(title, description string) string {
	text := strings.ToLower(title + " " + description)
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(text, kw) {
				return group.category
			}
		}
	}
	return DefaultCategory
}

// Normalizer converts raw records into canonical events.
// The zero value is ready to use.
type Normalizer struct {
	// VenueDefaults fills venue sub-fields a source left empty
	// (typically the city a venue scraper is dedicated to).
	VenueDefaults Venue

	// Now returns the timestamp written to LastUpdated. Defaults to time.Now.
	Now func() time.Time
}

// Normalize converts a raw record using a zero-value Normalizer
func Normalize(raw RawEvent, source string) *Event {
	var n Normalizer
	return n.Normalize(raw, source)
}

// Normalize converts one raw record into an Event. It never fails: any field
// that cannot be derived gets a safe default.
func (n *Normalizer) Normalize(raw RawEvent, source string) *Event {
	title := CleanText(raw.Title)
	description := CleanText(raw.Description)
	start := raw.StartDate.Resolve()
	venue := n.venue(raw)

	source = strings.TrimSpace(source)
	if source == "" {
		source = UnknownSource
	}

	evt := &Event{
		ID:              scopedID(raw.ID, source),
		Title:           title,
		Description:     description,
		StartDate:       start,
		EndDate:         raw.EndDate.Resolve(),
		Season:          MapDateToSeason(start),
		Venue:           venue,
		Category:        CleanText(raw.Category),
		PriceRange:      priceRangeOf(raw, description),
		Image:           strings.TrimSpace(raw.Image),
		SourceURL:       strings.TrimSpace(raw.SourceURL),
		OfficialWebsite: strings.TrimSpace(raw.OfficialWebsite),
		TicketURL:       strings.TrimSpace(raw.TicketURL),
		LastUpdated:     n.now(),
	}

	if evt.ID == "" {
		evt.ID = GenerateDeterministicID(title, dateKey(raw.StartDate, start), venue.Name)
	}
	if evt.Category == "" {
		evt.Category = InferCategory(title, description)
	}

	evt.DataSources = []string{source}

	return evt
}

// scopedID prefixes a source-supplied ID with the source name, so two sources
// numbering their listings independently never collide. UUIDs are globally
// unique and kept as-is, as are IDs already carrying the prefix.
func scopedID(id, source string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	prefix := source + ":"
	if strings.HasPrefix(id, prefix) {
		return id
	}
	return prefix + id
}

func (n *Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now().UTC()
	}
	return time.Now().UTC()
}

// venue always produces the canonical object shape
func (n *Normalizer) venue(raw RawEvent) Venue {
	v := Venue{
		Name:    CleanText(raw.Venue.Name),
		Address: CleanText(raw.Venue.Address),
		City:    CleanText(raw.Venue.City),
		State:   CleanText(raw.Venue.State),
		Country: CleanText(raw.Venue.Country),
	}
	if v.Name == "" {
		v.Name = CleanText(raw.Location)
	}
	if v.Name == "" {
		v.Name = n.VenueDefaults.Name
	}
	if v.Address == "" {
		v.Address = n.VenueDefaults.Address
	}
	if v.City == "" {
		v.City = n.VenueDefaults.City
	}
	if v.State == "" {
		v.State = n.VenueDefaults.State
	}
	if v.Country == "" {
		v.Country = n.VenueDefaults.Country
	}
	return v
}

// dateKey is the start-date component of the deterministic ID. A parsed date
// is keyed in a fixed format so that two spellings of the same day collide.
func dateKey(in DateInput, parsed *time.Time) string {
	if parsed != nil {
		return parsed.Format(time.RFC3339)
	}
	return CleanText(in.Text)
}

func priceRangeOf(raw RawEvent, description string) PriceRange {
	if pr, ok := ParsePriceRange(raw.PriceRange); ok {
		return pr
	}
	if raw.Price != nil {
		return DeterminePriceRange(raw.Price)
	}
	return inferPriceRange(description)
}
