package event

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// idNamespace scopes deterministic event IDs to this project so that the same
// composite key never collides with UUIDv5 values minted elsewhere.
var idNamespace = uuid.MustParse("6f1c3e0a-5b7d-5a42-9d0e-3c2f8b1a7e64")

// Season is the Northern-Hemisphere season an event starts in
type Season string

const (
	SeasonSpring  Season = "Spring"
	SeasonSummer  Season = "Summer"
	SeasonFall    Season = "Fall"
	SeasonWinter  Season = "Winter"
	SeasonUnknown Season = "Unknown"
)

// PriceRange is a coarse price tier
type PriceRange string

const (
	PriceFree     PriceRange = "Free"
	PriceLow      PriceRange = "Low"
	PriceModerate PriceRange = "Moderate"
	PriceHigh     PriceRange = "High"
	PriceVaries   PriceRange = "Varies"
)

// ParsePriceRange reports whether s names one of the known tiers (case-insensitive).
func ParsePriceRange(s string) (PriceRange, bool) {
	for _, pr := range []PriceRange{PriceFree, PriceLow, PriceModerate, PriceHigh, PriceVaries} {
		if strings.EqualFold(strings.TrimSpace(s), string(pr)) {
			return pr, true
		}
	}
	return "", false
}

// Venue is the canonical venue shape. It is always populated as an object,
// even when a source only supplied a bare name.
type Venue struct {
	Name    string `json:"name" bson:"name"`
	Address string `json:"address" bson:"address"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	Country string `json:"country" bson:"country"`
}

// Event is a normalized event record
type Event struct {
	ID              string     `json:"id" bson:"_id"`
	Title           string     `json:"title" bson:"title"`
	Description     string     `json:"description" bson:"description"`
	StartDate       *time.Time `json:"startDate" bson:"startDate"`
	EndDate         *time.Time `json:"endDate" bson:"endDate"`
	Season          Season     `json:"season" bson:"season"`
	Venue           Venue      `json:"venue" bson:"venue"`
	Category        string     `json:"category" bson:"category"`
	PriceRange      PriceRange `json:"priceRange" bson:"priceRange"`
	Image           string     `json:"image,omitempty" bson:"image,omitempty"`
	SourceURL       string     `json:"sourceURL,omitempty" bson:"sourceURL,omitempty"`
	OfficialWebsite string     `json:"officialWebsite,omitempty" bson:"officialWebsite,omitempty"`
	TicketURL       string     `json:"ticketURL,omitempty" bson:"ticketURL,omitempty"`
	DataSources     []string   `json:"dataSources" bson:"dataSources"`
	LastUpdated     time.Time  `json:"lastUpdated" bson:"lastUpdated"`
}

// GenerateDeterministicID derives a stable identifier from the case-folded
// "title-startDate-location" key. Identical inputs always yield the same ID.
func GenerateDeterministicID(title, startDate, location string) string {
	key := strings.ToLower(fmt.Sprintf("%s-%s-%s", title, startDate, location))
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// Clone returns a deep copy of the event
func (e *Event) Clone() *Event {
	c := *e
	if e.StartDate != nil {
		t := *e.StartDate
		c.StartDate = &t
	}
	if e.EndDate != nil {
		t := *e.EndDate
		c.EndDate = &t
	}
	c.DataSources = append([]string(nil), e.DataSources...)
	return &c
}

// AddSource appends source to DataSources unless it is already listed.
// It reports whether the list changed.
func (e *Event) AddSource(source string) bool {
	if source == "" {
		return false
	}
	for _, s := range e.DataSources {
		if s == source {
			return false
		}
	}
	e.DataSources = append(e.DataSources, source)
	return true
}

// HasDate reports whether the event has a resolved start date
func (e *Event) HasDate() bool {
	return e.StartDate != nil
}

// IsPastEvent checks if an event's start date has passed.
// Returns false if there is no date (safer default).
func (e *Event) IsPastEvent(now time.Time) bool {
	if e.StartDate == nil {
		return false
	}
	return e.StartDate.Before(now)
}

// IsWithinDays checks if an event starts within N days of now.
// Returns true if days <= 0 (feature disabled) or there is no date.
func (e *Event) IsWithinDays(now time.Time, days int) bool {
	if days <= 0 || e.StartDate == nil {
		return true
	}
	cutoff := now.AddDate(0, 0, days)
	return e.StartDate.After(now) && e.StartDate.Before(cutoff)
}
