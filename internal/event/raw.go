package event

import (
	"bytes"
	"encoding/json"
	"time"
)

// RawEvent is an event as emitted by one source, before any cleanup.
// Sources disagree on field names and types; UnmarshalJSON folds the known
// aliases into this single shape and never fails on a mistyped field.
type RawEvent struct {
	ID              string
	Title           string
	Description     string
	StartDate       DateInput
	EndDate         DateInput
	Venue           VenueInput
	Location        string
	Category        string
	Price           any // nil, float64 or string
	PriceRange      string
	Image           string
	SourceURL       string
	OfficialWebsite string
	TicketURL       string
}

// DateInput is a date as supplied by a source: either free text or a native time
type DateInput struct {
	Text string
	Time time.Time
}

// DateText wraps free-form date text
func DateText(s string) DateInput {
	return DateInput{Text: s}
}

// DateAt wraps an already-parsed time
func DateAt(t time.Time) DateInput {
	return DateInput{Time: t}
}

// IsZero reports whether nothing was supplied
func (d DateInput) IsZero() bool {
	return d.Text == "" && d.Time.IsZero()
}

// Resolve returns the parsed time, or nil when it cannot be determined
func (d DateInput) Resolve() *time.Time {
	if !d.Time.IsZero() {
		t := d.Time.UTC()
		return &t
	}
	return ParseDate(d.Text)
}

// UnmarshalJSON accepts a string or epoch milliseconds; anything else is empty.
func (d *DateInput) UnmarshalJSON(data []byte) error {
	*d = dateOf(data)
	return nil
}

// VenueInput is the venue field at the ingestion boundary: sources send either a
// bare string or an object. IsText records which form arrived.
type VenueInput struct {
	IsText  bool
	Name    string
	Address string
	City    string
	State   string
	Country string
}

// VenueName wraps a bare venue string
func VenueName(name string) VenueInput {
	return VenueInput{IsText: true, Name: name}
}

// UnmarshalJSON accepts a string or an object; other shapes decode as empty.
func (v *VenueInput) UnmarshalJSON(data []byte) error {
	*v = VenueInput{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		v.IsText = true
		v.Name = textOf(data)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		v.Name = textOf(obj["name"])
		v.Address = textOf(obj["address"])
		v.City = textOf(obj["city"])
		v.State = textOf(obj["state"])
		v.Country = textOf(obj["country"])
	}
	return nil
}

type rawEventJSON struct {
	ID              json.RawMessage `json:"id"`
	Title           json.RawMessage `json:"title"`
	Name            json.RawMessage `json:"name"`
	Description     json.RawMessage `json:"description"`
	StartDate       json.RawMessage `json:"startDate"`
	Date            json.RawMessage `json:"date"`
	Start           json.RawMessage `json:"start"`
	EndDate         json.RawMessage `json:"endDate"`
	Venue           VenueInput      `json:"venue"`
	Location        json.RawMessage `json:"location"`
	Category        json.RawMessage `json:"category"`
	Price           json.RawMessage `json:"price"`
	PriceRange      json.RawMessage `json:"priceRange"`
	Image           json.RawMessage `json:"image"`
	ImageURL        json.RawMessage `json:"imageUrl"`
	URL             json.RawMessage `json:"url"`
	SourceURL       json.RawMessage `json:"sourceURL"`
	OfficialWebsite json.RawMessage `json:"officialWebsite"`
	TicketURL       json.RawMessage `json:"ticketURL"`
}

// UnmarshalJSON decodes a producer-defined record, resolving field aliases.
// Only malformed JSON is an error; a wrongly-typed field is treated as absent.
func (r *RawEvent) UnmarshalJSON(data []byte) error {
	var aux rawEventJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*r = RawEvent{
		ID:              scalarOf(aux.ID),
		Title:           firstText(aux.Title, aux.Name),
		Description:     textOf(aux.Description),
		StartDate:       firstDate(aux.StartDate, aux.Date, aux.Start),
		EndDate:         dateOf(aux.EndDate),
		Venue:           aux.Venue,
		Location:        textOf(aux.Location),
		Category:        textOf(aux.Category),
		Price:           priceOf(aux.Price),
		PriceRange:      textOf(aux.PriceRange),
		Image:           firstText(aux.Image, aux.ImageURL),
		SourceURL:       firstText(aux.SourceURL, aux.URL),
		OfficialWebsite: textOf(aux.OfficialWebsite),
		TicketURL:       textOf(aux.TicketURL),
	}
	return nil
}

// textOf returns the value when data is a JSON string, "" otherwise
func textOf(data json.RawMessage) string {
	var s string
	if len(data) == 0 || json.Unmarshal(data, &s) != nil {
		return ""
	}
	return s
}

// scalarOf is textOf that also accepts numbers
func scalarOf(data json.RawMessage) string {
	if s := textOf(data); s != "" {
		return s
	}
	var n json.Number
	if len(data) == 0 || json.Unmarshal(data, &n) != nil {
		return ""
	}
	return n.String()
}

func firstText(values ...json.RawMessage) string {
	for _, v := range values {
		if s := textOf(v); s != "" {
			return s
		}
	}
	return ""
}

func dateOf(data json.RawMessage) DateInput {
	if s := textOf(data); s != "" {
		return DateText(s)
	}
	var ms float64
	if len(data) == 0 || json.Unmarshal(data, &ms) != nil || ms == 0 {
		return DateInput{}
	}
	return DateAt(time.UnixMilli(int64(ms)).UTC())
}

func firstDate(values ...json.RawMessage) DateInput {
	for _, v := range values {
		if d := dateOf(v); !d.IsZero() {
			return d
		}
	}
	return DateInput{}
}

func priceOf(data json.RawMessage) any {
	if len(data) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch p := v.(type) {
	case float64, string:
		return p
	default:
		return nil
	}
}
