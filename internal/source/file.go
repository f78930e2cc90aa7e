package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hann12-34/discovr-events/internal/event"
)

// FileSource reads records written by an external scraper. The file holds
// either a JSON array of events or an object with an "events" array.
type FileSource struct {
	name  string
	path  string
	venue event.Venue
}

// NewFile creates a FileSource. An empty name defaults to the file's base
// name without extension.
func NewFile(name, path string, venue event.Venue) *FileSource {
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &FileSource{name: name, path: path, venue: venue}
}

// Name returns the source identifier
func (f *FileSource) Name() string {
	return f.name
}

// Path returns the file being read
func (f *FileSource) Path() string {
	return f.path
}

// VenueDefaults returns the configured venue, if any
func (f *FileSource) VenueDefaults() event.Venue {
	return f.venue
}

// Fetch reads and decodes the file
func (f *FileSource) Fetch(ctx context.Context) ([]event.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(KindIO, f.name, "reading "+f.path, err)
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, newError(KindIO, f.name, "reading "+f.path, err)
	}

	records, err := DecodeRecords(data)
	if err != nil {
		return nil, newError(KindParsing, f.name, "decoding "+f.path, err)
	}
	return records, nil
}

// DecodeRecords decodes a JSON array of raw events, or an object wrapping
// one under "events".
func DecodeRecords(data []byte) ([]event.RawEvent, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []event.RawEvent{}, nil
	}

	switch data[0] {
	case '[':
		var records []event.RawEvent
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return records, nil
	case '{':
		var wrapper struct {
			Events []event.RawEvent `json:"events"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, err
		}
		if wrapper.Events == nil {
			return []event.RawEvent{}, nil
		}
		return wrapper.Events, nil
	default:
		return nil, fmt.Errorf("expected a JSON array or object, got %q", data[0])
	}
}
