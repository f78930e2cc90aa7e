package source

import (
	"fmt"
	"time"

	"github.com/hann12-34/discovr-events/internal/cache"
	"github.com/hann12-34/discovr-events/internal/event"
)

const (
	TypeHTML = "html"
	TypeFile = "file"
)

// Definition describes one configured source
type Definition struct {
	Name       string        `yaml:"name"`
	Type       string        `yaml:"type"`
	URL        string        `yaml:"url"`
	Path       string        `yaml:"path"`
	UserAgent  string        `yaml:"user_agent"`
	Timeout    time.Duration `yaml:"timeout"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
	MaxRetries int           `yaml:"max_retries"`
	Venue      event.Venue   `yaml:"venue"`
	Selectors  Selectors     `yaml:"selectors"`
}

// Validate checks that the definition names everything its type needs
func (s Definition) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("source name is required")
	}
	switch s.Type {
	case TypeHTML:
		if s.URL == "" {
			return fmt.Errorf("source %s: url is required", s.Name)
		}
		if s.Selectors.List == "" {
			return fmt.Errorf("source %s: selectors.list is required", s.Name)
		}
	case TypeFile:
		if s.Path == "" {
			return fmt.Errorf("source %s: path is required", s.Name)
		}
	default:
		return fmt.Errorf("source %s: unknown type %q (want %s or %s)", s.Name, s.Type, TypeHTML, TypeFile)
	}
	return nil
}

// FromDefinitions builds sources in order. HTML sources share c for page caching;
// c may be nil.
func FromDefinitions(defs []Definition, c cache.Cache) ([]Source, error) {
	sources := make([]Source, 0, len(defs))
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}

		switch def.Type {
		case TypeHTML:
			sources = append(sources, NewHTML(HTMLConfig{
				Name:       def.Name,
				URL:        def.URL,
				Selectors:  def.Selectors,
				Venue:      def.Venue,
				UserAgent:  def.UserAgent,
				Timeout:    def.Timeout,
				MaxRetries: def.MaxRetries,
				Cache:      c,
				CacheTTL:   def.CacheTTL,
			}))
		case TypeFile:
			sources = append(sources, NewFile(def.Name, def.Path, def.Venue))
		}
	}
	return sources, nil
}
