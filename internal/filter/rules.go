package filter

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Category is a named group of reject patterns
type Category struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// Rules is the data-driven junk-title table. It is plain configuration so
// new patterns can be appended without touching the classifier.
type Rules struct {
	ShortWhitelist      []string   `yaml:"short_whitelist"`
	SingleWordWhitelist []string   `yaml:"single_word_whitelist"`
	GenericSingleWords  []string   `yaml:"generic_single_words"`
	Categories          []Category `yaml:"categories"`
}

// DefaultRules returns the rule table compiled into the binary
func DefaultRules() (Rules, error) {
	return ParseRules(defaultRulesYAML)
}

// LoadRules reads a rule table from a YAML file
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes a YAML rule table
func ParseRules(data []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules: %w", err)
	}
	for i, c := range r.Categories {
		if c.Name == "" {
			return Rules{}, fmt.Errorf("rule category %d has no name", i)
		}
	}
	return r, nil
}

// Append adds the categories of other after those of r and extends the
// word lists. It is used to layer site-specific rules over the defaults.
func (r Rules) Append(other Rules) Rules {
	out := Rules{
		ShortWhitelist:      append(append([]string(nil), r.ShortWhitelist...), other.ShortWhitelist...),
		SingleWordWhitelist: append(append([]string(nil), r.SingleWordWhitelist...), other.SingleWordWhitelist...),
		GenericSingleWords:  append(append([]string(nil), r.GenericSingleWords...), other.GenericSingleWords...),
		Categories:          append(append([]Category(nil), r.Categories...), other.Categories...),
	}
	return out
}
