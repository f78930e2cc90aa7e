package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hann12-34/discovr-events/internal/calendar"
	"github.com/hann12-34/discovr-events/internal/event"
	"github.com/hann12-34/discovr-events/internal/filter"
	"github.com/hann12-34/discovr-events/internal/pipeline"
	"github.com/hann12-34/discovr-events/internal/storage"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatICS:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'ics')", s)
}

// RejectedTitle is a dropped record as reported in verbose output
type RejectedTitle struct {
	Title  string `json:"title"`
	Source string `json:"source"`
	Reason string `json:"reason"`
	Rule   string `json:"rule,omitempty"`
}

// OutputResult contains data to be output
type OutputResult struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Stats       pipeline.Stats     `json:"stats"`
	Saved       storage.SaveResult `json:"saved"`
	DryRun      bool               `json:"dry_run,omitempty"`
	Filter      string             `json:"filter,omitempty"`
	Events      []*event.Event     `json:"events"`
	EventCount  int                `json:"event_count"`
	Rejected    []RejectedTitle    `json:"rejected,omitempty"`
}

// rejectedTitles flattens pipeline rejections for output
func rejectedTitles(rejected []filter.Rejection) []RejectedTitle {
	out := make([]RejectedTitle, 0, len(rejected))
	for _, r := range rejected {
		rt := RejectedTitle{Reason: r.Reason, Rule: r.Verdict.String()}
		if r.Reason != filter.ReasonJunk {
			rt.Rule = ""
		}
		if r.Event != nil {
			rt.Title = r.Event.Title
			if len(r.Event.DataSources) > 0 {
				rt.Source = r.Event.DataSources[0]
			}
		}
		out = append(out, rt)
	}
	return out
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	case FormatICS:
		_, err := io.WriteString(w, calendar.GenerateICS(result.Events))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
	}

	for _, evt := range result.Events {
		fmt.Fprintf(w, "%s  %s\n", formatDate(evt.StartDate), evt.Title)
		if venue := venueLine(evt.Venue); venue != "" {
			fmt.Fprintf(w, "            @ %s\n", venue)
		}
		if verbose {
			fmt.Fprintf(w, "            ID: %s\n", evt.ID)
			fmt.Fprintf(w, "            Category: %s, Price: %s, Season: %s\n", evt.Category, evt.PriceRange, evt.Season)
			fmt.Fprintf(w, "            Sources: %s\n", strings.Join(evt.DataSources, ", "))
		}
	}

	if verbose && len(result.Rejected) > 0 {
		fmt.Fprintf(w, "\nRejected (%d):\n", len(result.Rejected))
		for _, r := range result.Rejected {
			detail := r.Reason
			if r.Rule != "" {
				detail = r.Rule
			}
			fmt.Fprintf(w, "  [%s] %q %s\n", r.Source, r.Title, detail)
		}
	}

	s := result.Stats
	fmt.Fprintf(w, "\nTotal: %d events from %d records (%d junk, %d undated, %d merged",
		result.EventCount, s.Fetched, s.RejectedJunk, s.RejectedNoDate, s.ExactMerges+s.FuzzyMerges)
	if s.SourceErrors > 0 {
		fmt.Fprintf(w, ", %d sources failed", s.SourceErrors)
	}
	fmt.Fprintln(w, ")")

	if result.DryRun {
		fmt.Fprintln(w, "Dry run: nothing stored.")
	} else {
		fmt.Fprintf(w, "Stored: %d new, %d already known\n", result.Saved.Inserted, result.Saved.Skipped)
	}
	if result.Filter != "" {
		fmt.Fprintf(w, "Filter: %s\n", result.Filter)
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "          "
	}
	return t.Format("2006-01-02")
}

func venueLine(v event.Venue) string {
	parts := make([]string, 0, 2)
	if v.Name != "" {
		parts = append(parts, v.Name)
	}
	if v.City != "" {
		parts = append(parts, v.City)
	}
	return strings.Join(parts, ", ")
}

// TitleResult is the classification of one title by check-title
type TitleResult struct {
	Title    string `json:"title"`
	Junk     bool   `json:"junk"`
	Rule     string `json:"rule,omitempty"`
	Category string `json:"category,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
}

func writeTitleResults(w io.Writer, results []TitleResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	case FormatText:
		for _, r := range results {
			if !r.Junk {
				fmt.Fprintf(w, "OK    %s\n", r.Title)
				continue
			}
			detail := r.Rule
			if r.Pattern != "" {
				detail = r.Category + ": " + r.Pattern
			}
			fmt.Fprintf(w, "JUNK  %s  (%s)\n", r.Title, detail)
		}
		return nil
	default:
		return fmt.Errorf("format %s is not supported by check-title", format)
	}
}
