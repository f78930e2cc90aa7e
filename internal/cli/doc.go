// Package cli implements the command-line interface for discovr-events.
//
// The cli package provides the Cobra-based CLI: "run" fetches every
// configured source, "import" reads scraper JSON exports, and "check-title"
// explains junk-title verdicts. Results can be filtered (date range, venue,
// city, category, price tier, weekends), sorted (by date/title/venue) and
// printed as text, JSON or iCalendar. It coordinates the config, source,
// pipeline, storage and metrics packages.
package cli
