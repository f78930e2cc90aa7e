package calendar

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hann12-34/discovr-events/internal/event"
)

const (
	prodID          = "-//Discovr//discovr-events//EN"
	uidDomain       = "discovr-events"
	defaultDuration = 2 * time.Hour
	maxLineOctets   = 75
)

// GenerateICS generates one iCalendar document holding a VEVENT per dated
// event. Undated events are skipped.
func GenerateICS(events []*event.Event) string {
	return generate(events, time.Now())
}

func generate(events []*event.Event, now time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:" + prodID + "\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")

	for _, evt := range events {
		if evt == nil || evt.StartDate == nil {
			continue
		}
		writeEvent(&ics, evt, now)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, evt *event.Event, now time.Time) {
	line := func(s string) {
		ics.WriteString(foldLine(s))
		ics.WriteString("\r\n")
	}

	line("BEGIN:VEVENT")
	line(fmt.Sprintf("UID:%s@%s", evt.ID, uidDomain))
	line("DTSTAMP:" + formatICSTime(now))

	start := evt.StartDate.UTC()
	if isAllDay(start) {
		end := start.AddDate(0, 0, 1)
		if evt.EndDate != nil && evt.EndDate.After(start) {
			end = truncateDay(evt.EndDate.UTC()).AddDate(0, 0, 1)
		}
		line("DTSTART;VALUE=DATE:" + start.Format("20060102"))
		line("DTEND;VALUE=DATE:" + end.Format("20060102"))
	} else {
		end := start.Add(defaultDuration)
		if evt.EndDate != nil && evt.EndDate.After(start) {
			end = evt.EndDate.UTC()
		}
		line("DTSTART:" + formatICSTime(start))
		line("DTEND:" + formatICSTime(end))
	}

	line("SUMMARY:" + escapeICS(evt.Title))
	if evt.Description != "" {
		line("DESCRIPTION:" + escapeICS(evt.Description))
	}
	if loc := location(evt.Venue); loc != "" {
		line("LOCATION:" + escapeICS(loc))
	}
	if evt.Category != "" {
		line("CATEGORIES:" + escapeICS(evt.Category))
	}
	if url := firstNonEmpty(evt.TicketURL, evt.SourceURL, evt.OfficialWebsite); url != "" {
		line("URL:" + url)
	}

	line("STATUS:CONFIRMED")
	line("SEQUENCE:0")
	line("TRANSP:OPAQUE")
	line("END:VEVENT")
}

// isAllDay treats a start at exactly midnight UTC as a date without a time
func isAllDay(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func location(v event.Venue) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{v.Name, v.Address, v.City, v.State} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// foldLine splits content lines longer than 75 octets, continuing with a
// leading space. Splits never land inside a multi-byte character.
func foldLine(s string) string {
	if len(s) <= maxLineOctets {
		return s
	}

	var b strings.Builder
	limit := maxLineOctets
	for len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		b.WriteString(s[:cut])
		b.WriteString("\r\n ")
		s = s[cut:]
		// continuation lines spend one octet on the leading space
		limit = maxLineOctets - 1
	}
	b.WriteString(s)
	return b.String()
}
