// Package event provides the canonical event record and the normalizer that
// produces it from heterogeneous source records.
//
// Sources hand over RawEvent values whose fields may be missing or oddly
// typed (a venue may be a string or an object, a date free text or epoch
// milliseconds). Normalize turns each into an Event with cleaned text, a parsed
// start date, a derived season and price tier, a canonical venue object and a
// deterministic UUIDv5 identifier derived from title, start date and venue.
package event
