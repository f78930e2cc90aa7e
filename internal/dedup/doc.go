// Package dedup merges normalized events that describe the same real-world
// occurrence.
//
// Title similarity is approximate (case-folded exact match, containment, or
// shared significant words). The Resolver combines it with a start-date
// window and a venue-name check, then folds duplicates into the first
// record seen, unioning attribution and keeping the more complete value of
// each mergeable field.
package dedup
