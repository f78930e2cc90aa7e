package filter

import (
	"github.com/hann12-34/discovr-events/internal/event"
)

// Rejection reasons used by Gate
const (
	ReasonJunk   = "junk"
	ReasonNoDate = "no_date"
)

// Rejection records why an event was dropped
type Rejection struct {
	Event   *event.Event
	Reason  string
	Verdict Verdict
}

// HasDate is the companion date gate: an event without a resolvable start
// date is not actionable and never reaches storage.
func HasDate(e *event.Event) bool {
	return e != nil && e.HasDate()
}

// Gate applies the junk classifier and then the date gate
type Gate struct {
	Classifier *Classifier
}

// NewGate returns a gate using the given classifier, or the default one
func NewGate(c *Classifier) *Gate {
	if c == nil {
		c = Default()
	}
	return &Gate{Classifier: c}
}

// Check returns the reason e would be rejected, or "" when it is kept
func (g *Gate) Check(e *event.Event) (string, Verdict) {
	if e == nil {
		return ReasonJunk, Verdict{Junk: true, Rule: RuleEmpty, Category: categoryLengthBounds}
	}
	if v := g.classifier().Classify(e.Title); v.Junk {
		return ReasonJunk, v
	}
	if !HasDate(e) {
		return ReasonNoDate, Verdict{}
	}
	return "", Verdict{}
}

// Apply splits events into those kept and those rejected, preserving order
func (g *Gate) Apply(events []*event.Event) ([]*event.Event, []Rejection) {
	kept := make([]*event.Event, 0, len(events))
	var rejected []Rejection

	for _, e := range events {
		reason, verdict := g.Check(e)
		if reason == "" {
			kept = append(kept, e)
			continue
		}
		rejected = append(rejected, Rejection{Event: e, Reason: reason, Verdict: verdict})
	}

	return kept, rejected
}

// Tally counts rejections by reason
func Tally(rejected []Rejection) map[string]int {
	counts := make(map[string]int)
	for _, r := range rejected {
		counts[r.Reason]++
	}
	return counts
}

func (g *Gate) classifier() *Classifier {
	if g == nil || g.Classifier == nil {
		return Default()
	}
	return g.Classifier
}
