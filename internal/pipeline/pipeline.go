// Package pipeline wires the stages of a run together: fetch from every
// source, normalize each record, drop junk and undated records, then collapse
// duplicates across the whole batch.
package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hann12-34/discovr-events/internal/dedup"
	"github.com/hann12-34/discovr-events/internal/event"
	"github.com/hann12-34/discovr-events/internal/filter"
	"github.com/hann12-34/discovr-events/internal/logger"
	"github.com/hann12-34/discovr-events/internal/metrics"
	"github.com/hann12-34/discovr-events/internal/source"
)

// DefaultConcurrency bounds how many sources are fetched at once
const DefaultConcurrency = 4

// Stats counts records at each stage of one run
type Stats struct {
	Fetched        int `json:"fetched"`
	Normalized     int `json:"normalized"`
	RejectedJunk   int `json:"rejectedJunk"`
	RejectedNoDate int `json:"rejectedNoDate"`
	ExactMerges    int `json:"exactMerges"`
	FuzzyMerges    int `json:"fuzzyMerges"`
	Output         int `json:"output"`
	SourceErrors   int `json:"sourceErrors"`
}

// Result is the outcome of one run
type Result struct {
	Events   []*event.Event
	Rejected []filter.Rejection
	Stats    Stats
}

// Pipeline holds the stage configuration. It keeps no state between runs,
// so one Pipeline may serve concurrent calls.
type Pipeline struct {
	Gate        *filter.Gate
	Resolver    *dedup.Resolver
	Metrics     *metrics.Metrics
	Concurrency int

	// Now stamps LastUpdated on normalized records. Defaults to time.Now.
	Now func() time.Time
}

// New creates a pipeline. Nil stages fall back to their defaults.
func New(gate *filter.Gate, resolver *dedup.Resolver) *Pipeline {
	if gate == nil {
		gate = filter.NewGate(nil)
	}
	if resolver == nil {
		resolver = dedup.NewResolver()
	}
	return &Pipeline{
		Gate:        gate,
		Resolver:    resolver,
		Concurrency: DefaultConcurrency,
	}
}

// Run fetches every source concurrently and processes the combined output.
// A failing source is logged and contributes no records. Run only returns an
// error when ctx is done before all fetches finish.
func (p *Pipeline) Run(ctx context.Context, sources []source.Source) (*Result, error) {
	log := logger.ForComponent("pipeline")
	started := time.Now()

	batches := make([]source.Batch, len(sources))
	failed := make([]bool, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())

	for i, src := range sources {
		g.Go(func() error {
			records, err := src.Fetch(gctx)
			if err != nil {
				failed[i] = true
				batches[i] = source.NewBatch(src, nil)
				log.Error("Source failed", logger.Fields{"source": src.Name(), "kind": string(source.KindOf(err))}, err)
				p.Metrics.RecordSourceError(src.Name(), string(source.KindOf(err)))
				return nil
			}
			batches[i] = source.NewBatch(src, records)
			log.Info("Source fetched", logger.Fields{"source": src.Name(), "records": len(records)})
			p.Metrics.RecordFetch(src.Name(), len(records))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := p.Process(batches)
	for _, f := range failed {
		if f {
			result.Stats.SourceErrors++
		}
	}

	p.Metrics.ObserveRun(time.Since(started), time.Now())
	log.Info("Run complete", logger.Fields{
		"sources":         len(sources),
		"source_errors":   result.Stats.SourceErrors,
		"fetched":         result.Stats.Fetched,
		"rejected_junk":   result.Stats.RejectedJunk,
		"rejected_nodate": result.Stats.RejectedNoDate,
		"output":          result.Stats.Output,
		"duration_ms":     time.Since(started).Milliseconds(),
	})
	return result, nil
}

// Process normalizes, gates and deduplicates already-fetched batches.
// Each batch is normalized with its source's venue defaults; deduplication
// runs once over all batches so cross-source duplicates merge.
func (p *Pipeline) Process(batches []source.Batch) *Result {
	var stats Stats
	normalized := make([]*event.Event, 0)

	for _, b := range batches {
		n := event.Normalizer{VenueDefaults: b.Venue, Now: p.Now}
		stats.Fetched += len(b.Records)
		for _, raw := range b.Records {
			normalized = append(normalized, n.Normalize(raw, b.Source))
		}
	}
	stats.Normalized = len(normalized)

	kept, rejected := p.Gate.Apply(normalized)
	tally := filter.Tally(rejected)
	stats.RejectedJunk = tally[filter.ReasonJunk]
	stats.RejectedNoDate = tally[filter.ReasonNoDate]

	resolver := p.Resolver
	if resolver == nil {
		resolver = dedup.NewResolver()
	}
	events, ds := resolver.Deduplicate(kept)
	stats.ExactMerges = ds.ExactMerges
	stats.FuzzyMerges = ds.FuzzyMerges
	stats.Output = len(events)

	p.Metrics.RecordRejections(tally)
	p.Metrics.RecordMerges(ds.ExactMerges, ds.FuzzyMerges)
	p.Metrics.RecordOutput(len(events))

	logger.ForComponent("pipeline").Debug("Batch processed", logger.Fields{
		"normalized":   stats.Normalized,
		"kept":         len(kept),
		"exact_merges": stats.ExactMerges,
		"fuzzy_merges": stats.FuzzyMerges,
	})

	return &Result{Events: events, Rejected: rejected, Stats: stats}
}

func (p *Pipeline) concurrency() int {
	if p.Concurrency > 0 {
		return p.Concurrency
	}
	return DefaultConcurrency
}
