package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hann12-34/discovr-events/internal/event"
	"github.com/hann12-34/discovr-events/internal/metrics"
	"github.com/hann12-34/discovr-events/internal/source"
)

var fixedNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	name    string
	venue   event.Venue
	records []event.RawEvent
	err     error
	calls   atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) VenueDefaults() event.Venue { return f.venue }

func (f *fakeSource) Fetch(ctx context.Context) ([]event.RawEvent, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newPipeline() *Pipeline {
	p := New(nil, nil)
	p.Now = func() time.Time { return fixedNow }
	p.Resolver.Now = p.Now
	return p
}

func TestProcess(t *testing.T) {
	batches := []source.Batch{
		{
			Source: "commodore",
			Venue:  event.Venue{City: "Vancouver", State: "BC", Country: "Canada"},
			Records: []event.RawEvent{
				{Title: "Jazz Night Live", StartDate: event.DateText("2026-03-14T20:00:00"), Venue: event.VenueName("Commodore Ballroom")},
				{Title: "Buy Tickets", StartDate: event.DateText("2026-03-14")},
				{Title: "Community Open House", Venue: event.VenueName("Commodore Ballroom")},
			},
		},
		{
			Source: "tourism-vancouver",
			Records: []event.RawEvent{
				{
					Title:       "Jazz Night Live at Commodore",
					Description: "An evening of live music with local trios",
					StartDate:   event.DateText("2026-03-14T21:00:00"),
					Venue:       event.VenueName("Commodore Ballroom"),
				},
			},
		},
	}

	res := newPipeline().Process(batches)

	assert.Equal(t, Stats{
		Fetched:        4,
		Normalized:     4,
		RejectedJunk:   1,
		RejectedNoDate: 1,
		FuzzyMerges:    1,
		Output:         1,
	}, res.Stats)
	require.Len(t, res.Rejected, 2)

	require.Len(t, res.Events, 1)
	got := res.Events[0]
	assert.Equal(t, "Jazz Night Live", got.Title, "first-seen record is the base")
	assert.Equal(t, []string{"commodore", "tourism-vancouver"}, got.DataSources)
	assert.Equal(t, "An evening of live music with local trios", got.Description)
	assert.Equal(t, "Vancouver", got.Venue.City, "venue defaults come from the batch")
	assert.Equal(t, event.SeasonSpring, got.Season)
	assert.Equal(t, fixedNow, got.LastUpdated)
}

func TestProcess_Empty(t *testing.T) {
	res := newPipeline().Process(nil)
	assert.Empty(t, res.Events)
	assert.Equal(t, Stats{}, res.Stats)
}

func TestProcess_SourceIDsDoNotCollide(t *testing.T) {
	batches := []source.Batch{
		{Source: "commodore", Records: []event.RawEvent{
			{ID: "123", Title: "Jazz Night Live", StartDate: event.DateText("2026-03-14T20:00:00"), Venue: event.VenueName("Commodore Ballroom")},
		}},
		{Source: "roundhouse", Records: []event.RawEvent{
			{ID: "123", Title: "Pottery Wheel Workshop", StartDate: event.DateText("2026-04-02T18:00:00"), Venue: event.VenueName("Roundhouse")},
		}},
	}

	res := newPipeline().Process(batches)
	require.Len(t, res.Events, 2)
	assert.Equal(t, 0, res.Stats.ExactMerges)
	assert.Equal(t, "commodore:123", res.Events[0].ID)
	assert.Equal(t, "roundhouse:123", res.Events[1].ID)
}

func TestRun(t *testing.T) {
	good := &fakeSource{
		name:  "rio",
		venue: event.Venue{Name: "Rio Theatre", City: "Vancouver"},
		records: []event.RawEvent{
			{Title: "Rocky Horror Picture Show", StartDate: event.DateText("2026-10-31")},
			{Title: "Silent Disco Party", StartDate: event.DateText("2026-11-07")},
		},
	}
	bad := &fakeSource{
		name: "orpheum",
		err:  &source.FetchError{Kind: source.KindRateLimit, Source: "orpheum", Message: "rate limited"},
	}

	p := newPipeline()
	p.Metrics = metrics.New()

	res, err := p.Run(context.Background(), []source.Source{good, bad})
	require.NoError(t, err, "a failing source never aborts the run")

	assert.Equal(t, 1, res.Stats.SourceErrors)
	assert.Equal(t, 2, res.Stats.Fetched)
	require.Len(t, res.Events, 2)
	for _, e := range res.Events {
		assert.Equal(t, "Rio Theatre", e.Venue.Name)
		assert.Equal(t, []string{"rio"}, e.DataSources)
	}
	assert.Equal(t, int32(1), good.calls.Load())
	assert.Equal(t, int32(1), bad.calls.Load())
}

func TestRun_AllSourcesFail(t *testing.T) {
	srcs := []source.Source{
		&fakeSource{name: "a", err: errors.New("boom")},
		&fakeSource{name: "b", err: errors.New("boom")},
	}

	res, err := newPipeline().Run(context.Background(), srcs)
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.Equal(t, 2, res.Stats.SourceErrors)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline().Run(ctx, []source.Source{&fakeSource{name: "a"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Repeatable(t *testing.T) {
	src := &fakeSource{
		name: "rio",
		records: []event.RawEvent{
			{Title: "Cult Classics Night", StartDate: event.DateText("2026-05-01")},
		},
	}
	p := newPipeline()

	first, err := p.Run(context.Background(), []source.Source{src})
	require.NoError(t, err)
	second, err := p.Run(context.Background(), []source.Source{src})
	require.NoError(t, err)

	assert.Equal(t, first.Events, second.Events, "no state carries over between runs")
}
