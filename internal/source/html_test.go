package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hann12-34/discovr-events/internal/cache"
	"github.com/hann12-34/discovr-events/internal/event"
)

const listingPage = `<html><body>
<div class="event">
  <h3 class="title">Jazz Night at the Orpheum</h3>
  <time datetime="2026-03-14T20:00:00">Sat Mar 14</time>
  <span class="venue">Orpheum Theatre</span>
  <p class="desc">An evening of live music</p>
  <img src="/img/jazz.jpg">
  <a href="/events/jazz">Details</a>
</div>
<div class="event">
  <h3 class="title">Spring Market Mar 21, 2026</h3>
  <a href="https://other.example.com/market">More</a>
</div>
<div class="event">
  <h3 class="title">Jazz Night at the Orpheum</h3>
  <time datetime="2026-03-14T20:00:00">Sat Mar 14</time>
  <a href="/events/jazz">Details</a>
</div>
<div class="event"><h3 class="title">   </h3></div>
</body></html>`

var testSelectors = Selectors{
	List:        "div.event",
	Title:       "h3.title",
	Date:        "time",
	Venue:       ".venue",
	Description: ".desc",
	Image:       "img",
	Link:        "a",
}

func newTestSource(t *testing.T, url string, opts ...func(*HTMLConfig)) *HTMLSource {
	t.Helper()
	cfg := HTMLConfig{
		Name:      "orpheum",
		URL:       url,
		Selectors: testSelectors,
		Venue:     event.Venue{City: "Vancouver", State: "BC", Country: "Canada"},
		Backoff:   time.Millisecond,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewHTML(cfg)
}

func TestHTMLSource_Fetch(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	src := newTestSource(t, srv.URL+"/events")
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DefaultUserAgent, userAgent)
	require.Len(t, records, 2, "repeat and blank items are dropped")

	jazz := records[0]
	assert.Equal(t, "Jazz Night at the Orpheum", jazz.Title)
	assert.Equal(t, "2026-03-14T20:00:00", jazz.StartDate.Text, "datetime attribute wins over display text")
	assert.Equal(t, "Orpheum Theatre", jazz.Venue.Name)
	assert.True(t, jazz.Venue.IsText)
	assert.Equal(t, "An evening of live music", jazz.Description)
	assert.Equal(t, srv.URL+"/img/jazz.jpg", jazz.Image)
	assert.Equal(t, srv.URL+"/events/jazz", jazz.SourceURL)

	market := records[1]
	assert.Equal(t, "Mar 21, 2026", market.StartDate.Text, "date recovered from the title")
	assert.Equal(t, "https://other.example.com/market", market.SourceURL)
	assert.Empty(t, market.Venue.Name)

	assert.Equal(t, "orpheum", src.Name())
	assert.Equal(t, "Vancouver", src.VenueDefaults().City)
}

func TestHTMLSource_SeenSetIsPerCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	src := newTestSource(t, srv.URL)
	first, err := src.Fetch(context.Background())
	require.NoError(t, err)
	second, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, second, len(first), "a second run must not treat earlier records as seen")
}

func TestHTMLSource_Charset(t *testing.T) {
	// "Café Concert Apr 2, 2026" in ISO-8859-1
	page := []byte("<html><body><div class=\"event\"><h3 class=\"title\">Caf\xe9 Concert Apr 2, 2026</h3></div></body></html>")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write(page)
	}))
	defer srv.Close()

	records, err := newTestSource(t, srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Café Concert Apr 2, 2026", records[0].Title)
	assert.Equal(t, "Apr 2, 2026", records[0].StartDate.Text)
}

func TestHTMLSource_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantKind  ErrorKind
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, KindRateLimit, false},
		{"not found", http.StatusNotFound, KindStatus, false},
		{"server error", http.StatusBadGateway, KindStatus, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestSource(t, srv.URL).Fetch(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))

			var fe *FetchError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.status, fe.StatusCode)
			assert.Equal(t, "orpheum", fe.Source)
			assert.Equal(t, tt.retryable, fe.IsRetryable())
		})
	}
}

func TestHTMLSource_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	src := newTestSource(t, srv.URL, func(c *HTMLConfig) { c.MaxRetries = 2 })
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(2), hits.Load())
}

func TestHTMLSource_DoesNotRetryRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := newTestSource(t, srv.URL, func(c *HTMLConfig) { c.MaxRetries = 3 })
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTMLSource_Cache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	mem := cache.NewMemory()
	src := newTestSource(t, srv.URL, func(c *HTMLConfig) {
		c.Cache = mem
		c.CacheTTL = time.Hour
	})

	first, err := src.Fetch(context.Background())
	require.NoError(t, err)
	second, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load(), "second fetch is served from cache")

	cached, err := mem.Get(src.cacheKey())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(src.cacheKey(), cacheKeyPrefix))
	assert.Contains(t, string(cached), "Jazz Night")
}

func TestHTMLSource_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestSource(t, srv.URL).Fetch(ctx)
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"Chimera Golf Club 4.4.26", "4.4.26"},
		{"Jazz Brunch Jan 24", "Jan 24"},
		{"Opening Night February 8th, 2026", "February 8th, 2026"},
		{"Film Series 02/15/26", "02/15/26"},
		{"No date here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDate(tt.title))
		})
	}
}
