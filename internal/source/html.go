package source

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/hann12-34/discovr-events/internal/cache"
	"github.com/hann12-34/discovr-events/internal/event"
	"github.com/hann12-34/discovr-events/internal/logger"
)

const (
	DefaultUserAgent = "discovr-events/1.0 (+https://github.com/hann12-34/discovr-events)"
	DefaultTimeout   = 30 * time.Second
	maxBodyBytes     = 10 << 20
	cacheKeyPrefix   = "discovr:page:"
)

var (
	dottedDate  = regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.\d{2,4}\b`)
	monthDay    = regexp.MustCompile(`(?i)\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2}(st|nd|rd|th)?(,?\s+\d{4})?\b`)
	slashedDate = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
)

// Selectors locate event fields inside a listing page. List selects one
// element per event; the others are evaluated inside it. Empty selectors
// are skipped.
type Selectors struct {
	List        string `yaml:"list"`
	Title       string `yaml:"title"`
	Date        string `yaml:"date"`
	Venue       string `yaml:"venue"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	Link        string `yaml:"link"`
}

// HTMLConfig configures an HTMLSource
type HTMLConfig struct {
	Name       string
	URL        string
	Selectors  Selectors
	Venue      event.Venue
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration

	// Cache holds fetched page bodies for CacheTTL. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration

	// Client overrides the HTTP client, mainly for tests
	Client *http.Client
}

// HTMLSource scrapes one venue or listing page with CSS selectors
type HTMLSource struct {
	cfg    HTMLConfig
	client *http.Client
	log    *logger.Logger
}

// NewHTML creates an HTMLSource, filling defaults for unset options
func NewHTML(cfg HTMLConfig) *HTMLSource {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTMLSource{
		cfg:    cfg,
		client: client,
		log:    logger.ForSource(cfg.Name),
	}
}

// Name returns the source identifier recorded in dataSources
func (s *HTMLSource) Name() string {
	return s.cfg.Name
}

// VenueDefaults returns the venue this source is dedicated to
func (s *HTMLSource) VenueDefaults() event.Venue {
	return s.cfg.Venue
}

// Fetch downloads the page (or reads it from cache) and extracts records
func (s *HTMLSource) Fetch(ctx context.Context) ([]event.RawEvent, error) {
	body, err := s.page(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.parse(bytes.NewReader(body), s.cfg.URL)
	if err != nil {
		return nil, err
	}

	s.log.Debug("Parsed page", logger.Fields{"url": s.cfg.URL, "records": len(records)})
	return records, nil
}

func (s *HTMLSource) page(ctx context.Context) ([]byte, error) {
	key := s.cacheKey()
	if s.cfg.Cache != nil {
		body, err := s.cfg.Cache.Get(key)
		if err == nil {
			s.log.Debug("Page served from cache", logger.Fields{"url": s.cfg.URL})
			return body, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("Cache lookup failed", logger.Fields{"error": err.Error()})
		}
	}

	var body []byte
	var err error
	for attempt := 0; ; attempt++ {
		body, err = s.download(ctx)
		if err == nil {
			break
		}
		var fe *FetchError
		if !errors.As(err, &fe) || !fe.IsRetryable() || attempt >= s.cfg.MaxRetries {
			return nil, err
		}

		wait := s.cfg.Backoff << attempt
		s.log.Warn("Fetch failed, retrying", logger.Fields{"attempt": attempt + 1, "wait": wait.String(), "error": err.Error()})
		select {
		case <-ctx.Done():
			return nil, newError(KindNetwork, s.cfg.Name, "fetch cancelled", ctx.Err())
		case <-time.After(wait):
		}
	}

	if s.cfg.Cache != nil && s.cfg.CacheTTL > 0 {
		if err := s.cfg.Cache.Set(key, body, s.cfg.CacheTTL); err != nil {
			s.log.Warn("Cache store failed", logger.Fields{"error": err.Error()})
		}
	}
	return body, nil
}

// download fetches the page and converts it to UTF-8
func (s *HTMLSource) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, newError(KindNetwork, s.cfg.Name, "creating request", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, newError(KindNetwork, s.cfg.Name, "fetching page", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode == http.StatusTooManyRequests {
		fe := newError(KindRateLimit, s.cfg.Name, fmt.Sprintf("rate limited; retry after %s", resp.Header.Get("Retry-After")), nil)
		fe.StatusCode = resp.StatusCode
		return nil, fe
	}
	if resp.StatusCode != http.StatusOK {
		fe := newError(KindStatus, s.cfg.Name, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
		fe.StatusCode = resp.StatusCode
		return nil, fe
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, newError(KindNetwork, s.cfg.Name, "reading body", err)
	}

	enc, name, _ := charset.DetermineEncoding(raw, resp.Header.Get("Content-Type"))
	if strings.EqualFold(name, "utf-8") {
		return raw, nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, enc.NewDecoder().Reader(bytes.NewReader(raw))); err != nil {
		return nil, newError(KindParsing, s.cfg.Name, "converting "+name+" to UTF-8", err)
	}
	return buf.Bytes(), nil
}

// parse extracts one raw record per list element. Repeats within the page
// (same title, date and link) are dropped; the seen-set lives only for this call.
func (s *HTMLSource) parse(r io.Reader, pageURL string) ([]event.RawEvent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, newError(KindParsing, s.cfg.Name, "parsing HTML", err)
	}

	base, _ := url.Parse(pageURL)
	sel := s.cfg.Selectors
	seen := make(map[string]bool)
	records := make([]event.RawEvent, 0)

	doc.Find(sel.List).Each(func(_ int, item *goquery.Selection) {
		title := textOrAttr(item, sel.Title, "title")
		if title == "" {
			return
		}

		dateText := dateOf(item, sel.Date)
		if dateText == "" {
			dateText = extractDate(title)
		}
		if dateText == "" {
			dateText = extractDate(event.CleanText(item.Text()))
		}

		rec := event.RawEvent{
			Title:       title,
			Description: find(item, sel.Description).Text(),
			StartDate:   event.DateText(dateText),
			Image:       resolve(base, attrOf(find(item, sel.Image), "src", "data-src")),
			SourceURL:   resolve(base, attrOf(find(item, sel.Link), "href")),
		}
		if v := strings.TrimSpace(find(item, sel.Venue).Text()); v != "" {
			rec.Venue = event.VenueName(v)
		}
		if rec.SourceURL == "" {
			rec.SourceURL = pageURL
		}

		key := strings.ToLower(event.CleanText(title)) + "|" + dateText + "|" + rec.SourceURL
		if seen[key] {
			return
		}
		seen[key] = true
		records = append(records, rec)
	})

	return records, nil
}

func (s *HTMLSource) cacheKey() string {
	sum := sha1.Sum([]byte(s.cfg.URL))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// find evaluates selector inside item; an empty selector matches nothing
func find(item *goquery.Selection, selector string) *goquery.Selection {
	if selector == "" {
		return item.Slice(0, 0)
	}
	return item.Find(selector).First()
}

func textOrAttr(item *goquery.Selection, selector, attr string) string {
	el := find(item, selector)
	if selector == "" {
		el = item
	}
	if v, ok := el.Attr(attr); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(el.Text())
}

// dateOf prefers a machine-readable datetime attribute over display text
func dateOf(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	el := find(item, selector)
	if v := attrOf(el, "datetime", "content", "data-date"); v != "" {
		return v
	}
	return event.CleanText(el.Text())
}

func attrOf(el *goquery.Selection, names ...string) string {
	for _, n := range names {
		if v, ok := el.Attr(n); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// extractDate pulls date-like text out of a title or item text.
// Looks for patterns like "4.4.26", "Jan 24, 2026", "02/15/26".
func extractDate(text string) string {
	if match := dottedDate.FindString(text); match != "" {
		return match
	}
	if match := monthDay.FindString(text); match != "" {
		return match
	}
	return slashedDate.FindString(text)
}
