package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hann12-34/discovr-events/internal/cache"
	"github.com/hann12-34/discovr-events/internal/config"
	"github.com/hann12-34/discovr-events/internal/event"
	"github.com/hann12-34/discovr-events/internal/filter"
	"github.com/hann12-34/discovr-events/internal/logger"
	"github.com/hann12-34/discovr-events/internal/metrics"
	"github.com/hann12-34/discovr-events/internal/pipeline"
	"github.com/hann12-34/discovr-events/internal/source"
	"github.com/hann12-34/discovr-events/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitJunk    = 2
)

type options struct {
	configPath  string
	format      string
	sortBy      string
	dryRun      bool
	verbose     bool
	metricsFile string

	when       string
	venues     []string
	cities     []string
	categories []string
	prices     []string
	weekends   bool
	upcoming   bool
	days       int
}

// App holds the state of one CLI invocation
type App struct {
	opts     options
	out      io.Writer
	errOut   io.Writer
	exitCode int
	now      func() time.Time
}

// NewApp creates an App writing results to out and logs to errOut
func NewApp(out, errOut io.Writer) *App {
	return &App{out: out, errOut: errOut, now: time.Now}
}

// ExitCode returns the process exit code after the command ran
func (a *App) ExitCode() int {
	return a.exitCode
}

// Command creates the root command
func (a *App) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discovr-events",
		Short: "Normalize, filter and deduplicate scraped event listings",
		Long: `A CLI tool that collects event listings from venue pages and scraper
exports, drops junk and undated records, merges duplicates across sources
and stores each distinct event once.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setupLogging()
		},
	}
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.opts.configPath, "config", "", "Path to YAML config file")
	pf.StringVar(&a.opts.format, "format", "text", "Output format: text, json or ics")
	pf.BoolVar(&a.opts.verbose, "verbose", false, "Enable verbose logging and output")

	cmd.AddCommand(a.runCmd(), a.importCmd(), a.checkTitleCmd())
	return cmd
}

func (a *App) addPipelineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&a.opts.sortBy, "sort", "date", "Sort order: date, title or venue")
	f.BoolVar(&a.opts.dryRun, "dry-run", false, "Process and print without storing")
	f.StringVar(&a.opts.metricsFile, "metrics-file", "", "Write run metrics to this node-exporter textfile")
	f.StringVar(&a.opts.when, "when", "", `Only show events in a date range ("March", "Mar 1-15", "2026-03-01 to 2026-03-15")`)
	f.StringSliceVar(&a.opts.venues, "venue", nil, "Only show events at venues containing this text")
	f.StringSliceVar(&a.opts.cities, "city", nil, "Only show events in cities containing this text")
	f.StringSliceVar(&a.opts.categories, "category", nil, "Only show events in this category")
	f.StringSliceVar(&a.opts.prices, "price", nil, "Only show events in this price tier (Free, Low, Moderate, High, Varies)")
	f.BoolVar(&a.opts.weekends, "weekends", false, "Only show events starting on a Saturday or Sunday")
	f.BoolVar(&a.opts.upcoming, "upcoming", false, "Hide events that have already started")
	f.IntVar(&a.opts.days, "days", 0, "Only show events starting within N days (0 = no limit)")
}

func (a *App) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch every configured source and store new events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.opts.configPath)
			if err != nil {
				return err
			}
			if len(cfg.Sources) == 0 {
				return fmt.Errorf("no sources configured (see the sources section of --config)")
			}

			sources, err := source.FromDefinitions(cfg.Sources, newCache(cfg.Cache))
			if err != nil {
				return err
			}
			return a.process(cmd.Context(), cfg, sources)
		},
	}
	a.addPipelineFlags(cmd)
	return cmd
}

func (a *App) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import scraper JSON exports and store new events",
		Long: `Import one or more JSON files written by external scrapers. Each file
holds an array of events, or an object with an "events" array. The file
name (without extension) is recorded as the event's data source.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.opts.configPath)
			if err != nil {
				return err
			}

			sources := make([]source.Source, 0, len(args))
			for _, path := range args {
				sources = append(sources, source.NewFile("", path, event.Venue{}))
			}
			return a.process(cmd.Context(), cfg, sources)
		},
	}
	a.addPipelineFlags(cmd)
	return cmd
}

func (a *App) checkTitleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-title TITLE...",
		Short: "Report whether titles would be rejected as junk",
		Long: `Classify each title with the configured junk rules. Exits with status 2
when any title is junk, so the command can be used in scripts.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.opts.configPath)
			if err != nil {
				return err
			}
			classifier, err := cfg.Filter.Classifier()
			if err != nil {
				return err
			}

			format, err := ParseFormat(a.opts.format)
			if err != nil {
				return err
			}

			results := make([]TitleResult, 0, len(args))
			for _, title := range args {
				v := classifier.Classify(title)
				results = append(results, TitleResult{
					Title:    title,
					Junk:     v.Junk,
					Rule:     v.Rule,
					Category: v.Category,
					Pattern:  v.Pattern,
				})
				if v.Junk {
					a.exitCode = ExitJunk
				}
			}
			return writeTitleResults(a.out, results, format)
		},
	}
}

// process runs the pipeline over sources, stores the result and prints it
func (a *App) process(ctx context.Context, cfg config.Config, sources []source.Source) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.ForComponent("cli")

	format, err := ParseFormat(a.opts.format)
	if err != nil {
		return err
	}
	order, err := ParseSortOrder(a.opts.sortBy)
	if err != nil {
		return err
	}
	outFilter, err := a.outputFilter()
	if err != nil {
		return err
	}

	classifier, err := cfg.Filter.Classifier()
	if err != nil {
		return err
	}

	m := metrics.New()
	p := pipeline.New(filter.NewGate(classifier), cfg.Dedup.Resolver())
	p.Metrics = m
	p.Now = a.now

	result, err := p.Run(ctx, sources)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}

	var store storage.Store = storage.Discard{}
	if !a.opts.dryRun {
		store, err = storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
	}
	defer store.Close(context.Background()) // nolint:errcheck

	saved, err := store.Save(ctx, result.Events)
	if err != nil {
		return fmt.Errorf("storing events: %w", err)
	}
	if !a.opts.dryRun {
		m.RecordSave(saved.Inserted, saved.Skipped)
		log.Info("Events stored", logger.Fields{"backend": cfg.Storage.Backend, "inserted": saved.Inserted, "skipped": saved.Skipped})
	}

	if path := a.metricsPath(cfg); path != "" {
		if err := m.WriteTextfile(path); err != nil {
			log.Warn("Could not write metrics", logger.Fields{"path": path, "error": err.Error()})
		}
	}

	events := outFilter.Apply(result.Events)
	if events == nil {
		events = []*event.Event{}
	}
	sortEvents(events, order)

	out := &OutputResult{
		GeneratedAt: a.now().UTC(),
		Stats:       result.Stats,
		Saved:       saved,
		DryRun:      a.opts.dryRun,
		Events:      events,
		EventCount:  len(events),
	}
	if !outFilter.IsEmpty() {
		out.Filter = outFilter.String()
	}
	if a.opts.verbose {
		out.Rejected = rejectedTitles(result.Rejected)
	}

	if err := WriteOutput(a.out, out, format, a.opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// outputFilter builds the display filter from the command-line flags
func (a *App) outputFilter() (*filter.Filter, error) {
	f := filter.NewFilter()

	if a.opts.when != "" {
		from, to, err := filter.ParseDateRangeAt(a.opts.when, a.now())
		if err != nil {
			return nil, fmt.Errorf("invalid --when: %w", err)
		}
		f.DateFrom, f.DateTo = from, to
	}

	f.Venues = append(f.Venues, a.opts.venues...)
	f.Cities = append(f.Cities, a.opts.cities...)
	f.Categories = append(f.Categories, a.opts.categories...)
	f.WeekendsOnly = a.opts.weekends
	f.UpcomingOnly = a.opts.upcoming
	f.Now = a.now

	if a.opts.days < 0 {
		return nil, fmt.Errorf("invalid --days: %d", a.opts.days)
	}
	f.DaysAhead = a.opts.days

	for _, p := range a.opts.prices {
		pr, ok := event.ParsePriceRange(p)
		if !ok {
			return nil, fmt.Errorf("invalid --price: %s", p)
		}
		f.PriceRanges = append(f.PriceRanges, pr)
	}
	return f, nil
}

func (a *App) metricsPath(cfg config.Config) string {
	if a.opts.metricsFile != "" {
		return a.opts.metricsFile
	}
	return cfg.Metrics.TextfilePath
}

func (a *App) setupLogging() {
	if !a.opts.verbose {
		logger.SetDefault(logger.FromEnv(a.errOut))
		return
	}
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		logger.SetDefault(logger.New(logger.LevelDebug, a.errOut))
		return
	}
	logger.SetDefault(logger.NewConsole(logger.LevelDebug, a.errOut))
}

// newCache selects the page cache for HTML sources. An unreachable
// memcached falls back to an in-process cache.
func newCache(cfg config.CacheConfig) cache.Cache {
	switch cfg.Backend {
	case config.CacheMemcache:
		mc := cache.NewMemcache(cfg.MemcacheAddr)
		if err := mc.Ping(); err != nil {
			logger.Warn("Memcached unavailable, using in-process cache", logger.Fields{"addr": cfg.MemcacheAddr, "error": err.Error()})
			return cache.NewMemory()
		}
		return mc
	case config.CacheMemory:
		return cache.NewMemory()
	default:
		return nil
	}
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(os.Stdout, os.Stderr)
	if err := app.Command().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return app.ExitCode()
}
