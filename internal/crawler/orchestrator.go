package crawler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rniirs/news-harvester/internal/batch"
	"github.com/rniirs/news-harvester/internal/config"
	"github.com/rniirs/news-harvester/internal/domain"
	"github.com/rniirs/news-harvester/internal/logger"
	"github.com/rniirs/news-harvester/internal/state"
	"github.com/rniirs/news-harvester/pkg/classifier"
	"github.com/rniirs/news-harvester/pkg/httpclient"
	"github.com/rniirs/news-harvester/pkg/publishers"
	"github.com/rniirs/news-harvester/pkg/sources"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultBackfillPages = 10
	defaultConcurrency   = 5
	defaultHTTPTimeout   = 15 * time.Second
)

// ErrListingUnavailable aborts a run that has no listing to diff against.
var ErrListingUnavailable = errors.New("listing unavailable")

// Options tunes a source run.
type Options struct {
	BackfillPages   int
	Concurrency     int
	BatchSize       int
	Novelty         string
	DefaultCategory string
	HTTPTimeout     time.Duration
}

// Deps are the long-lived collaborators shared by all source runs.
type Deps struct {
	Parsers    sources.ParserRegistry
	Store      state.Store
	Publishers *publishers.Selector
	Classifier classifier.Client
	// NewClient builds the HTTP client owned by a single run.
	NewClient func() httpclient.Client
	Log       logger.Logger
}

// Orchestrator runs the ingestion cycle for one source at a time: listing,
// novelty filter, detail fetch, batching and state reconciliation.
type Orchestrator struct {
	deps Deps
	opts Options
	log  logger.Logger
}

func NewOrchestrator(deps Deps, opts Options) (*Orchestrator, error) {
	if deps.Parsers == nil {
		return nil, fmt.Errorf("parser registry is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if opts.BackfillPages <= 0 {
		opts.BackfillPages = defaultBackfillPages
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = batch.DefaultSize
	}
	if opts.Novelty == "" {
		opts.Novelty = config.NoveltyIntersect
	}
	if opts.Novelty != config.NoveltyIntersect && opts.Novelty != config.NoveltyUnion {
		return nil, fmt.Errorf("unsupported novelty policy %q", opts.Novelty)
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = defaultHTTPTimeout
	}
	if deps.NewClient == nil {
		timeout := opts.HTTPTimeout
		deps.NewClient = func() httpclient.Client { return httpclient.NewRestyClient(timeout) }
	}
	log := logger.Ensure(deps.Log)
	deps.Log = log
	return &Orchestrator{deps: deps, opts: opts, log: log}, nil
}

type pageResult struct {
	items []domain.ListingItem
	err   error
}

// runState carries everything one source run accumulates.
type runState struct {
	src     sources.Source
	parser  sources.Parser
	limiter *rate.Limiter
	report  *Report
}

// Run executes one ingestion cycle for src. Errors and panics are contained
// here and returned alongside the report.
func (o *Orchestrator) Run(ctx context.Context, src sources.Source) (rep Report, err error) {
	start := time.Now()
	rep.SourceID = src.ID
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source %s panicked: %v", src.ID, r)
			o.log.ErrorObj("source run panicked", "source_panic", map[string]any{
				"source_id": src.ID,
				"panic":     fmt.Sprint(r),
				"stack":     string(debug.Stack()),
			})
		}
		rep.Elapsed = time.Since(start)
		rep.Err = err
	}()

	client := o.deps.NewClient()
	defer httpclient.Release(client)

	parser, err := o.deps.Parsers.Get(src, sources.Deps{
		Client:          client,
		Classifier:      o.deps.Classifier,
		DefaultCategory: o.opts.DefaultCategory,
		Log:             o.log,
	})
	if err != nil {
		return rep, fmt.Errorf("resolve parser for source %s: %w", src.ID, err)
	}

	loaded, err := o.deps.Store.InitialLoadCompleted(src.ID)
	if err != nil {
		return rep, fmt.Errorf("read load state for source %s: %w", src.ID, err)
	}
	stored, err := o.deps.Store.ProcessedLinks(src.ID)
	if err != nil {
		return rep, fmt.Errorf("read processed links for source %s: %w", src.ID, err)
	}

	rep.Mode = domain.ModeIncremental
	pages := 1
	if !loaded {
		rep.Mode = domain.ModeBackfill
		pages = src.Pages(o.opts.BackfillPages)
	}

	rs := &runState{
		src:     src,
		parser:  parser,
		limiter: newLimiter(src.RequestDelay()),
		report:  &rep,
	}

	o.log.InfoObj("source run started", "source_run", map[string]any{
		"source_id":    src.ID,
		"mode":         rep.Mode,
		"pages":        pages,
		"stored_links": stored.Len(),
	})

	results := o.fetchListings(ctx, rs, pages)
	if err := ctx.Err(); err != nil {
		return rep, err
	}
	for _, r := range results {
		if r.err != nil {
			rep.PagesFailed++
		} else {
			rep.PagesFetched++
		}
	}
	if rep.Mode == domain.ModeIncremental && results[0].err != nil {
		return rep, fmt.Errorf("%w: source %s page 1: %v", ErrListingUnavailable, src.ID, results[0].err)
	}
	if rep.PagesFetched == 0 {
		return rep, fmt.Errorf("%w: source %s: all %d pages failed", ErrListingUnavailable, src.ID, pages)
	}

	observed, items := mergeListings(results)
	rep.Discovered = len(items)

	working := stored
	if rep.Mode == domain.ModeIncremental && o.opts.Novelty == config.NoveltyIntersect {
		working = stored.Intersect(observed)
	}
	fresh := make([]domain.ListingItem, 0, len(items))
	for _, it := range items {
		if !working.Has(it.Link) {
			fresh = append(fresh, it)
		}
	}
	rep.New = len(fresh)

	details := o.fetchDetails(ctx, rs, fresh)
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	fanout := o.deps.Publishers.ForMode(rep.Mode)
	sink := batch.New(o.opts.BatchSize, func(ctx context.Context, records []domain.NewsRecord) error {
		_, err := fanout.Publish(ctx, publishers.NewEvent(src.ID, parser.SourceName(), rep.Mode, records))
		return err
	})

	failedDetail := domain.NewLinkSet()
	for i, item := range fresh {
		if details[i] == nil {
			failedDetail.Add(item.Link)
			continue
		}
		category := parser.Category(ctx, item)
		record := domain.NewNewsRecord(item, *details[i], category, parser.SourceName())
		if err := sink.Add(ctx, record); err != nil {
			o.logSinkError(src.ID, err)
		}
	}
	rep.DetailFailures = failedDetail.Len()

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	err = o.reconcile(ctx, rs, sink, stored, observed, working, failedDetail)
	return rep, err
}

// reconcile flushes the sink and persists the new processed set. Links whose
// detail fetch or delivery failed stay unprocessed so a later run retries them.
func (o *Orchestrator) reconcile(ctx context.Context, rs *runState, sink *batch.Sink, stored, observed, working, failedDetail domain.LinkSet) error {
	rep := rs.report
	if err := sink.FlushAll(ctx); err != nil {
		o.logSinkError(rs.src.ID, err)
	}

	delivered := linksOf(sink.Sent())
	undelivered := linksOf(sink.Failed())
	rep.Delivered = delivered.Len()
	rep.Undelivered = undelivered.Len()

	var next domain.LinkSet
	if rep.Mode == domain.ModeBackfill {
		next = domain.NewLinkSet()
		for link := range observed {
			if !failedDetail.Has(link) && !undelivered.Has(link) {
				next.Add(link)
			}
		}
	} else {
		next = working.Union(delivered)
	}

	if err := o.deps.Store.SaveProcessedLinks(rs.src.ID, next); err != nil {
		return fmt.Errorf("save processed links for source %s: %w", rs.src.ID, err)
	}
	if rep.Mode == domain.ModeBackfill && rep.PagesFailed == 0 {
		if err := o.deps.Store.SetInitialLoadCompleted(rs.src.ID, true); err != nil {
			return fmt.Errorf("save load state for source %s: %w", rs.src.ID, err)
		}
	}

	o.log.DebugObj("source state reconciled", "source_state", map[string]any{
		"source_id":      rs.src.ID,
		"previous_links": stored.Len(),
		"links":          next.Len(),
	})
	return nil
}

// fetchListings downloads pages 1..pages concurrently. Results are indexed by
// page-1 so merge order follows page order.
func (o *Orchestrator) fetchListings(ctx context.Context, rs *runState, pages int) []pageResult {
	results := make([]pageResult, pages)

	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	for idx := 0; idx < pages; idx++ {
		idx := idx
		g.Go(func() error {
			page := idx + 1
			err := guard(func() error {
				if err := wait(ctx, rs.limiter); err != nil {
					return err
				}
				items, err := rs.parser.FetchListing(ctx, page)
				results[idx] = pageResult{items: items}
				return err
			})
			if err != nil {
				results[idx] = pageResult{err: err}
				o.log.WarnObj("listing page fetch failed", "listing_error", map[string]any{
					"source_id": rs.src.ID,
					"page":      page,
					"error":     err.Error(),
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// fetchDetails downloads detail pages for items; a nil entry marks a failure.
func (o *Orchestrator) fetchDetails(ctx context.Context, rs *runState, items []domain.ListingItem) []*domain.DetailRecord {
	out := make([]*domain.DetailRecord, len(items))

	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	for idx, item := range items {
		idx, item := idx, item
		g.Go(func() error {
			err := guard(func() error {
				if err := wait(ctx, rs.limiter); err != nil {
					return err
				}
				detail, err := rs.parser.FetchDetail(ctx, item.Link)
				if err != nil {
					return err
				}
				if detail == nil {
					return errors.New("empty detail")
				}
				out[idx] = detail
				return nil
			})
			if err != nil {
				o.log.WarnObj("news detail fetch failed", "detail_error", map[string]any{
					"source_id": rs.src.ID,
					"link":      item.Link,
					"error":     err.Error(),
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (o *Orchestrator) logSinkError(sourceID string, err error) {
	o.log.ErrorObj("batch delivery failed", "sink_error", map[string]any{
		"source_id": sourceID,
		"error":     err.Error(),
	})
}

// mergeListings flattens page results in page order, keeping the first
// occurrence of each link.
func mergeListings(results []pageResult) (domain.LinkSet, []domain.ListingItem) {
	seen := domain.NewLinkSet()
	var items []domain.ListingItem
	for _, r := range results {
		for _, it := range r.items {
			if it.Link == "" || seen.Has(it.Link) {
				continue
			}
			seen.Add(it.Link)
			items = append(items, it)
		}
	}
	return seen, items
}

func linksOf(records []domain.NewsRecord) domain.LinkSet {
	set := domain.NewLinkSet()
	for _, r := range records {
		set.Add(r.Link)
	}
	return set
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return ctx.Err()
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// guard converts a panic in fn into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
