// Package detail visits the detail page of every pending summary row and
// stores one detail record per row.
package detail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/labscrape/internal/engine"
	"github.com/law-makers/labscrape/internal/extract"
	"github.com/law-makers/labscrape/internal/metrics"
	"github.com/law-makers/labscrape/internal/reqctx"
	"github.com/law-makers/labscrape/internal/retry"
	"github.com/law-makers/labscrape/internal/store"
	"github.com/law-makers/labscrape/internal/utils/output"
	"github.com/law-makers/labscrape/pkg/models"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

// Options tunes a crawl
type Options struct {
	// Limit caps the rows visited per run, 0 means all
	Limit int
	Retry retry.Config
	// DumpDir receives Markdown snapshots of pages with an unexpected layout
	DumpDir string
	// Progress draws a bar on ProgressWriter
	Progress       bool
	ProgressWriter io.Writer
}

// Crawler runs the detail pass
type Crawler struct {
	fetcher engine.Fetcher
	store   store.Store
	metrics *metrics.Metrics
	opts    Options
}

// New creates a Crawler. The fetcher is owned by the caller.
func New(f engine.Fetcher, st store.Store, m *metrics.Metrics, opts Options) *Crawler {
	return &Crawler{fetcher: f, store: st, metrics: m, opts: opts}
}

type pendingRow struct {
	unit  models.Unit
	entry store.Entry
}

// Run visits pending rows, percent rows first. Row faults are counted and
// the crawl moves on; a store failure stops it. When ctx is cancelled the
// row in flight is finished and Run returns the context error.
func (c *Crawler) Run(ctx context.Context) (Stats, error) {
	logger := reqctx.Logger(ctx)
	var stats Stats

	var pending []pendingRow
	for _, unit := range models.Units {
		coll := c.store.Collection(unit.SummaryCollection())
		entries, err := coll.Find(ctx, store.NotTrue(models.FieldScraped))
		if err != nil {
			return stats, reqctx.NewRunError(ctx, fmt.Errorf("select pending rows: %w", err))
		}
		for _, e := range entries {
			pending = append(pending, pendingRow{unit: unit, entry: e})
		}
	}
	if c.opts.Limit > 0 && len(pending) > c.opts.Limit {
		pending = pending[:c.opts.Limit]
	}

	logger.Info().Int("pending", len(pending)).Int("limit", c.opts.Limit).Msg("Starting detail crawl")

	bar := c.progressBar(len(pending))
	defer bar.Finish()

	for _, row := range pending {
		// rows are independent, so the crawl stops between rows, never inside one
		if err := ctx.Err(); err != nil {
			logger.Warn().Int("visited", stats.Visited).Msg("Detail crawl interrupted")
			return stats, err
		}

		state, err := c.process(context.WithoutCancel(ctx), ctx, row)
		if err != nil {
			return stats, reqctx.NewRunError(ctx, err)
		}
		stats.record(state)
		c.metrics.IncRow(string(state))
		bar.Add(1)
	}

	logger.Info().
		Int("visited", stats.Visited).
		Int("stored", stats.Stored).
		Int("duplicate", stats.Duplicate).
		Int("not_found", stats.NotFound).
		Int("empty", stats.Empty).
		Int("transient", stats.Transient).
		Int("layout", stats.Layout).
		Msg("Detail crawl complete")

	c.metrics.PassCompleted("detail")
	return stats, nil
}

func (c *Crawler) progressBar(n int) *progressbar.ProgressBar {
	if !c.opts.Progress || c.opts.ProgressWriter == nil {
		return progressbar.DefaultSilent(int64(n))
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(c.opts.ProgressWriter),
		progressbar.OptionSetDescription("detail"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// process takes one row from PENDING to a final or failed state. Store
// writes use storeCtx so an interrupt cannot split the detail insert from
// the scraped flag; fetches use fetchCtx.
func (c *Crawler) process(storeCtx, fetchCtx context.Context, row pendingRow) (State, error) {
	rec, err := models.SummaryFromDocument(row.entry.Doc)
	logger := reqctx.Logger(fetchCtx).With().
		Int64("row_id", row.entry.ID).
		Str("unit", string(row.unit)).
		Str("link", rec.Link).
		Logger()
	if err != nil {
		logger.Error().Err(err).Str("state", string(FailedLayout)).Msg("Summary row unusable")
		return FailedLayout, nil
	}

	logger.Debug().Str("state", string(Fetching)).Msg("Visiting row")

	page, doc, err := c.load(fetchCtx, rec.Link, row.unit)
	if err != nil {
		state := FailedTransient
		if k, ok := engine.KindOf(err); (ok && k == engine.FaultLayout) || errors.Is(err, engine.ErrInvalidURL) || errors.Is(err, engine.ErrUnsupported) {
			state = FailedLayout
		}
		logger.Warn().Err(err).Str("state", string(state)).Msg("Row left pending")
		return state, nil
	}

	state, detailDoc := c.read(doc, page, rec, logger)
	if state == FailedLayout {
		return state, nil
	}

	if detailDoc != nil {
		inserted, id, err := c.store.Collection(models.CollectionDetail).InsertOne(storeCtx, detailDoc)
		if err != nil {
			return "", fmt.Errorf("store detail record for %s: %w", rec.Link, err)
		}
		state = SkippedDuplicate
		if inserted {
			state = Stored
			logger = logger.With().Int64("detail_id", id).Logger()
		}
	}

	if !state.Final() {
		return state, nil
	}

	patch := models.NewDocument()
	patch.Set(models.FieldScraped, true)
	if err := c.store.Collection(row.unit.SummaryCollection()).UpdateOne(storeCtx, row.entry.ID, patch); err != nil {
		return "", fmt.Errorf("mark %s scraped: %w", rec.Link, err)
	}

	logger.Info().Str("state", string(state)).Msg("Row done")
	return state, nil
}

// load fetches the page with retries and switches it to unit if it shows
// the other one
func (c *Crawler) load(ctx context.Context, link string, unit models.Unit) (engine.Page, *goquery.Document, error) {
	var page engine.Page
	var doc *goquery.Document

	err := retry.Do(ctx, c.opts.Retry, func() error {
		start := time.Now()
		p, err := c.fetcher.Fetch(ctx, link)
		c.metrics.ObserveFetch(c.fetcher.Name(), time.Since(start))
		if err != nil {
			return err
		}
		d, err := p.Document(ctx)
		if err != nil {
			return err
		}
		page, doc = p, d
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	shown := extract.DisplayUnit(doc)
	if shown == "" || shown == unit {
		return page, doc, nil
	}

	if err := page.Click(ctx, extract.UnitToggleSelector); err != nil {
		return nil, nil, fmt.Errorf("switch unit to %s: %w", unit, err)
	}
	doc, err = page.Document(ctx)
	if err != nil {
		return nil, nil, err
	}
	if now := extract.DisplayUnit(doc); now != unit {
		return nil, nil, engine.NewFault(engine.FaultLayout, "unit toggle had no effect", nil).
			WithDetail("want", unit).
			WithDetail("shown", now)
	}
	return page, doc, nil
}

// read extracts the detail record. A nil record with a final state means the
// row is done without storing anything.
func (c *Crawler) read(doc *goquery.Document, page engine.Page, rec models.SummaryRecord, logger zerolog.Logger) (State, *models.Document) {
	name := extract.SampleName(doc)
	switch {
	case name.State == extract.NotFound || (name.State == extract.LayoutFault && page.Status() == 404):
		logger.Info().Str("state", string(SkippedNotFound)).Int("status", page.Status()).Msg("Detail page not found")
		return SkippedNotFound, nil
	case name.State == extract.LayoutFault:
		c.layoutFault(doc, page, logger, "sample name missing")
		return FailedLayout, nil
	}

	if !extract.Has(doc, extract.SummarySelector) {
		c.layoutFault(doc, page, logger, "summary section missing")
		return FailedLayout, nil
	}

	summary := extract.Section(doc, extract.SummarySelector)
	if summary.Len() == 0 {
		logger.Info().Str("state", string(SkippedEmpty)).Msg("Summary section empty")
		return SkippedEmpty, nil
	}

	merged := models.NewDocument()
	merged.Set(models.FieldSampleName, name.Value)
	merged.Set(models.FieldType, rec.Type)
	merged.Set(models.FieldLink, rec.Link)
	merged.Merge(
		extract.Section(doc, extract.HeaderSelector),
		summary,
		extract.Section(doc, extract.PotencySelector),
		extract.Section(doc, extract.TerpeneSelector),
	)

	return Stored, Normalize(merged)
}

func (c *Crawler) layoutFault(doc *goquery.Document, page engine.Page, logger zerolog.Logger, reason string) {
	event := logger.Error().Str("state", string(FailedLayout)).Str("reason", reason)

	if c.opts.DumpDir != "" {
		html, err := doc.Html()
		if err == nil {
			var path string
			path, err = output.SaveMarkdown(c.opts.DumpDir, html, page.URL())
			event = event.Str("snapshot", path)
		}
		if err != nil {
			logger.Warn().Err(err).Msg("Could not save page snapshot")
		}
	}

	event.Msg("Unexpected page layout, row left pending")
}
