package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/law-makers/labscrape/internal/engine"
	"github.com/law-makers/labscrape/internal/extract"
	"github.com/law-makers/labscrape/internal/measure"
	"github.com/law-makers/labscrape/internal/metrics"
	"github.com/law-makers/labscrape/internal/reqctx"
	"github.com/law-makers/labscrape/internal/retry"
	urlutil "github.com/law-makers/labscrape/internal/utils/url"
	"github.com/law-makers/labscrape/pkg/models"
)

// DefaultCatalogURL lists up to a thousand results per product tab
const DefaultCatalogURL = "https://analytical360.com/testresults?perpage=1000"

// DefaultTabs are the product tabs of the catalog
var DefaultTabs = []string{"Flower", "Concentrate", "Edible", "Liquid", "Topical"}

// Pass reads every catalog tab and syncs the rows into the summary
// collections
type Pass struct {
	Fetcher    engine.Fetcher
	Syncer     *Syncer
	Retry      retry.Config
	CatalogURL string
	Tabs       []string
	Metrics    *metrics.Metrics
}

// Report is the outcome of a summary pass
type Report struct {
	Rows      int
	Dropped   int
	Malformed int
	Results   []Result
}

// Run fetches each tab, cleans the rows and syncs them. A tab that cannot be
// read is skipped and reported in the returned error after the other tabs
// are synced; malformed measurements are reported the same way. Store
// failures abort the pass.
func (p *Pass) Run(ctx context.Context) (Report, error) {
	logger := reqctx.Logger(ctx)
	catalog := p.CatalogURL
	if catalog == "" {
		catalog = DefaultCatalogURL
	}
	tabs := p.Tabs
	if len(tabs) == 0 {
		tabs = DefaultTabs
	}

	var report Report
	var raws []models.RawRecord
	var pageErrs []error

	for _, tab := range tabs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		tabURL, err := urlutil.SetQuery(catalog, "tab", tab)
		if err != nil {
			return report, err
		}

		var rows []models.RawRecord
		err = retry.Do(ctx, p.Retry, func() error {
			var ferr error
			rows, ferr = p.readTab(ctx, tabURL, strings.ToLower(tab))
			return ferr
		})
		if err != nil {
			logger.Error().Err(err).Str("tab", tab).Msg("Catalog tab failed")
			pageErrs = append(pageErrs, fmt.Errorf("tab %s: %w", tab, err))
			continue
		}

		logger.Info().Str("tab", tab).Int("rows", len(rows)).Msg("Catalog tab read")
		raws = append(raws, rows...)
	}
	report.Rows = len(raws)

	pctRaw, mgRaw, dropped := measure.Partition(raws)
	report.Dropped = len(dropped)
	for _, d := range dropped {
		logger.Warn().Str("link", d.Link).Str("thc_total", d.THCTotal).Msg("Row has no recognised unit, dropped")
	}
	p.Metrics.AddSummary("none", "dropped", len(dropped))

	pct, pctErr := measure.CleanAll(pctRaw, models.UnitPercent)
	mg, mgErr := measure.CleanAll(mgRaw, models.UnitMilligram)
	report.Malformed = (len(pctRaw) - len(pct)) + (len(mgRaw) - len(mg))
	p.Metrics.AddSummary(string(models.UnitPercent), "malformed", len(pctRaw)-len(pct))
	p.Metrics.AddSummary(string(models.UnitMilligram), "malformed", len(mgRaw)-len(mg))

	results, err := p.Syncer.SyncAll(ctx, pct, mg)
	report.Results = results
	if err != nil {
		return report, reqctx.NewRunError(ctx, err)
	}

	p.Metrics.PassCompleted("summary")
	return report, errors.Join(append(pageErrs, pctErr, mgErr)...)
}

func (p *Pass) readTab(ctx context.Context, tabURL, productType string) ([]models.RawRecord, error) {
	start := time.Now()
	page, err := p.Fetcher.Fetch(ctx, tabURL)
	p.Metrics.ObserveFetch(p.Fetcher.Name(), time.Since(start))
	if err != nil {
		return nil, err
	}
	doc, err := page.Document(ctx)
	if err != nil {
		return nil, err
	}
	return extract.ExtractRows(doc, page.URL(), productType)
}
