package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/law-makers/labscrape/internal/app"
	"github.com/law-makers/labscrape/internal/dataset"
	"github.com/law-makers/labscrape/internal/detail"
	"github.com/law-makers/labscrape/internal/reqctx"
	"github.com/law-makers/labscrape/internal/summary"
)

var (
	tabs  []string
	limit int
	seed  uint64
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Read the catalog tabs into the summary collections",
	Long: `Reads every product tab of the results catalog, splits rows into percent
and milligram groups, and stores the rows not seen before with scraped=false.

Running it twice against an unchanged catalog stores nothing the second time.`,
	Example: `  # Read all tabs with headless Chrome
  labscrape summary

  # Plain HTTP, only two tabs
  labscrape summary --mode static --tabs Flower,Edible`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

var detailCmd = &cobra.Command{
	Use:   "detail",
	Short: "Visit result pages not yet scraped",
	Long: `Visits the result page of every summary row with scraped=false, stores one
detail record per page, and marks the row scraped. Rows that fail with a
network error or an unexpected layout stay pending for the next run.`,
	Example: `  # Visit at most 50 pending rows
  labscrape detail --limit 50

  # Keep snapshots of pages that could not be read
  labscrape detail --dump-dir faults`,
	Args: cobra.NoArgs,
	RunE: runDetail,
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Rebuild the clean dataset from the detail records",
	Long: `Repairs sample names, projects every detail record to the clean schema, and
adds the records not already in clean_scraped_data. The same detail records
and seed always give the same names.`,
	Example: `  labscrape clean --seed 7`,
	Args:    cobra.NoArgs,
	RunE:    runClean,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the summary, detail and clean passes in order",
	Long: `Runs summary, detail and clean in order. A catalog tab that cannot be read
does not stop the later passes; a store failure does.`,
	Example: `  labscrape run --limit 200 --metrics-file /var/lib/node_exporter/labscrape.prom`,
	Args:    cobra.NoArgs,
	RunE:    runAll,
}

func init() {
	rootCmd.AddCommand(summaryCmd, detailCmd, cleanCmd, runCmd)

	for _, c := range []*cobra.Command{summaryCmd, runCmd} {
		c.Flags().StringSliceVar(&tabs, "tabs", summary.DefaultTabs, "Catalog tabs to read")
	}
	for _, c := range []*cobra.Command{detailCmd, runCmd} {
		c.Flags().IntVar(&limit, "limit", 0, "Maximum rows to visit (0 = all pending)")
	}
	for _, c := range []*cobra.Command{cleanCmd, runCmd} {
		c.Flags().Uint64Var(&seed, "seed", dataset.DefaultSeed, "Seed for sample name repair")
	}
}

func runSummary(cmd *cobra.Command, args []string) error {
	a, err := requireApp(cmd)
	if err != nil {
		return err
	}
	report, err := summaryPass(cmd.Context(), a)
	printSummaryReport(cmd.OutOrStdout(), report)
	return err
}

func runDetail(cmd *cobra.Command, args []string) error {
	a, err := requireApp(cmd)
	if err != nil {
		return err
	}
	stats, err := detailPass(cmd.Context(), a)
	printDetailStats(cmd.OutOrStdout(), stats)
	return err
}

func runClean(cmd *cobra.Command, args []string) error {
	a, err := requireApp(cmd)
	if err != nil {
		return err
	}
	report, err := dataset.NewFinalizer(a.Store, a.Metrics, seed).Run(cmd.Context())
	printCleanReport(cmd.OutOrStdout(), report)
	return err
}

func runAll(cmd *cobra.Command, args []string) error {
	a, err := requireApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logger := reqctx.Logger(ctx)

	report, summaryErr := summaryPass(ctx, a)
	printSummaryReport(out, report)
	if fatal(ctx, summaryErr) {
		return summaryErr
	}
	if summaryErr != nil {
		logger.Warn().Err(summaryErr).Msg("Summary pass incomplete, continuing")
	}

	stats, err := detailPass(ctx, a)
	printDetailStats(out, stats)
	if err != nil {
		return err
	}

	clean, err := dataset.NewFinalizer(a.Store, a.Metrics, seed).Run(ctx)
	printCleanReport(out, clean)
	if err != nil {
		return err
	}

	logger.Info().Dur("elapsed", reqctx.FromContext(ctx).Elapsed()).Msg("Run complete")
	return summaryErr
}

// fatal reports whether err must stop the later passes
func fatal(ctx context.Context, err error) bool {
	var runErr *reqctx.RunError
	return err != nil && (errors.As(err, &runErr) || ctx.Err() != nil)
}

func summaryPass(ctx context.Context, a *app.Application) (summary.Report, error) {
	f, err := a.NewFetcher(ctx)
	if err != nil {
		return summary.Report{}, err
	}
	defer f.Close()

	p := &summary.Pass{
		Fetcher: f,
		Syncer:  summary.NewSyncer(a.Store, a.Metrics),
		Retry:   a.Retry(),
		Tabs:    tabs,
		Metrics: a.Metrics,
	}
	return p.Run(ctx)
}

func detailPass(ctx context.Context, a *app.Application) (detail.Stats, error) {
	f, err := a.NewFetcher(ctx)
	if err != nil {
		return detail.Stats{}, err
	}
	defer f.Close()

	c := detail.New(f, a.Store, a.Metrics, detail.Options{
		Limit:          limit,
		Retry:          a.Retry(),
		DumpDir:        a.Config.DumpDir,
		Progress:       showProgress(a.Config),
		ProgressWriter: os.Stderr,
	})
	return c.Run(ctx)
}
