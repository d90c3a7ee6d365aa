package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/law-makers/labscrape/internal/app"
	"github.com/law-makers/labscrape/internal/config"
	"github.com/law-makers/labscrape/internal/reqctx"
	"github.com/law-makers/labscrape/internal/ui"
)

// noStore marks commands that run without opening the local store
const noStore = "labscrape/no-store"

// closeTimeout bounds store shutdown after a command
const closeTimeout = 10 * time.Second

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "labscrape",
	Short: "Scrape lab-test results into a deduplicated dataset",
	Long: `labscrape collects lab-test result tables from analytical360, keeps them in a
local store without duplicates, visits each result page once, and builds a
clean dataset from the detail records.

Passes:
- summary: read the catalog tabs into summary_tables_pct and summary_tables_mg
- detail: visit every result page not yet scraped
- clean: rebuild clean_scraped_data from detail_data`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initApp,
}

// Execute runs the command line under ctx and returns the process exit code
func Execute(ctx context.Context) int {
	cmd, err := rootCmd.ExecuteContextC(ctx)

	if a := GetAppFromCmd(cmd); a != nil {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		a.Close(closeCtx)
	}

	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		log.Warn().Msg("Interrupted")
		return 130
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", ui.Error("Error:"), err)
	return 1
}

// initApp loads the configuration and opens the application before a command
// runs, so -h and --version never touch the store
func initApp(cmd *cobra.Command, args []string) error {
	if GetAppFromCmd(cmd) != nil {
		return nil
	}

	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = reqctx.WithRun(ctx, cmd.CommandPath())
	cmd.SetContext(ctx)

	if cmd.Annotations[noStore] == "true" {
		app.SetupLogger(cfg, os.Stderr)
		return nil
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	SetApp(cmd, a)

	logger := reqctx.Logger(ctx)
	logger.Debug().Str("command", cmd.CommandPath()).Str("store", a.Store.Backend()).Msg("Run started")
	return nil
}

// showProgress reports whether progress bars should be drawn on stderr
func showProgress(cfg *config.Config) bool {
	return !cfg.JSONLog && cfg.LogLevel != "error" && term.IsTerminal(int(os.Stderr.Fd()))
}

func init() {
	config.RegisterFlags(rootCmd)

	rootCmd.Flags().BoolP("help", "h", false, "Help for labscrape")
	rootCmd.Flags().Bool("version", false, "Version for labscrape")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetUsageFunc(customUsageFunc)
}
