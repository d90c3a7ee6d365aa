package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/labscrape/internal/config"
	"github.com/law-makers/labscrape/internal/proxy"
	"github.com/law-makers/labscrape/internal/reqctx"
	"github.com/law-makers/labscrape/internal/ui"
)

var (
	proxyOutput      string
	proxyLimit       int
	proxyConcurrency int
	proxyCheckURL    string
	proxyProbeWait   time.Duration
)

var proxiesCmd = &cobra.Command{
	Use:   "proxies",
	Short: "Harvest working public proxies into a file",
	Long: `Downloads public proxy lists, probes each candidate with an HTTPS request
through it, and writes the first working host:port endpoints to a file that
--proxy-file can rotate through.`,
	Example: `  labscrape proxies
  labscrape proxies --limit 25 --output pool.txt
  labscrape detail --mode static --proxy-file pool.txt`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{noStore: "true"},
	RunE:        runProxies,
}

func init() {
	rootCmd.AddCommand(proxiesCmd)
	proxiesCmd.Flags().StringVarP(&proxyOutput, "output", "o", config.DefaultProxyFile, "File to write endpoints to")
	proxiesCmd.Flags().IntVar(&proxyLimit, "limit", config.DefaultProxyLimit, "Number of working proxies to keep")
	proxiesCmd.Flags().IntVar(&proxyConcurrency, "concurrency", config.DefaultProxyWorker, "Parallel probes")
	proxiesCmd.Flags().StringVar(&proxyCheckURL, "check-url", proxy.DefaultCheckURL, "HTTPS URL each proxy must reach")
	proxiesCmd.Flags().DurationVar(&proxyProbeWait, "probe-timeout", 8*time.Second, "Timeout per probe")
}

func runProxies(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	h := proxy.NewHarvester(proxy.HarvestOptions{
		CheckURL:    proxyCheckURL,
		Limit:       proxyLimit,
		Concurrency: proxyConcurrency,
		Timeout:     proxyProbeWait,
		UserAgent:   cfg.UserAgent,
	})

	endpoints, err := h.Harvest(ctx)
	if err != nil {
		return err
	}
	if err := proxy.SaveFile(proxyOutput, endpoints); err != nil {
		return fmt.Errorf("save proxies: %w", err)
	}

	logger := reqctx.Logger(ctx)
	logger.Info().Int("proxies", len(endpoints)).Str("file", proxyOutput).Msg("Proxies saved")
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d proxies to %s\n", ui.Success("saved"), len(endpoints), proxyOutput)
	return nil
}
