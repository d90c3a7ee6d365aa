package config

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RegisterFlags registers the global CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.BoolP("quiet", "q", false, "Suppress all output except errors")
	pf.Bool("json", false, "Log in JSON format")
	pf.String("store", DefaultStore, fmt.Sprintf("Store DSN: SQLite path or postgres:// URL (env %s)", EnvStore))
	pf.String("mode", DefaultMode, "Fetch mode: spa (headless Chrome) or static (plain HTTP)")
	pf.Bool("headful", false, "Show the browser window in spa mode")
	pf.String("chrome-path", "", "Chrome executable (default: auto-detect)")
	pf.String("proxy", "", "Proxy for every request (e.g. http://host:port)")
	pf.String("proxy-file", "", "Rotate through host:port proxies listed in this file (static mode)")
	pf.String("pace", DefaultPace.String(), "Minimum interval between requests to the site")
	pf.String("timeout", DefaultTimeout.String(), "Timeout per page load")
	pf.Int("retries", DefaultRetries, "Attempts per page on transient failures")
	pf.String("user-agent", "", "Custom user agent string")
	pf.String("metrics-file", "", "Write Prometheus metrics to this textfile after each run")
	pf.String("dump-dir", "", "Save Markdown snapshots of pages with an unexpected layout here")
}
