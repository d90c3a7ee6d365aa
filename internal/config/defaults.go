package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel    = "info"
	DefaultJSONLog     = false
	DefaultStore       = "labscrape.db"
	DefaultMode        = ModeSPA
	DefaultHeadless    = true
	DefaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0 Safari/537.36 labscrape/1.0"
	DefaultTimeout     = 30 * time.Second
	DefaultPace        = 2 * time.Second
	DefaultPaceBurst   = 1
	DefaultRetries     = 3
	DefaultProxyFile   = "proxies.txt"
	DefaultProxyLimit  = 10
	DefaultMaxRetries  = 10
	DefaultMinPace     = 100 * time.Millisecond
	DefaultProxyWorker = 20
)

// Fetch modes
const (
	ModeSPA    = "spa"
	ModeStatic = "static"
)

// Environment overrides
const (
	EnvStore      = "LABSCRAPE_STORE"
	EnvMode       = "LABSCRAPE_MODE"
	EnvProxy      = "LABSCRAPE_PROXY"
	EnvProxyFile  = "LABSCRAPE_PROXY_FILE"
	EnvPace       = "LABSCRAPE_PACE"
	EnvChromePath = "LABSCRAPE_CHROME_PATH"
	EnvUserAgent  = "LABSCRAPE_USER_AGENT"
	EnvMetrics    = "LABSCRAPE_METRICS_FILE"
)
