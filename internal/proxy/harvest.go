package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultSources are public plain-text proxy lists
var DefaultSources = []string{
	"https://api.proxyscrape.com/v2/?request=getproxies&protocol=http&timeout=5000&country=all&ssl=yes&anonymity=all",
	"https://raw.githubusercontent.com/TheSpeedX/PROXY-List/master/http.txt",
	"https://raw.githubusercontent.com/clarketm/proxy-list/master/proxy-list-raw.txt",
}

// DefaultCheckURL is fetched through each candidate to verify HTTPS support
const DefaultCheckURL = "https://analytical360.com/"

var endpointPattern = regexp.MustCompile(`\b(\d{1,3}(?:\.\d{1,3}){3}):(\d{2,5})\b`)

// ProbeFunc reports whether endpoint can be used as a proxy
type ProbeFunc func(ctx context.Context, endpoint string) bool

// HarvestOptions configures a Harvester
type HarvestOptions struct {
	Sources     []string
	CheckURL    string
	Limit       int
	Concurrency int
	Timeout     time.Duration
	UserAgent   string
	Probe       ProbeFunc
}

// Harvester collects candidate endpoints from public lists and keeps the ones
// that answer through a probe request. Results carry no ordering or
// freshness guarantee.
type Harvester struct {
	opts   HarvestOptions
	client *http.Client
}

// NewHarvester creates a Harvester, filling unset options with defaults
func NewHarvester(opts HarvestOptions) *Harvester {
	if len(opts.Sources) == 0 {
		opts.Sources = DefaultSources
	}
	if opts.CheckURL == "" {
		opts.CheckURL = DefaultCheckURL
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 20
	}
	if opts.Concurrency > 100 {
		opts.Concurrency = 100
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}

	h := &Harvester{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
	}
	if h.opts.Probe == nil {
		h.opts.Probe = h.probe
	}
	return h
}

// Harvest returns up to Limit working endpoints
func (h *Harvester) Harvest(ctx context.Context) ([]string, error) {
	candidates := h.collect(ctx)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no proxy candidates found in %d source(s)", len(h.opts.Sources))
	}

	log.Info().Int("candidates", len(candidates)).Msg("Probing proxy candidates")

	probeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	results := make(chan string)

	var wg sync.WaitGroup
	for w := 1; w <= h.opts.Concurrency; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for endpoint := range jobs {
				if h.opts.Probe(probeCtx, endpoint) {
					select {
					case results <- endpoint:
					case <-probeCtx.Done():
						return
					}
				}
			}
		}(w)
	}

	go func() {
		defer close(jobs)
		for _, c := range candidates {
			select {
			case jobs <- c:
			case <-probeCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var working []string
	for endpoint := range results {
		if len(working) >= h.opts.Limit {
			continue
		}
		working = append(working, endpoint)
		log.Debug().Str("proxy", endpoint).Msg("Proxy passed probe")
		if len(working) == h.opts.Limit {
			cancel()
		}
	}

	if err := ctx.Err(); err != nil && len(working) == 0 {
		return nil, err
	}
	return working, nil
}

// collect downloads every source and extracts unique host:port endpoints in
// first-seen order. A failing source is logged and skipped.
func (h *Harvester) collect(ctx context.Context) []string {
	seen := make(map[string]bool)
	var out []string

	for _, src := range h.opts.Sources {
		body, err := h.download(ctx, src)
		if err != nil {
			log.Warn().Err(err).Str("source", src).Msg("Proxy source unavailable")
			continue
		}
		for _, endpoint := range ParseEndpoints(body) {
			if !seen[endpoint] {
				seen[endpoint] = true
				out = append(out, endpoint)
			}
		}
	}
	return out
}

func (h *Harvester) download(ctx context.Context, src string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", err
	}
	if h.opts.UserAgent != "" {
		req.Header.Set("User-Agent", h.opts.UserAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// probe requests CheckURL through endpoint and accepts any non-error answer
func (h *Harvester) probe(ctx context.Context, endpoint string) bool {
	proxyURL, err := url.Parse(ProxyURL(endpoint))
	if err != nil {
		return false
	}

	client := &http.Client{
		Timeout: h.opts.Timeout,
		Transport: &http.Transport{
			Proxy:             http.ProxyURL(proxyURL),
			DisableKeepAlives: true,
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.opts.CheckURL, nil)
	if err != nil {
		return false
	}
	if h.opts.UserAgent != "" {
		req.Header.Set("User-Agent", h.opts.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode < 400
}

// ParseEndpoints extracts host:port pairs from free-form text
func ParseEndpoints(text string) []string {
	var out []string
	for _, m := range endpointPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1]+":"+m[2])
	}
	return out
}

// SaveFile writes endpoints one per line
func SaveFile(path string, endpoints []string) error {
	content := strings.Join(endpoints, "\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write proxy file: %w", err)
	}
	return nil
}
