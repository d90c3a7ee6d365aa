// internal/engine/static/fetcher.go
package static

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/labscrape/internal/engine"
	"github.com/law-makers/labscrape/internal/proxy"
	"github.com/law-makers/labscrape/internal/ratelimit"
	urlutil "github.com/law-makers/labscrape/internal/utils/url"
	"github.com/rs/zerolog/log"
)

// maxBodySize caps how much of a response is parsed
const maxBodySize = 20 << 20

type proxyKey struct{}

// Options configures a Fetcher
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Proxy is a fixed endpoint, used when Pool is nil
	Proxy   string
	Pool    *proxy.Pool
	Limiter ratelimit.RateLimiter
}

// Fetcher loads pages over plain HTTP and parses them with goquery.
// Pages that need script execution to render their tables should use the
// dynamic session instead.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	pool      *proxy.Pool
	limiter   ratelimit.RateLimiter
}

// New creates a static Fetcher
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	pool := opts.Pool
	if pool == nil && opts.Proxy != "" {
		pool = proxy.NewPool([]string{opts.Proxy})
	}

	transport := &http.Transport{
		Proxy:               proxyFromContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Fetcher{
		client:    &http.Client{Transport: transport},
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		pool:      pool,
		limiter:   opts.Limiter,
	}
}

// proxyFromContext picks the endpoint chosen for this request, if any
func proxyFromContext(req *http.Request) (*url.URL, error) {
	endpoint, _ := req.Context().Value(proxyKey{}).(string)
	if endpoint == "" {
		return nil, nil
	}
	return url.Parse(proxy.ProxyURL(endpoint))
}

// Name returns the name of this fetcher
func (f *Fetcher) Name() string {
	return "StaticFetcher"
}

// Close drops idle connections
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// Fetch performs a GET on url. HTTP 404 is returned as a page so callers can
// inspect the not-found markup; 429 and 5xx are transient faults.
func (f *Fetcher) Fetch(ctx context.Context, url string) (engine.Page, error) {
	if err := urlutil.ValidateURL(url); err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrInvalidURL, err)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, url); err != nil {
			return nil, engine.Transient("pacing wait interrupted", err)
		}
	}

	doc, status, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return &page{fetcher: f, url: url, status: status, doc: doc}, nil
}

func (f *Fetcher) get(ctx context.Context, target string) (*goquery.Document, int, error) {
	start := time.Now()
	endpoint := f.pool.Next()

	reqCtx, cancel := context.WithTimeout(context.WithValue(ctx, proxyKey{}, endpoint), f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		f.pool.MarkFailed(endpoint)
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, 0, engine.Transient("request failed", err).WithDetail("url", target)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		f.pool.MarkFailed(endpoint)
		return nil, 0, engine.Transient("reading response failed", err).WithDetail("url", target)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		if resp.StatusCode == http.StatusTooManyRequests {
			f.pool.MarkFailed(endpoint)
		}
		return nil, resp.StatusCode, engine.Transient(fmt.Sprintf("HTTP %d", resp.StatusCode), nil).
			WithDetail("url", target).
			WithDetail("status", resp.StatusCode)
	}
	f.pool.MarkHealthy(endpoint)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to parse HTML: %w", err)
	}

	log.Debug().
		Str("url", target).
		Int("status", resp.StatusCode).
		Bool("proxied", endpoint != "").
		Dur("elapsed", time.Since(start)).
		Msg("Fetch completed")

	return doc, resp.StatusCode, nil
}

type page struct {
	fetcher *Fetcher
	url     string
	status  int
	doc     *goquery.Document
}

func (p *page) URL() string { return p.url }

func (p *page) Status() int { return p.status }

func (p *page) Document(ctx context.Context) (*goquery.Document, error) {
	return p.doc, nil
}

// Click follows the href of the first anchor matching selector and replaces
// the page contents with the result
func (p *page) Click(ctx context.Context, selector string) error {
	sel := p.doc.Find(selector).First()
	if sel.Length() == 0 {
		return engine.NewFault(engine.FaultLayout, "click target missing", nil).WithDetail("selector", selector)
	}
	if goquery.NodeName(sel) != "a" {
		return fmt.Errorf("%w: click on <%s>", engine.ErrUnsupported, goquery.NodeName(sel))
	}
	href, ok := sel.Attr("href")
	if !ok || href == "" || href == "#" {
		return fmt.Errorf("%w: anchor without href", engine.ErrUnsupported)
	}

	next := urlutil.ResolveURL(p.url, href)
	if f := p.fetcher; f.limiter != nil {
		if err := f.limiter.Wait(ctx, next); err != nil {
			return engine.Transient("pacing wait interrupted", err)
		}
	}

	doc, status, err := p.fetcher.get(ctx, next)
	if err != nil {
		return err
	}
	p.url, p.status, p.doc = next, status, doc
	return nil
}
