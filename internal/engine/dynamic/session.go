// internal/engine/dynamic/session.go
package dynamic

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/labscrape/internal/engine"
	"github.com/law-makers/labscrape/internal/ratelimit"
	"github.com/rs/zerolog/log"
)

// settleDelay lets client-side scripts redraw after navigation or a click
const settleDelay = 300 * time.Millisecond

// SessionOptions configures a browser session
type SessionOptions struct {
	Headless   bool
	UserAgent  string
	Proxy      string
	ChromePath string
	Timeout    time.Duration
	Limiter    ratelimit.RateLimiter
	ExtraArgs  []chromedp.ExecAllocatorOption
}

// Session drives one headless Chrome tab for a whole pass
type Session struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	limiter ratelimit.RateLimiter
	timeout time.Duration

	mu        sync.Mutex
	mainFrame cdp.FrameID
	awaiting  bool
	status    int64
	closed    bool
}

// NewSession starts Chrome and opens a blank tab
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	chromePath := opts.ChromePath
	if chromePath == "" {
		chromePath = FindChrome()
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("window-size", "1920,1080"),
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if chromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(chromePath)}, allocOpts...)
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}
	allocOpts = append(allocOpts, opts.ExtraArgs...)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		limiter:     opts.Limiter,
		timeout:     opts.Timeout,
	}

	chromedp.ListenTarget(tabCtx, s.onEvent)

	if err := chromedp.Run(tabCtx, network.Enable(), chromedp.Navigate("about:blank")); err != nil {
		s.Close()
		if strings.Contains(err.Error(), "executable file not found") {
			return nil, fmt.Errorf("%w: %v", engine.ErrBrowserNotFound, err)
		}
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}

	// the main frame shares the id of its target
	if c := chromedp.FromContext(tabCtx); c != nil && c.Target != nil {
		s.mu.Lock()
		s.mainFrame = cdp.FrameID(c.Target.TargetID)
		s.mu.Unlock()
	}

	log.Debug().
		Str("chrome", chromePath).
		Bool("headless", opts.Headless).
		Bool("proxy", opts.Proxy != "").
		Msg("Browser session ready")

	return s, nil
}

// onEvent records the status of the first main-frame document response
// after a navigation starts. Redirects are followed by the browser, so this
// is the status of the final URL.
func (s *Session) onEvent(ev interface{}) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.awaiting {
		return
	}
	if s.mainFrame != "" && resp.FrameID != s.mainFrame {
		return
	}
	s.status = resp.Response.Status
	s.awaiting = false
}

// expectNavigation resets the recorded status before a navigation
func (s *Session) expectNavigation() {
	s.mu.Lock()
	s.awaiting = true
	s.status = 0
	s.mu.Unlock()
}

func (s *Session) lastStatus() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.status)
}

// Name returns the name of this fetcher
func (s *Session) Name() string {
	return "DynamicSession"
}

// run executes actions on the tab, bounded by the session timeout and by ctx
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return fmt.Errorf("browser session is closed")
	}

	runCtx, cancel := context.WithTimeout(s.tabCtx, s.timeout)
	defer cancel()

	// chromedp contexts derive from the tab, so the caller's cancellation is
	// forwarded by hand
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Fetch navigates the tab to url and waits for the body to render
func (s *Session) Fetch(ctx context.Context, url string) (engine.Page, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, url); err != nil {
			return nil, engine.Transient("pacing wait interrupted", err)
		}
	}

	s.expectNavigation()

	start := time.Now()
	err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
	)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, engine.Transient("navigation failed", err).WithDetail("url", url)
	}

	status := s.lastStatus()

	if status == 429 || status >= 500 {
		return nil, engine.Transient(fmt.Sprintf("HTTP %d", status), nil).WithDetail("url", url)
	}

	log.Debug().
		Str("url", url).
		Int("status", status).
		Dur("elapsed", time.Since(start)).
		Msg("Page loaded")

	return &page{session: s, url: url, status: status}, nil
}

// Close shuts down the tab and the browser
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.tabCancel()
	s.allocCancel()

	log.Debug().Msg("Browser session closed")
	return nil
}

// page is the live tab after a Fetch
type page struct {
	session *Session
	url     string
	status  int
}

func (p *page) URL() string { return p.url }

func (p *page) Status() int { return p.status }

// Document snapshots the rendered DOM
func (p *page) Document(ctx context.Context) (*goquery.Document, error) {
	var html string
	if err := p.session.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, engine.Transient("DOM snapshot failed", err).WithDetail("url", p.url)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Click activates the first element matching selector and waits for the page
// to settle
func (p *page) Click(ctx context.Context, selector string) error {
	err := p.session.run(ctx,
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.Sleep(settleDelay),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return engine.Transient("click failed", err).WithDetail("selector", selector)
	}
	return nil
}
