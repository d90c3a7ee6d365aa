// Package enginetest provides an in-memory engine.Fetcher for tests
package enginetest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/labscrape/internal/engine"
)

// Response is a canned page
type Response struct {
	HTML   string
	Status int
	Err    error
	// Clicks maps a selector to the URL whose response replaces the page
	Clicks map[string]string
}

// Fetcher serves canned responses and records every fetched URL
type Fetcher struct {
	mu       sync.Mutex
	pages    map[string]*Response
	failures map[string][]error
	fetched  []string
	clicked  []string
	closed   bool
}

// New creates an empty Fetcher
func New() *Fetcher {
	return &Fetcher{
		pages:    make(map[string]*Response),
		failures: make(map[string][]error),
	}
}

// Add registers a 200 response with the given HTML
func (f *Fetcher) Add(url, html string) *Response {
	r := &Response{HTML: html, Status: 200}
	f.Set(url, r)
	return r
}

// Set registers a response
func (f *Fetcher) Set(url string, r *Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = r
}

// FailNext makes the next fetches of url fail with errs, in order
func (f *Fetcher) FailNext(url string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[url] = append(f.failures[url], errs...)
}

// Fetched returns the URLs fetched so far
func (f *Fetcher) Fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

// Count returns how many times url was fetched
func (f *Fetcher) Count(url string) int {
	n := 0
	for _, u := range f.Fetched() {
		if u == url {
			n++
		}
	}
	return n
}

// Clicked returns the selectors clicked so far
func (f *Fetcher) Clicked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.clicked...)
}

// Closed reports whether Close was called
func (f *Fetcher) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Fetcher) Name() string { return "FakeFetcher" }

func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (engine.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, engine.Transient("context done", err)
	}

	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	if errs := f.failures[url]; len(errs) > 0 {
		f.failures[url] = errs[1:]
		f.mu.Unlock()
		return nil, errs[0]
	}
	r, ok := f.pages[url]
	f.mu.Unlock()

	if !ok {
		return nil, engine.Transient(fmt.Sprintf("no canned response for %s", url), nil)
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return &page{fetcher: f, url: url, resp: r}, nil
}

type page struct {
	fetcher *Fetcher
	url     string
	resp    *Response
}

func (p *page) URL() string { return p.url }

func (p *page) Status() int { return p.resp.Status }

func (p *page) Document(ctx context.Context) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.resp.HTML))
}

func (p *page) Click(ctx context.Context, selector string) error {
	p.fetcher.mu.Lock()
	p.fetcher.clicked = append(p.fetcher.clicked, selector)
	next, ok := p.resp.Clicks[selector]
	var r *Response
	if ok {
		r = p.fetcher.pages[next]
	}
	p.fetcher.mu.Unlock()

	if !ok || r == nil {
		return engine.NewFault(engine.FaultLayout, "click target missing", nil).WithDetail("selector", selector)
	}
	p.url, p.resp = next, r
	return nil
}
