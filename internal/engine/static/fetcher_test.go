package static

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/labscrape/internal/engine"
	"github.com/law-makers/labscrape/internal/proxy"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sample", func(w http.ResponseWriter, r *http.Request) {
		unit := r.URL.Query().Get("unit")
		if unit == "" {
			unit = "pct"
		}
		fmt.Fprintf(w, `<html><body>
			<h1 id="sample-name">Blue Dream</h1>
			<a id="unit-toggle" data-unit="%s" href="/sample?unit=mg">mg</a>
			<span id="plain">text</span>
		</body></html>`, unit)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`<html><body><div class="page-not-found">gone</div></body></html>`))
	})
	mux.HandleFunc("/busy", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_ParsesDocument(t *testing.T) {
	srv := newSite(t)
	f := New(Options{Timeout: 5 * time.Second, UserAgent: "labscrape-test"})
	defer f.Close()

	p, err := f.Fetch(context.Background(), srv.URL+"/sample")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if p.Status() != http.StatusOK {
		t.Errorf("Expected status 200, got %d", p.Status())
	}

	doc, _ := p.Document(context.Background())
	if name := strings.TrimSpace(doc.Find("#sample-name").Text()); name != "Blue Dream" {
		t.Errorf("Expected sample name, got %q", name)
	}
}

func TestFetch_NotFoundIsAPage(t *testing.T) {
	srv := newSite(t)
	f := New(Options{Timeout: 5 * time.Second})

	p, err := f.Fetch(context.Background(), srv.URL+"/missing")
	if err != nil {
		t.Fatalf("Expected 404 to be returned as a page, got %v", err)
	}
	if p.Status() != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", p.Status())
	}
}

func TestFetch_ServerErrorIsTransient(t *testing.T) {
	srv := newSite(t)
	f := New(Options{Timeout: 5 * time.Second})

	_, err := f.Fetch(context.Background(), srv.URL+"/busy")
	if !errors.Is(err, engine.ErrTransient) {
		t.Fatalf("Expected transient fault, got %v", err)
	}
	var fault *engine.Fault
	if errors.As(err, &fault) && !fault.Retryable() {
		t.Error("Expected 503 to be retryable")
	}
}

func TestFetch_UnreachableIsTransient(t *testing.T) {
	f := New(Options{Timeout: 2 * time.Second})

	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/")
	if !errors.Is(err, engine.ErrTransient) {
		t.Errorf("Expected transient fault, got %v", err)
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	f := New(Options{})
	if _, err := f.Fetch(context.Background(), "/relative"); !errors.Is(err, engine.ErrInvalidURL) {
		t.Errorf("Expected ErrInvalidURL, got %v", err)
	}
}

func TestClick_FollowsAnchor(t *testing.T) {
	srv := newSite(t)
	f := New(Options{Timeout: 5 * time.Second})

	p, err := f.Fetch(context.Background(), srv.URL+"/sample")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if err := p.Click(context.Background(), "#unit-toggle"); err != nil {
		t.Fatalf("Click failed: %v", err)
	}

	doc, _ := p.Document(context.Background())
	if unit, _ := doc.Find("#unit-toggle").Attr("data-unit"); unit != "mg" {
		t.Errorf("Expected page to switch to mg, got %q", unit)
	}
	if !strings.HasSuffix(p.URL(), "/sample?unit=mg") {
		t.Errorf("Expected URL to follow the anchor, got %s", p.URL())
	}
}

func TestClick_NonAnchorUnsupported(t *testing.T) {
	srv := newSite(t)
	f := New(Options{Timeout: 5 * time.Second})

	p, _ := f.Fetch(context.Background(), srv.URL+"/sample")
	if err := p.Click(context.Background(), "#plain"); !errors.Is(err, engine.ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
	if err := p.Click(context.Background(), "#nope"); !errors.Is(err, engine.ErrLayout) {
		t.Errorf("Expected layout fault for missing element, got %v", err)
	}
}

func TestFetch_UsesProxyPool(t *testing.T) {
	var seen string
	fakeProxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.String()
		w.Write([]byte(`<html><body><p>via proxy</p></body></html>`))
	}))
	defer fakeProxy.Close()

	u, _ := url.Parse(fakeProxy.URL)
	f := New(Options{Timeout: 5 * time.Second, Pool: proxy.NewPool([]string{u.Host})})

	p, err := f.Fetch(context.Background(), "http://lab.example/testresults")
	if err != nil {
		t.Fatalf("Fetch through proxy failed: %v", err)
	}
	if seen != "http://lab.example/testresults" {
		t.Errorf("Expected proxy to receive absolute URL, got %q", seen)
	}
	doc, _ := p.Document(context.Background())
	if doc.Find("p").Text() != "via proxy" {
		t.Error("Expected body served by proxy")
	}
}
