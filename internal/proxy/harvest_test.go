package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseEndpoints(t *testing.T) {
	text := "1.2.3.4:8080\n<td>5.6.7.8</td> garbage 9.9.9.9:3128 and 300:1"
	got := ParseEndpoints(text)

	if len(got) != 2 || got[0] != "1.2.3.4:8080" || got[1] != "9.9.9.9:3128" {
		t.Errorf("Unexpected endpoints: %v", got)
	}
}

func TestHarvester_KeepsProbedEndpoints(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("10.0.0.1:80\n10.0.0.2:80\n10.0.0.1:80\n10.0.0.3:80\n"))
	}))
	defer source.Close()

	good := map[string]bool{"10.0.0.1:80": true, "10.0.0.3:80": true}
	h := NewHarvester(HarvestOptions{
		Sources:     []string{source.URL},
		Limit:       10,
		Concurrency: 2,
		Probe: func(ctx context.Context, endpoint string) bool {
			return good[endpoint]
		},
	})

	got, err := h.Harvest(context.Background())
	if err != nil {
		t.Fatalf("Harvest failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 working proxies, got %v", got)
	}
	for _, p := range got {
		if !good[p] {
			t.Errorf("Unexpected proxy %s", p)
		}
	}
}

func TestHarvester_StopsAtLimit(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("10.0.0.1:80\n10.0.0.2:80\n10.0.0.3:80\n10.0.0.4:80\n"))
	}))
	defer source.Close()

	h := NewHarvester(HarvestOptions{
		Sources:     []string{source.URL},
		Limit:       2,
		Concurrency: 4,
		Probe:       func(ctx context.Context, endpoint string) bool { return true },
	})

	got, err := h.Harvest(context.Background())
	if err != nil {
		t.Fatalf("Harvest failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected limit of 2, got %d", len(got))
	}
}

func TestHarvester_ProbeThroughProxy(t *testing.T) {
	// plain HTTP proxies receive the absolute URL and answer directly
	fakeProxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer fakeProxy.Close()

	u, _ := url.Parse(fakeProxy.URL)
	h := NewHarvester(HarvestOptions{
		CheckURL: "http://check.invalid/",
		Timeout:  2 * time.Second,
	})

	if !h.probe(context.Background(), u.Host) {
		t.Error("Expected probe through the fake proxy to pass")
	}
	if h.probe(context.Background(), "127.0.0.1:1") {
		t.Error("Expected probe through a closed port to fail")
	}
}

func TestHarvester_NoCandidates(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer source.Close()

	h := NewHarvester(HarvestOptions{Sources: []string{source.URL}})
	if _, err := h.Harvest(context.Background()); err == nil {
		t.Error("Expected error when no source yields candidates")
	}
}

func TestSaveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	if err := SaveFile(path, []string{"1.1.1.1:80", "2.2.2.2:8080"}); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "1.1.1.1:80\n2.2.2.2:8080\n" {
		t.Errorf("Unexpected file content %q", data)
	}
}
