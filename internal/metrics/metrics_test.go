package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.IncRow("STORED")
	m.IncRow("STORED")
	m.IncRow("SKIPPED_EMPTY")
	m.AddSummary("pct", "inserted", 3)
	m.AddSummary("mg", "inserted", 0)
	m.ObserveFetch("StaticFetcher", 300*time.Millisecond)
	m.SetCleanRows(7)
	m.PassCompleted("detail")

	path := filepath.Join(t.TempDir(), "labscrape.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`labscrape_detail_rows_total{state="STORED"} 2`,
		`labscrape_detail_rows_total{state="SKIPPED_EMPTY"} 1`,
		`labscrape_summary_records_total{outcome="inserted",unit="pct"} 3`,
		`labscrape_clean_rows 7`,
		`labscrape_fetch_duration_seconds_count{fetcher="StaticFetcher"} 1`,
		`labscrape_last_success_timestamp_seconds{pass="detail"}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in textfile:\n%s", want, out)
		}
	}
	if strings.Contains(out, `unit="mg"`) {
		t.Error("Zero-count summary outcomes should not create a series")
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.IncRow("STORED")
	m.AddSummary("pct", "fresh", 1)
	m.ObserveFetch("x", time.Second)
	m.SetCleanRows(1)
	m.PassCompleted("clean")
	if err := m.WriteTextfile("/nonexistent/dir/file.prom"); err != nil {
		t.Errorf("nil metrics should not write, got %v", err)
	}
}
