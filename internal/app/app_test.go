package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/law-makers/labscrape/internal/config"
	"github.com/law-makers/labscrape/internal/engine/static"
	"github.com/law-makers/labscrape/pkg/models"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Store = filepath.Join(t.TempDir(), "data", "lab.db")
	cfg.Mode = config.ModeStatic
	return cfg
}

func TestNew_OpensStore(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(context.Background())

	if a.Store.Backend() != "sqlite:"+cfg.Store {
		t.Errorf("Unexpected backend %s", a.Store.Backend())
	}
	if _, err := os.Stat(cfg.Store); err != nil {
		t.Errorf("Expected database file: %v", err)
	}
	if a.Retry().MaxAttempts != cfg.Retries {
		t.Errorf("Expected retry attempts from config")
	}
}

func TestNew_ProxyFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.ProxyFile = filepath.Join(t.TempDir(), "proxies.txt")
	os.WriteFile(cfg.ProxyFile, []byte("# harvested\n1.2.3.4:80\n5.6.7.8:3128\n"), 0644)

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(context.Background())
	if a.Proxies.Len() != 2 {
		t.Errorf("Expected 2 proxies, got %d", a.Proxies.Len())
	}

	os.WriteFile(cfg.ProxyFile, []byte("# nothing\n"), 0644)
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("Expected error for an empty proxy file")
	}
}

func TestNewFetcher_Static(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(context.Background())

	f, err := a.NewFetcher(context.Background())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	defer f.Close()
	if _, ok := f.(*static.Fetcher); !ok {
		t.Errorf("Expected static fetcher, got %T", f)
	}
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	st, err := OpenStore(context.Background(), "sqlite://"+filepath.Join(dir, "x.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	st.Close()

	if _, err := OpenStore(context.Background(), ""); err == nil {
		t.Error("Expected error for empty DSN")
	}
}

func TestClose_WritesMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsFile = filepath.Join(t.TempDir(), "labscrape.prom")

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.Metrics.PassCompleted("detail")
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(cfg.MetricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), "detail") {
		t.Errorf("Expected pass label in metrics, got %s", data)
	}

	if _, err := a.Store.Collection(models.CollectionDetail).Count(context.Background()); err == nil {
		t.Error("Expected store to be closed")
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.JSONLog = true
	cfg.LogLevel = "warn"

	logger := SetupLogger(cfg, &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Str("link", "x").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"link":"x"`) {
		t.Errorf("Unexpected log output %q", out)
	}
}
