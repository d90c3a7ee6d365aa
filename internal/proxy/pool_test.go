package proxy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPool_Rotation(t *testing.T) {
	pool := NewPool([]string{"p1", "p2", "p3"})

	for _, want := range []string{"p1", "p2", "p3", "p1"} {
		if p := pool.Next(); p != want {
			t.Errorf("Expected %s, got %s", want, p)
		}
	}

	pool.MarkFailed("p2")

	// index is at p2, which is cooling down
	if p := pool.Next(); p != "p3" {
		t.Errorf("Expected p3 (skipping p2), got %s", p)
	}
	if p := pool.Next(); p != "p1" {
		t.Errorf("Expected p1, got %s", p)
	}
	if p := pool.Next(); p != "p3" {
		t.Errorf("Expected p3, got %s", p)
	}

	pool.MarkHealthy("p2")

	if p := pool.Next(); p != "p1" {
		t.Errorf("Expected p1, got %s", p)
	}
	if p := pool.Next(); p != "p2" {
		t.Errorf("Expected p2 back in rotation, got %s", p)
	}
}

func TestPool_AllFailedStillReturnsProxy(t *testing.T) {
	pool := NewPool([]string{"p1", "p2"})
	pool.MarkFailed("p1")
	pool.MarkFailed("p2")

	if p := pool.Next(); p == "" {
		t.Error("Expected a proxy even when all are cooling down")
	}
}

func TestPool_Empty(t *testing.T) {
	var nilPool *Pool
	if p := nilPool.Next(); p != "" {
		t.Errorf("Expected empty proxy from nil pool, got %q", p)
	}
	if p := NewPool(nil).Next(); p != "" {
		t.Errorf("Expected empty proxy from empty pool, got %q", p)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	content := "# harvested\n10.0.0.1:8080\n\n10.0.0.2:3128\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	pool, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if pool.Len() != 2 {
		t.Errorf("Expected 2 proxies, got %d", pool.Len())
	}
	if p := pool.Next(); p != "10.0.0.1:8080" {
		t.Errorf("Expected first proxy, got %s", p)
	}
}

func TestProxyURL(t *testing.T) {
	if got := ProxyURL("1.2.3.4:80"); got != "http://1.2.3.4:80" {
		t.Errorf("got %s", got)
	}
	if got := ProxyURL("socks5://1.2.3.4:1080"); got != "socks5://1.2.3.4:1080" {
		t.Errorf("got %s", got)
	}
}
