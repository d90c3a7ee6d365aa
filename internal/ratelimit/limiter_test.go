package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestDomainLimiter_PacesSameHost(t *testing.T) {
	lim := NewDomainLimiter(50*time.Millisecond, 1)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := lim.Wait(ctx, "https://analytical360.com/m/archived/1"); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}

	// first token is free, the next two wait one interval each
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("Expected pacing of ~100ms, got %v", elapsed)
	}
}

func TestDomainLimiter_HostsAreIndependent(t *testing.T) {
	lim := NewDomainLimiter(time.Hour, 1)

	if !lim.Allow("https://a.example.com/x") {
		t.Error("First request to a host should be allowed")
	}
	if lim.Allow("https://a.example.com/y") {
		t.Error("Second request to the same host should be paced")
	}
	if !lim.Allow("https://b.example.com/x") {
		t.Error("Other hosts should have their own bucket")
	}
}

func TestDomainLimiter_ZeroIntervalDisablesPacing(t *testing.T) {
	lim := NewDomainLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !lim.Allow("https://a.example.com/") {
			t.Fatalf("Request %d was paced with pacing disabled", i)
		}
	}
}

func TestDomainLimiter_WaitHonorsContext(t *testing.T) {
	lim := NewDomainLimiter(time.Hour, 1)
	lim.Allow("https://a.example.com/")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := lim.Wait(ctx, "https://a.example.com/"); err == nil {
		t.Error("Expected Wait to fail when the context expires first")
	}
}
