package main

import (
	"testing"
	"time"

	"github.com/SamPlaysKeys/ip-whois-tool/cache"
	"github.com/SamPlaysKeys/ip-whois-tool/config"
	"github.com/SamPlaysKeys/ip-whois-tool/resolver"
)

func TestCleanExpiredEntriesWithCachingDisabled(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	c, err := cache.Open(dir, time.Minute)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	c.Put("192.0.2.1", "auto", resolver.Result{IP: "192.0.2.1", OK: true}, now.Add(-2*time.Minute))
	c.Put("192.0.2.2", "auto", resolver.Result{IP: "192.0.2.2", OK: true}, now)
	if err := c.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.Cache.Disabled = true
	cfg.Cache.Dir = dir
	cfg.Cache.TTL.Set(time.Minute)

	if err := cleanExpiredEntries(cfg, nil); err != nil {
		t.Fatalf("clean failed: %v", err)
	}

	c, err = cache.Open(dir, time.Minute)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer c.Close()

	stats, err := c.Stat()
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if stats.Entries != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", stats.Entries)
	}
}
