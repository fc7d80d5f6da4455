// Package engine coordinates cached lookups over a resolver chain and
// fans batches out to a bounded worker pool.
package engine

import (
	"context"
	"net/netip"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/SamPlaysKeys/ip-whois-tool/cache"
	"github.com/SamPlaysKeys/ip-whois-tool/resolver"
)

// Engine runs lookups through a fixed resolver chain with an optional
// cache in front.
type Engine struct {
	chain    []resolver.Resolver
	cache    *cache.Cache
	method   string
	workers  int
	parallel bool
}

// New builds an engine. cache may be nil to disable caching.
func New(chain []resolver.Resolver, c *cache.Cache, method string, workers int, parallel bool) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		chain:    chain,
		cache:    c,
		method:   method,
		workers:  workers,
		parallel: parallel,
	}
}

// Lookup resolves a single IP. The chain is walked in order and stops at
// the first resolver that succeeds; if every resolver fails the returned
// result is a failure record rather than an error, so batches keep going.
func (e *Engine) Lookup(ctx context.Context, ip string) resolver.Result {
	now := time.Now()

	if cached, ok := e.cache.Get(ip, e.method, now); ok {
		log.Debugf("cache hit for %s", ip)
		return cached
	}

	var errs []string
	for _, r := range e.chain {
		log.Debugf("trying %s for %s", r.Name(), ip)
		result, err := r.Lookup(ctx, ip)
		if err == nil {
			e.cache.Put(ip, e.method, result, now)
			return result
		}
		errs = append(errs, err.Error())
		if ctx.Err() != nil {
			break
		}
	}

	log.Errorf("all lookup methods failed for %s", ip)
	return resolver.Result{
		IP:  ip,
		OK:  false,
		Err: strings.Join(errs, "; "),
	}
}

// Process resolves a batch of IPs. Invalid inputs are rejected with a
// warning; every valid input yields exactly one result, in input order.
func (e *Engine) Process(ctx context.Context, ips []string) []resolver.Result {
	valid := filterValid(ips)
	if len(valid) == 0 {
		log.Warn("no valid IP addresses to process")
		return nil
	}

	if !e.parallel || len(valid) == 1 {
		log.Infof("processing %d IPs sequentially", len(valid))
		results := make([]resolver.Result, 0, len(valid))
		for _, ip := range valid {
			if ctx.Err() != nil {
				break
			}
			results = append(results, e.Lookup(ctx, ip))
		}
		return results
	}

	log.Infof("processing %d IPs with %d workers", len(valid), e.workers)
	results := make([]resolver.Result, len(valid))
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup

	for i, ip := range valid {
		wg.Add(1)
		go func(i int, ip string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = e.Lookup(ctx, ip)
		}(i, ip)
	}
	wg.Wait()

	return results
}

func filterValid(ips []string) []string {
	valid := make([]string, 0, len(ips))
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip == "" {
			continue
		}
		if _, err := netip.ParseAddr(ip); err != nil {
			log.Warnf("skipping invalid IP address: %s", ip)
			continue
		}
		valid = append(valid, ip)
	}
	return valid
}
