package resolver

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Result holds the normalized outcome of a lookup for one IP address.
type Result struct {
	IP           string `json:"ip"`
	Organization string `json:"organization,omitempty"`
	Country      string `json:"country,omitempty"`
	City         string `json:"city,omitempty"`
	ASN          string `json:"asn,omitempty"`
	Network      string `json:"network,omitempty"`
	Registered   string `json:"registered,omitempty"`
	Source       string `json:"source"`
	OK           bool   `json:"ok"`
	Err          string `json:"error,omitempty"`
}

// Resolver looks up registry data for a single IP address.
type Resolver interface {
	Name() string
	Lookup(ctx context.Context, ip string) (Result, error)
}

// Options configure the resolvers of a chain.
type Options struct {
	Timeout    time.Duration
	RateLimit  time.Duration // floor for the per-resolver minimum spacing
	Retries    int
	Nameserver string // host[:port] used for PTR and Cymru TXT lookups
	WhoisPath  string // path to the whois binary, "" for $PATH lookup
}

// Per-resolver minimum spacing between outbound queries. The configured
// rate limit only ever raises these.
var defaultSpacing = map[string]time.Duration{
	"rdap":   1 * time.Second,
	"whois":  1500 * time.Millisecond,
	"rdns":   1500 * time.Millisecond,
	"system": 2 * time.Second,
}

// ChainFor returns the resolver chain for a lookup method. For "auto" the
// chain is rdap, whois, rdns, system in that order; any other method yields
// a single resolver. Each resolver is wrapped with rate limiting and retries.
func ChainFor(method string, opts Options) ([]Resolver, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	build := func(name string) Resolver {
		var r Resolver
		switch name {
		case "rdap":
			r = newRDAPResolver(opts)
		case "whois":
			r = newWhoisResolver(opts)
		case "rdns":
			r = newRDNSResolver(opts)
		case "system":
			r = newSystemResolver(opts)
		}
		return limit(r, spacingFor(name, opts.RateLimit), opts.Retries, opts.Timeout)
	}

	switch method {
	case "auto":
		return []Resolver{build("rdap"), build("whois"), build("rdns"), build("system")}, nil
	case "rdap", "whois", "rdns", "system":
		return []Resolver{build(method)}, nil
	}
	return nil, fmt.Errorf("unknown lookup method %q", method)
}

func spacingFor(name string, floor time.Duration) time.Duration {
	spacing := defaultSpacing[name]
	if floor > spacing {
		spacing = floor
	}
	return spacing
}

// limited serializes outbound queries of the wrapped resolver, bounds every
// attempt with the lookup timeout and retries transient failures. The
// limiter is shared across workers, so two concurrent lookups never hit the
// same backend within one spacing window.
type limited struct {
	inner   Resolver
	limiter *rate.Limiter
	retries int
	timeout time.Duration
}

func limit(r Resolver, spacing time.Duration, retries int, timeout time.Duration) Resolver {
	if retries < 0 {
		retries = 0
	}
	return &limited{
		inner:   r,
		limiter: rate.NewLimiter(rate.Every(spacing), 1),
		retries: retries,
		timeout: timeout,
	}
}

func (l *limited) Name() string { return l.inner.Name() }

func (l *limited) Lookup(ctx context.Context, ip string) (Result, error) {
	var lastErr error

	for attempt := 0; attempt <= l.retries; attempt++ {
		if attempt > 0 {
			log.Debugf("retry %d/%d for %s using %s", attempt, l.retries, ip, l.inner.Name())
			if err := sleepCtx(ctx, time.Duration(attempt)*2*time.Second); err != nil {
				return Result{}, err
			}
		}

		if err := l.limiter.Wait(ctx); err != nil {
			return Result{}, err
		}

		result, err := l.lookupOnce(ctx, ip)
		if err == nil {
			result.Source = l.inner.Name()
			result.OK = true
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		log.Warnf("lookup failed for %s using %s: %v", ip, l.inner.Name(), err)
	}

	return Result{}, fmt.Errorf("%s: %w", l.inner.Name(), lastErr)
}

// lookupOnce runs a single attempt under the lookup timeout. A timed-out
// attempt fails without canceling the caller's context, so the retry loop
// still gets its remaining attempts.
func (l *limited) lookupOnce(ctx context.Context, ip string) (Result, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	return l.inner.Lookup(ctx, ip)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
