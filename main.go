package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	log "github.com/sirupsen/logrus"

	"github.com/SamPlaysKeys/ip-whois-tool/cache"
	"github.com/SamPlaysKeys/ip-whois-tool/config"
	"github.com/SamPlaysKeys/ip-whois-tool/engine"
	"github.com/SamPlaysKeys/ip-whois-tool/resolver"
)

const version string = "0.2.1"

var (
	showVersion = kingpin.Flag("version", "Print version information").Bool()
	ipFlags     = kingpin.Flag("ip", "IP address to look up (can be specified multiple times)").Short('i').Strings()
	ipFile      = kingpin.Flag("file", "File containing IP addresses (one per line)").Short('f').String()
	outputFile  = kingpin.Flag("output", "Output file path").Short('o').String()
	format      = kingpin.Flag("format", "Output format. Valid choices: [csv, json, text]").Default("csv").String()
	verbose     = kingpin.Flag("verbose", "Show verbose output").Short('v').Bool()

	lookupMethod  = kingpin.Flag("lookup-method", "WHOIS lookup method. Valid choices: [auto, rdap, whois, rdns, system]").Default("auto").String()
	forceSystem   = kingpin.Flag("force-system-whois", "Force use of the system whois command").Bool()
	noCache       = kingpin.Flag("no-cache", "Disable caching of results").Bool()
	timeout       = kingpin.Flag("timeout", "Timeout for WHOIS lookups").Default("30s").Duration()
	rateLimit     = kingpin.Flag("rate-limit", "Minimum time between requests per resolver").Default("1s").Duration()
	retries       = kingpin.Flag("retries", "Number of retries per resolver after a failed lookup").Default("2").Int()
	noParallel    = kingpin.Flag("no-parallel", "Disable parallel processing").Bool()
	maxWorkers    = kingpin.Flag("max-workers", "Maximum number of concurrent lookups").Default("8").Int()
	cleanCache    = kingpin.Flag("clean-cache", "Clean expired cache entries before running").Bool()
	configFile    = kingpin.Flag("config.path", "Path to config file").Default("").String()
	cacheDir      = kingpin.Flag("cache.dir", "Cache directory (defaults to the user cache dir)").Default("").String()
	cacheTTL      = kingpin.Flag("cache.ttl", "Lifetime of cache entries").Default("24h").Duration()
	dnsNameServer = kingpin.Flag("dns.nameserver", "DNS server used for reverse and origin lookups").Default("").String()
	logLevel      = kingpin.Flag("log.level", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error, fatal]").Default("info").String()
)

func main() {
	kingpin.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *verbose {
		*logLevel = "debug"
	}
	setLogLevel(*logLevel)

	cfg, err := loadConfig()
	if err != nil {
		kingpin.FatalUsage("could not load config.path: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		kingpin.FatalUsage("%v", err)
	}

	c, err := openCache(cfg)
	if err != nil {
		log.Warnf("cache disabled: %v", err)
	}
	defer c.Close()

	if *cleanCache {
		if err := cleanExpiredEntries(cfg, c); err != nil {
			log.Errorln(err)
			os.Exit(1)
		}
	}

	ips, err := gatherIPs()
	if err != nil {
		log.Errorln(err)
		os.Exit(1)
	}
	if len(ips) == 0 {
		if *cleanCache {
			os.Exit(0)
		}
		kingpin.FatalUsage("at least one IP address or a file must be specified")
	}

	log.Infof("ip-whois-tool %s, lookup method %s, %d addresses", version, cfg.Lookup.Method, len(ips))

	chain, err := resolver.ChainFor(cfg.Lookup.Method, resolver.Options{
		Timeout:    cfg.Lookup.Timeout.Duration(),
		RateLimit:  cfg.Lookup.RateLimit.Duration(),
		Retries:    *cfg.Lookup.Retries,
		Nameserver: cfg.DNS.Nameserver,
	})
	if err != nil {
		kingpin.FatalUsage("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := engine.New(chain, c, cfg.Lookup.Method, cfg.Workers.Max, !cfg.Workers.NoParallel)
	results := e.Process(ctx, ips)

	if ctx.Err() != nil {
		log.Warn("operation canceled")
		os.Exit(130)
	}
	if len(results) == 0 {
		log.Warn("no results found")
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := writeOutput(results, *outputFile, cfg.Output.Format); err != nil {
			log.Errorln(err)
			os.Exit(1)
		}
		log.Infof("wrote %d results to %s", len(results), *outputFile)
	} else {
		renderConsole(os.Stdout, results, *verbose)
	}
}

func printVersion() {
	fmt.Println("ip-whois-tool")
	fmt.Printf("Version: %s\n", version)
	fmt.Println("WHOIS/RDAP lookup tool for IP addresses")
	fmt.Printf("Resolvers: %s\n", strings.Join(config.Methods[1:], ", "))
}

func loadConfig() (*config.Config, error) {
	if *configFile == "" {
		cfg := &config.Config{}
		addFlagToConfig(cfg)

		return cfg, nil
	}

	f, err := os.Open(*configFile)
	if err != nil {
		return nil, fmt.Errorf("cannot load config file: %w", err)
	}
	defer f.Close()

	cfg, err := config.FromYAML(f)
	if err == nil {
		addFlagToConfig(cfg)
	}

	return cfg, err
}

// addFlagToConfig updates cfg with command line flag values, unless the
// config has non-zero values.
func addFlagToConfig(cfg *config.Config) {
	if cfg.Lookup.Method == "" {
		cfg.Lookup.Method = *lookupMethod
	}
	if *forceSystem {
		cfg.Lookup.Method = "system"
	}
	if cfg.Lookup.Timeout.Duration() == 0 {
		cfg.Lookup.Timeout.Set(*timeout)
	}
	if cfg.Lookup.RateLimit.Duration() == 0 {
		cfg.Lookup.RateLimit.Set(*rateLimit)
	}
	if cfg.Lookup.Retries == nil {
		cfg.Lookup.Retries = retries
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = *cacheDir
	}
	if cfg.Cache.TTL.Duration() == 0 {
		cfg.Cache.TTL.Set(*cacheTTL)
	}
	if *noCache {
		cfg.Cache.Disabled = true
	}
	if cfg.Workers.Max == 0 {
		cfg.Workers.Max = *maxWorkers
	}
	if *noParallel {
		cfg.Workers.NoParallel = true
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = *format
	}
	if cfg.DNS.Nameserver == "" {
		cfg.DNS.Nameserver = *dnsNameServer
	}
}

// openCache returns nil (caching off) when disabled or unusable; lookups
// still work without it.
func openCache(cfg *config.Config) (*cache.Cache, error) {
	if cfg.Cache.Disabled {
		return nil, nil
	}
	return openCacheStore(cfg)
}

func openCacheStore(cfg *config.Config) (*cache.Cache, error) {
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		dir, err = cache.DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	return cache.Open(dir, cfg.Cache.TTL.Duration())
}

// cleanExpiredEntries sweeps the on-disk store. With --no-cache the store
// is opened just for the sweep, so the clean still happens.
func cleanExpiredEntries(cfg *config.Config, c *cache.Cache) error {
	store := c
	if store == nil {
		var err error
		store, err = openCacheStore(cfg)
		if err != nil {
			return fmt.Errorf("cannot clean cache: %w", err)
		}
		defer store.Close()
	}

	cleaned, err := store.CleanExpired(time.Now())
	if err != nil {
		return err
	}
	log.Infof("cleaned %d expired cache entries", cleaned)
	if stats, err := store.Stat(); err == nil {
		log.Infof("cache: %s", stats)
	}
	return nil
}

// gatherIPs collects addresses from -i flags and the optional input file,
// in that order. Blank lines are ignored.
func gatherIPs() ([]string, error) {
	ips := append([]string{}, *ipFlags...)

	if *ipFile != "" {
		f, err := os.Open(*ipFile)
		if err != nil {
			return nil, fmt.Errorf("cannot read IP file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				ips = append(ips, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("cannot read IP file: %w", err)
		}
	}

	return ips, nil
}
