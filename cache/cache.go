// Package cache persists lookup results on disk so repeat queries for the
// same IP never touch the network while an entry is fresh.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"

	"github.com/SamPlaysKeys/ip-whois-tool/resolver"
)

const (
	schemaVersion = 1

	recordPrefix = byte('r')
	metaVersion  = "meta|version"

	// DefaultTTL keeps registry data for a day; allocations rarely move
	// faster than that.
	DefaultTTL = 24 * time.Hour
)

var (
	recordLower = []byte{recordPrefix}
	recordUpper = []byte{recordPrefix + 1}

	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

// entry is the stored form of a cached lookup.
type entry struct {
	FetchedAt int64           `json:"fetched_at"`
	ExpiresAt int64           `json:"expires_at"`
	Result    resolver.Result `json:"result"`
}

// Cache is a Pebble-backed TTL store keyed by IP and lookup method.
type Cache struct {
	db  *pebble.DB
	dir string
	ttl time.Duration
}

// Open opens (or creates) the cache database under dir.
func Open(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache mkdir: %w", err)
	}

	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("cache open: %w", err)
	}

	c := &Cache{db: db, dir: dir, ttl: ttl}
	if err := c.checkSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) checkSchema() error {
	data, closer, err := c.db.Get([]byte(metaVersion))
	if err == nil {
		defer closer.Close()
		var version int
		if _, err := fmt.Sscanf(string(data), "%d", &version); err != nil {
			return fmt.Errorf("cache meta version: %w", err)
		}
		if version != schemaVersion {
			return fmt.Errorf("cache schema version %d unsupported (expected %d)", version, schemaVersion)
		}
		return nil
	}
	if !errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("cache meta read: %w", err)
	}
	return c.db.Set([]byte(metaVersion), []byte(fmt.Sprintf("%d", schemaVersion)), pebble.Sync)
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DefaultDir returns the per-user cache directory for the tool.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "ip-whois-tool"), nil
}

func recordKey(ip, method string) []byte {
	key := make([]byte, 0, len(ip)+len(method)+3)
	key = append(key, recordPrefix, '|')
	key = append(key, ip...)
	key = append(key, '|')
	key = append(key, method...)
	return key
}

// Get returns the cached result for ip under the given lookup method.
// Stale and undecodable entries count as misses.
func (c *Cache) Get(ip, method string, now time.Time) (resolver.Result, bool) {
	if c == nil || c.db == nil {
		return resolver.Result{}, false
	}

	key := recordKey(ip, method)
	data, closer, err := c.db.Get(key)
	if err != nil {
		if !errors.Is(err, pebble.ErrNotFound) {
			log.Warnf("cache read for %s failed: %v", ip, err)
		}
		return resolver.Result{}, false
	}
	defer closer.Close()

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		log.Warnf("corrupt cache entry for %s, dropping", ip)
		_ = c.db.Delete(key, pebble.NoSync)
		return resolver.Result{}, false
	}
	if e.ExpiresAt > 0 && now.Unix() > e.ExpiresAt {
		log.Debugf("cache entry for %s is stale", ip)
		return resolver.Result{}, false
	}
	return e.Result, true
}

// Put stores a result. Failures are logged, never fatal: a broken cache
// must not break lookups.
func (c *Cache) Put(ip, method string, result resolver.Result, now time.Time) {
	if c == nil || c.db == nil {
		return
	}

	e := entry{
		FetchedAt: now.Unix(),
		ExpiresAt: now.Add(c.ttl).Unix(),
		Result:    result,
	}
	data, err := json.Marshal(e)
	if err != nil {
		log.Warnf("could not encode cache entry for %s: %v", ip, err)
		return
	}
	if err := c.db.Set(recordKey(ip, method), data, pebble.Sync); err != nil {
		log.Warnf("could not cache result for %s: %v", ip, err)
	}
}

// CleanExpired deletes expired and undecodable entries and reports how
// many were removed.
func (c *Cache) CleanExpired(now time.Time) (int, error) {
	if c == nil || c.db == nil {
		return 0, nil
	}

	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: recordLower,
		UpperBound: recordUpper,
	})
	if err != nil {
		return 0, fmt.Errorf("cache iterate: %w", err)
	}

	var stale [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		var e entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			stale = append(stale, append([]byte(nil), iter.Key()...))
			continue
		}
		if e.ExpiresAt > 0 && now.Unix() > e.ExpiresAt {
			stale = append(stale, append([]byte(nil), iter.Key()...))
		}
	}
	if err := iter.Error(); err != nil {
		_ = iter.Close()
		return 0, fmt.Errorf("cache iterate: %w", err)
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}

	batch := c.db.NewBatch()
	defer batch.Close()
	for _, key := range stale {
		if err := batch.Delete(key, nil); err != nil {
			return 0, err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("cache clean commit: %w", err)
	}
	return len(stale), nil
}

// Stats summarizes cache usage for display.
type Stats struct {
	Entries  int
	DiskSize uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("%d entries, %s on disk", s.Entries, humanize.Bytes(s.DiskSize))
}

// Stat counts live entries and measures the database footprint.
func (c *Cache) Stat() (Stats, error) {
	if c == nil || c.db == nil {
		return Stats{}, nil
	}

	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: recordLower,
		UpperBound: recordUpper,
	})
	if err != nil {
		return Stats{}, err
	}
	defer iter.Close()

	var stats Stats
	for iter.First(); iter.Valid(); iter.Next() {
		stats.Entries++
	}
	if err := iter.Error(); err != nil {
		return Stats{}, err
	}

	err = filepath.Walk(c.dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			stats.DiskSize += uint64(info.Size())
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}
