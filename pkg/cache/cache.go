// Package cache stores computed domain profiles in Redis with a TTL so
// repeated assessments of the same domain skip the feed lookups. The cache
// is strictly an optimization: every operation degrades to a miss when
// Redis is absent or unreachable.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pagewarden/pagewarden/pkg/domainrisk"
	"github.com/pagewarden/pagewarden/pkg/telemetry"
)

const keyPrefix = "pagewarden:domain:"

// DomainCache wraps a Redis client. A nil client yields a no-op cache.
type DomainCache struct {
	rdb      *redis.Client
	ttl      time.Duration
	counters *telemetry.Counters
}

// New creates a domain cache. ttl outside the 30-60 minute window is
// clamped to 45 minutes.
func New(rdb *redis.Client, ttl time.Duration, counters *telemetry.Counters) *DomainCache {
	if ttl < 30*time.Minute || ttl > 60*time.Minute {
		ttl = 45 * time.Minute
	}
	return &DomainCache{rdb: rdb, ttl: ttl, counters: counters}
}

// Get returns the cached profile for a domain, or ok=false on miss,
// disabled cache, or any Redis error.
func (c *DomainCache) Get(ctx context.Context, domain string) (domainrisk.Profile, bool) {
	var p domainrisk.Profile
	if c == nil || c.rdb == nil {
		return p, false
	}

	raw, err := c.rdb.Get(ctx, keyPrefix+domain).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[CACHE] get %s: %v", domain, err)
		}
		c.counters.CacheMiss()
		return p, false
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Printf("[CACHE] corrupt entry for %s: %v", domain, err)
		c.counters.CacheMiss()
		return p, false
	}
	c.counters.CacheHit()
	return p, true
}

// Set stores a profile under the domain key. Errors are logged, never
// returned: a failed write only costs a future recomputation.
func (c *DomainCache) Set(ctx context.Context, domain string, p domainrisk.Profile) {
	if c == nil || c.rdb == nil {
		return
	}

	raw, err := json.Marshal(p)
	if err != nil {
		log.Printf("[CACHE] marshal %s: %v", domain, err)
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+domain, raw, c.ttl).Err(); err != nil {
		log.Printf("[CACHE] set %s: %v", domain, err)
	}
}

// Invalidate drops the cached profile, used after a signature reload makes
// cached scores stale.
func (c *DomainCache) Invalidate(ctx context.Context, domain string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, keyPrefix+domain).Err(); err != nil {
		log.Printf("[CACHE] invalidate %s: %v", domain, err)
	}
}
