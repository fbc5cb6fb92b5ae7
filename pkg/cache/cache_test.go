package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/pagewarden/pagewarden/pkg/domainrisk"
	"github.com/pagewarden/pagewarden/pkg/telemetry"
)

func newTestCache(t *testing.T) (*DomainCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, 45*time.Minute, &telemetry.Counters{}), mr
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "micros0ft.com"); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	want := domainrisk.Profile{
		Domain:    "micros0ft.com",
		RiskScore: 35,
		Typosquat: domainrisk.TyposquatResult{
			IsTyposquat:  true,
			LikelyTarget: "microsoft",
			Technique:    "character_substitution",
			Confidence:   0.85,
		},
	}
	c.Set(ctx, "micros0ft.com", want)

	got, ok := c.Get(ctx, "micros0ft.com")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got.RiskScore != want.RiskScore || got.Typosquat.LikelyTarget != "microsoft" {
		t.Errorf("got %+v", got)
	}
}

func TestCacheTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "evil.tk", domainrisk.Profile{Domain: "evil.tk", RiskScore: 60})
	mr.FastForward(46 * time.Minute)

	if _, ok := c.Get(ctx, "evil.tk"); ok {
		t.Error("entry survived past TTL")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "evil.tk", domainrisk.Profile{Domain: "evil.tk", RiskScore: 60})
	c.Invalidate(ctx, "evil.tk")

	if _, ok := c.Get(ctx, "evil.tk"); ok {
		t.Error("entry survived invalidation")
	}
}

func TestCacheCorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := mr.Set(keyPrefix+"bad.example", "{not json"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "bad.example"); ok {
		t.Error("corrupt entry returned as hit")
	}
}

func TestNilClientIsNoop(t *testing.T) {
	c := New(nil, 45*time.Minute, nil)
	ctx := context.Background()

	c.Set(ctx, "a.example", domainrisk.Profile{})
	c.Invalidate(ctx, "a.example")
	if _, ok := c.Get(ctx, "a.example"); ok {
		t.Error("nil-client cache returned a hit")
	}

	var nilCache *DomainCache
	if _, ok := nilCache.Get(ctx, "a.example"); ok {
		t.Error("nil cache returned a hit")
	}
}

func TestTTLClamped(t *testing.T) {
	c := New(nil, time.Minute, nil)
	if c.ttl != 45*time.Minute {
		t.Errorf("ttl = %v, want clamp to 45m", c.ttl)
	}
}
