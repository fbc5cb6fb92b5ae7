// Package telemetry keeps lightweight in-process counters for the gateway.
// Counters are exposed on the monitoring endpoint; nothing leaves the
// process.
package telemetry

import "sync/atomic"

// Counters tracks gateway activity. All methods are safe for concurrent use
// and safe on a nil receiver so callers never need to guard.
type Counters struct {
	assessments atomic.Int64
	highRisk    atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	feedErrors  atomic.Int64
	storeErrors atomic.Int64
}

var Global = &Counters{}

func (c *Counters) Assessment(level string) {
	if c == nil {
		return
	}
	c.assessments.Add(1)
	if level == "high" {
		c.highRisk.Add(1)
	}
}

func (c *Counters) CacheHit() {
	if c == nil {
		return
	}
	c.cacheHits.Add(1)
}

func (c *Counters) CacheMiss() {
	if c == nil {
		return
	}
	c.cacheMisses.Add(1)
}

func (c *Counters) FeedError() {
	if c == nil {
		return
	}
	c.feedErrors.Add(1)
}

func (c *Counters) StoreError() {
	if c == nil {
		return
	}
	c.storeErrors.Add(1)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Assessments int64 `json:"assessments"`
	HighRisk    int64 `json:"high_risk"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	FeedErrors  int64 `json:"feed_errors"`
	StoreErrors int64 `json:"store_errors"`
}

func (c *Counters) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	return Snapshot{
		Assessments: c.assessments.Load(),
		HighRisk:    c.highRisk.Load(),
		CacheHits:   c.cacheHits.Load(),
		CacheMisses: c.cacheMisses.Load(),
		FeedErrors:  c.feedErrors.Load(),
		StoreErrors: c.storeErrors.Load(),
	}
}
