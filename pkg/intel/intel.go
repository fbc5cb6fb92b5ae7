// Package intel queries external reputation feeds for a domain. Feed
// results only ever add risk; any lookup failure degrades to "no data" so
// an outage can never block or inflate an assessment.
package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pagewarden/pagewarden/pkg/domainrisk"
	"github.com/pagewarden/pagewarden/pkg/httputil"
	"github.com/pagewarden/pagewarden/pkg/telemetry"
)

// Client talks to the configured reputation feeds. Either URL may be empty
// to disable that feed.
type Client struct {
	feedAURL string
	feedBURL string
	apiKey   string

	http     *http.Client
	sem      *httputil.Semaphore
	counters *telemetry.Counters
}

// New creates a feed client. Lookups share the pooled HTTP transport under
// the given timeout (non-positive means the 5s fast tier) and are capped by
// a semaphore so a slow feed cannot pile up goroutines.
func New(feedAURL, feedBURL, apiKey string, timeout time.Duration, counters *telemetry.Counters) *Client {
	return &Client{
		feedAURL: feedAURL,
		feedBURL: feedBURL,
		apiKey:   apiKey,
		http:     httputil.ClientWithTimeout(timeout),
		sem:      httputil.NewSemaphore(32),
		counters: counters,
	}
}

// Enabled reports whether at least one feed is configured.
func (c *Client) Enabled() bool {
	return c != nil && (c.feedAURL != "" || c.feedBURL != "")
}

// Lookup queries both feeds concurrently. A nil return means no remote data
// was available; partial results carry whichever feed answered.
func (c *Client) Lookup(ctx context.Context, domain string) *domainrisk.RemoteSignals {
	if !c.Enabled() {
		return nil
	}
	if !c.sem.TryAcquire() {
		log.Printf("[INTEL] lookup capacity exhausted, skipping %s", domain)
		return nil
	}
	defer c.sem.Release()

	signals := &domainrisk.RemoteSignals{}
	var wg sync.WaitGroup

	if c.feedAURL != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var report domainrisk.FeedAReport
			if err := c.query(ctx, c.feedAURL, domain, &report); err != nil {
				log.Printf("[INTEL] feed A lookup for %s: %v", domain, err)
				c.counters.FeedError()
				return
			}
			signals.FeedA = &report
		}()
	}
	if c.feedBURL != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var report domainrisk.FeedBReport
			if err := c.query(ctx, c.feedBURL, domain, &report); err != nil {
				log.Printf("[INTEL] feed B lookup for %s: %v", domain, err)
				c.counters.FeedError()
				return
			}
			signals.FeedB = &report
		}()
	}
	wg.Wait()

	if signals.FeedA == nil && signals.FeedB == nil {
		return nil
	}
	return signals
}

func (c *Client) query(ctx context.Context, endpoint, domain string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		endpoint+"?domain="+url.QueryEscape(domain), nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := httputil.ReadErrorBody(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	raw, err := httputil.ReadResponseBody(resp.Body, httputil.MaxResponseSize)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
