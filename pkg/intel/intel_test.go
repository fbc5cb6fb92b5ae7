package intel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pagewarden/pagewarden/pkg/telemetry"
)

func TestLookupBothFeeds(t *testing.T) {
	feedA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("domain") != "evil.tk" {
			t.Errorf("feed A got domain %q", r.URL.Query().Get("domain"))
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("feed A got auth %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"malicious_count": 2}`))
	}))
	defer feedA.Close()

	feedB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"match_count": 1}`))
	}))
	defer feedB.Close()

	c := New(feedA.URL, feedB.URL, "secret", 0, &telemetry.Counters{})
	signals := c.Lookup(context.Background(), "evil.tk")
	if signals == nil {
		t.Fatal("expected signals")
	}
	if signals.FeedA == nil || signals.FeedA.MaliciousCount != 2 {
		t.Errorf("feed A = %+v", signals.FeedA)
	}
	if signals.FeedB == nil || signals.FeedB.MatchCount != 1 {
		t.Errorf("feed B = %+v", signals.FeedB)
	}
}

func TestLookupPartialFailure(t *testing.T) {
	feedA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer feedA.Close()

	feedB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"match_count": 3}`))
	}))
	defer feedB.Close()

	counters := &telemetry.Counters{}
	c := New(feedA.URL, feedB.URL, "secret", 0, counters)
	signals := c.Lookup(context.Background(), "evil.tk")
	if signals == nil {
		t.Fatal("expected partial signals")
	}
	if signals.FeedA != nil {
		t.Errorf("failed feed A should be nil, got %+v", signals.FeedA)
	}
	if signals.FeedB == nil || signals.FeedB.MatchCount != 3 {
		t.Errorf("feed B = %+v", signals.FeedB)
	}
	if counters.Snapshot().FeedErrors != 1 {
		t.Errorf("feed errors = %d, want 1", counters.Snapshot().FeedErrors)
	}
}

func TestLookupAllFailedReturnsNil(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer down.Close()

	c := New(down.URL, down.URL, "secret", 0, &telemetry.Counters{})
	if signals := c.Lookup(context.Background(), "evil.tk"); signals != nil {
		t.Errorf("expected nil signals, got %+v", signals)
	}
}

func TestLookupDisabled(t *testing.T) {
	c := New("", "", "", 0, nil)
	if c.Enabled() {
		t.Error("client with no URLs reports enabled")
	}
	if signals := c.Lookup(context.Background(), "evil.tk"); signals != nil {
		t.Errorf("disabled client returned %+v", signals)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Error("nil client reports enabled")
	}
}

func TestLookupConfiguredTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"malicious_count": 1}`))
	}))
	defer slow.Close()

	counters := &telemetry.Counters{}
	c := New(slow.URL, "", "secret", 20*time.Millisecond, counters)
	if signals := c.Lookup(context.Background(), "evil.tk"); signals != nil {
		t.Errorf("slow feed beat the configured timeout: %+v", signals)
	}
	if counters.Snapshot().FeedErrors != 1 {
		t.Errorf("feed errors = %d, want 1", counters.Snapshot().FeedErrors)
	}
}

func TestLookupMalformedResponse(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer bad.Close()

	c := New(bad.URL, "", "secret", 0, &telemetry.Counters{})
	if signals := c.Lookup(context.Background(), "evil.tk"); signals != nil {
		t.Errorf("malformed feed payload returned %+v", signals)
	}
}
