// Package httputil provides shared HTTP utilities with connection pooling
// and safe response handling for the PageWarden gateway.
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseSize is the default maximum size for reading HTTP response
// bodies. Reputation feeds are third-party services; never trust them with
// unbounded reads.
const MaxResponseSize = 4 * 1024 * 1024 // 4MB

// Shared transport with connection pooling. Safe for concurrent use; feed
// lookups reuse TCP connections across assessments.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          64,
	MaxIdleConnsPerHost:   8,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// TimeoutTier defines standard timeout categories for different operation types.
type TimeoutTier int

const (
	// TierFast for reputation-feed lookups sitting on the assessment path (5s)
	TierFast TimeoutTier = iota
	// TierStandard for non-latency-critical calls like signature refreshes (30s)
	TierStandard
)

var timeoutDurations = map[TimeoutTier]time.Duration{
	TierFast:     5 * time.Second,
	TierStandard: 30 * time.Second,
}

// Singleton clients per tier - initialized once, reused everywhere.
var (
	clientFast     *http.Client
	clientStandard *http.Client
	clientOnce     sync.Once
)

func initClients() {
	clientFast = &http.Client{
		Timeout:   timeoutDurations[TierFast],
		Transport: sharedTransport,
	}
	clientStandard = &http.Client{
		Timeout:   timeoutDurations[TierStandard],
		Transport: sharedTransport,
	}
}

// Client returns a shared HTTP client for the given timeout tier. These
// clients share a connection pool and should be used instead of creating
// new http.Client instances per request.
func Client(tier TimeoutTier) *http.Client {
	clientOnce.Do(initClients)
	if tier == TierFast {
		return clientFast
	}
	return clientStandard
}

// FastClient returns a client with a 5s timeout (feed lookups, health checks).
func FastClient() *http.Client {
	return Client(TierFast)
}

// StandardClient returns a client with a 30s timeout.
func StandardClient() *http.Client {
	return Client(TierStandard)
}

// ClientWithTimeout returns a client on the shared transport with the given
// timeout. Durations matching a tier reuse that tier's singleton; anything
// non-positive falls back to the fast tier.
func ClientWithTimeout(d time.Duration) *http.Client {
	switch {
	case d <= 0, d == timeoutDurations[TierFast]:
		return FastClient()
	case d == timeoutDurations[TierStandard]:
		return StandardClient()
	}
	return &http.Client{
		Timeout:   d,
		Transport: sharedTransport,
	}
}

// ReadResponseBody safely reads an HTTP response body with a size limit.
func ReadResponseBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadErrorBody reads the response body for error messages with a smaller
// limit, since error payloads should never be large.
func ReadErrorBody(r io.Reader) ([]byte, error) {
	const maxErrorSize = 256 * 1024
	return io.ReadAll(io.LimitReader(r, maxErrorSize))
}

// DrainAndClose drains and closes an HTTP response body so the underlying
// connection returns to the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
