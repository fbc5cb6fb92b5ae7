// Package domainrisk scores a hostname for phishing-oriented registration
// tricks: typosquatting, abused TLDs, keyword-stuffed subdomains,
// homoglyph/punycode impersonation, and generated-looking labels. Local
// signals are pure functions of the hostname; remote feed signals are
// supplied by the caller and only ever add to the score.
package domainrisk

import (
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/pagewarden/pagewarden/pkg/signatures"
)

// FeedAReport carries the malware-feed lookup result for a domain.
type FeedAReport struct {
	MaliciousCount int `json:"malicious_count"`
}

// FeedBReport carries the phishing-feed lookup result for a domain.
type FeedBReport struct {
	MatchCount int `json:"match_count"`
}

// RemoteSignals bundles optional reputation-feed results. A nil bundle or
// nil individual feed means "no data", never "clean".
type RemoteSignals struct {
	FeedA *FeedAReport `json:"feed_a,omitempty"`
	FeedB *FeedBReport `json:"feed_b,omitempty"`
}

// TyposquatResult describes the best brand-similarity match found.
type TyposquatResult struct {
	IsTyposquat  bool    `json:"is_typosquat"`
	LikelyTarget string  `json:"likely_target,omitempty"`
	Technique    string  `json:"technique,omitempty"`
	Confidence   float64 `json:"confidence"`
	Distance     int     `json:"distance,omitempty"`
}

// TLDResult flags suspicious top-level domains.
type TLDResult struct {
	TLD        string `json:"tld"`
	Suspicious bool   `json:"suspicious"`
	Reason     string `json:"reason,omitempty"`
}

// SubdomainResult records every suspicious subdomain finding, not just the
// first.
type SubdomainResult struct {
	Count      int      `json:"count"`
	Suspicious bool     `json:"suspicious"`
	Flags      []string `json:"flags,omitempty"`
}

// HomoglyphResult flags non-ASCII and punycode hostnames. Punycode is rated
// higher risk than plain non-ASCII.
type HomoglyphResult struct {
	Detected bool `json:"detected"`
	Punycode bool `json:"punycode"`
}

// BrandHit is one brand-impersonation finding in the base label.
type BrandHit struct {
	Brand      string  `json:"brand"`
	Kind       string  `json:"kind"` // "substring" or "hyphen_adjacent"
	Confidence float64 `json:"confidence"`
}

// BrandResult keeps all brand hits; Confidence is the max across them.
type BrandResult struct {
	Detected   bool       `json:"detected"`
	Hits       []BrandHit `json:"hits,omitempty"`
	Confidence float64    `json:"confidence"`
}

// EntropyResult rates the Shannon entropy of the base label.
type EntropyResult struct {
	Value float64 `json:"value"`
	Level string  `json:"level"` // "low", "medium", "high"
}

// Profile is the full per-domain analysis with its 0-100 risk score.
type Profile struct {
	Domain      string          `json:"domain"`
	Whitelisted bool            `json:"whitelisted"`
	Typosquat   TyposquatResult `json:"typosquat"`
	TLD         TLDResult       `json:"tld"`
	Subdomains  SubdomainResult `json:"subdomains"`
	Homoglyph   HomoglyphResult `json:"homoglyph"`
	Brand       BrandResult     `json:"brand"`
	Entropy     EntropyResult   `json:"entropy"`

	// Advisory-only lexical suspicion sub-score. Deliberately not part of
	// RiskScore; recommendation layers may surface it.
	SuspicionScore float64 `json:"suspicion_score"`

	Remote    *RemoteSignals `json:"remote,omitempty"`
	RiskScore int            `json:"risk_score"`
}

const cacheLimit = 256

// Analyzer computes domain profiles. The internal cache holds local-signal
// results only; it is a bounded optimization and correctness never depends
// on a hit. Remote contributions are applied per call.
type Analyzer struct {
	store *signatures.Store

	mu    sync.Mutex
	cache map[string]Profile
}

// NewAnalyzer creates an analyzer bound to a signature store, whose
// whitelist short-circuits known-good domains.
func NewAnalyzer(store *signatures.Store) *Analyzer {
	if store == nil {
		store = signatures.NewStore(nil)
	}
	return &Analyzer{
		store: store,
		cache: make(map[string]Profile, 64),
	}
}

// Analyze computes the profile for a hostname. remote may be nil; absent
// feeds simply contribute nothing.
func (a *Analyzer) Analyze(hostname string, remote *RemoteSignals) Profile {
	host := normalizeHost(hostname)

	p, ok := a.cached(host)
	if !ok {
		p = a.analyzeLocal(host)
		a.remember(host, p)
	}

	p.Remote = remote
	p.RiskScore = composeScore(p, remote)
	return p
}

func (a *Analyzer) cached(host string) (Profile, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.cache[host]
	return p, ok
}

func (a *Analyzer) remember(host string, p Profile) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.cache) >= cacheLimit {
		// Full reset keeps the bound without per-entry bookkeeping.
		a.cache = make(map[string]Profile, 64)
	}
	a.cache[host] = p
}

func (a *Analyzer) analyzeLocal(host string) Profile {
	p := Profile{Domain: host}

	doc := a.store.Current()
	for _, w := range doc.Whitelist {
		if host == w || strings.HasSuffix(host, "."+w) {
			p.Whitelisted = true
			p.Entropy.Level = "low"
			return p
		}
	}

	labels := splitLabels(host)
	base := baseLabel(labels)
	tld := topLevel(labels)

	p.Typosquat = detectTyposquat(base)
	p.TLD = checkTLD(tld)
	p.Subdomains = checkSubdomains(labels)
	p.Homoglyph = checkHomoglyph(host, labels)
	p.Brand = detectBrandImpersonation(base)
	p.Entropy = rateEntropy(base)
	p.SuspicionScore = suspicionScore(base)
	return p
}

// composeScore sums the independent local and remote contributions and
// clamps to 100.
func composeScore(p Profile, remote *RemoteSignals) int {
	if p.Whitelisted {
		return 0
	}

	score := 0
	if p.Typosquat.IsTyposquat && p.Typosquat.Confidence > 0.6 {
		score += 35
	}
	if p.Entropy.Value > 4 {
		score += 15
	}
	if p.Homoglyph.Punycode {
		score += 25
	}

	if remote != nil {
		if remote.FeedA != nil && remote.FeedA.MaliciousCount > 0 {
			score += 30
		}
		if remote.FeedB != nil && remote.FeedB.MatchCount > 0 {
			score += 30
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}

func normalizeHost(hostname string) string {
	h := strings.ToLower(strings.TrimSpace(hostname))
	h = strings.TrimSuffix(h, ".")
	if i := strings.IndexByte(h, ':'); i >= 0 {
		h = h[:i]
	}
	return norm.NFKC.String(h)
}

func splitLabels(host string) []string {
	if host == "" {
		return nil
	}
	return strings.Split(host, ".")
}

// baseLabel is the registrable label directly left of the TLD.
func baseLabel(labels []string) string {
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	default:
		return labels[len(labels)-2]
	}
}

func topLevel(labels []string) string {
	if len(labels) < 2 {
		return ""
	}
	return labels[len(labels)-1]
}
