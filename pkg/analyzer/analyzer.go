// Package analyzer orchestrates one page assessment: it fans the page text
// and fragments out to the detectors, resolves the domain profile through
// cache and feeds, and folds everything into a composite verdict.
package analyzer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pagewarden/pagewarden/pkg/aitext"
	"github.com/pagewarden/pagewarden/pkg/cache"
	"github.com/pagewarden/pagewarden/pkg/composite"
	"github.com/pagewarden/pagewarden/pkg/config"
	"github.com/pagewarden/pagewarden/pkg/domainrisk"
	"github.com/pagewarden/pagewarden/pkg/fingerprint"
	"github.com/pagewarden/pagewarden/pkg/httputil"
	"github.com/pagewarden/pagewarden/pkg/intel"
	"github.com/pagewarden/pagewarden/pkg/jailbreak"
	"github.com/pagewarden/pagewarden/pkg/signatures"
	"github.com/pagewarden/pagewarden/pkg/storage"
	"github.com/pagewarden/pagewarden/pkg/telemetry"
)

// Request is one page to assess. Domain and Fragments are optional; absent
// inputs simply contribute nothing.
type Request struct {
	Text      string               `json:"text"`
	Domain    string               `json:"domain,omitempty"`
	Fragments []jailbreak.Fragment `json:"fragments,omitempty"`
}

// Assessment is the full verdict returned to the caller.
type Assessment struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	AIText      aitext.Result       `json:"ai_text"`
	Fingerprint fingerprint.Result  `json:"fingerprint"`
	Jailbreak   jailbreak.Result    `json:"jailbreak"`
	DomainRisk  *domainrisk.Profile `json:"domain_risk,omitempty"`

	Composite composite.Assessment `json:"composite"`

	// Degraded marks a verdict scored without remote feed data while feeds
	// were configured. Only set under the "flag" fallback behavior.
	Degraded bool `json:"degraded,omitempty"`
}

// Engine wires the detectors to their collaborators. All fields are set at
// construction; Assess is safe for concurrent use.
type Engine struct {
	store    *signatures.Store
	aitext   *aitext.Scorer
	finger   *fingerprint.Detector
	scanner  *jailbreak.Scanner
	domains  *domainrisk.Analyzer
	cache    *cache.DomainCache
	feeds    *intel.Client
	storage  *storage.Store
	counters *telemetry.Counters
	sem      *httputil.Semaphore
	fallback config.FallbackBehavior
}

// Options carries the optional collaborators. Zero value disables them all.
type Options struct {
	Cache          *cache.DomainCache
	Feeds          *intel.Client
	Storage        *storage.Store
	Counters       *telemetry.Counters
	MaxConcurrency int
	Fallback       config.FallbackBehavior
}

// New builds an engine on a shared signature store.
func New(store *signatures.Store, opts Options) *Engine {
	if store == nil {
		store = signatures.NewStore(nil)
	}
	return &Engine{
		store:    store,
		aitext:   aitext.NewScorer(store),
		finger:   fingerprint.NewDetector(store),
		scanner:  jailbreak.NewScanner(store),
		domains:  domainrisk.NewAnalyzer(store),
		cache:    opts.Cache,
		feeds:    opts.Feeds,
		storage:  opts.Storage,
		counters: opts.Counters,
		sem:      httputil.NewSemaphore(opts.MaxConcurrency),
		fallback: opts.Fallback,
	}
}

// Assess runs the full pipeline for one page.
func (e *Engine) Assess(ctx context.Context, req Request) (Assessment, error) {
	if err := e.sem.Acquire(ctx); err != nil {
		return Assessment{}, err
	}
	defer e.sem.Release()

	a := Assessment{
		ID:        uuid.NewString(),
		Domain:    req.Domain,
		CreatedAt: time.Now().UTC(),
	}

	text := truncate(req.Text, int(e.store.Current().Threshold("max_text_length", 20000)))

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		a.AIText = e.aitext.Analyze(text)
	}()
	go func() {
		defer wg.Done()
		a.Fingerprint = e.finger.Analyze(text)
	}()
	go func() {
		defer wg.Done()
		a.Jailbreak = e.scanner.Scan(req.Domain, req.Fragments)
	}()
	if req.Domain != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, degraded := e.domainProfile(ctx, req.Domain)
			a.DomainRisk = &p
			if degraded && e.fallback == config.FallbackFlag {
				a.Degraded = true
			}
		}()
	}
	wg.Wait()

	a.Composite = composite.Aggregate(e.metrics(a))
	e.counters.Assessment(string(a.Composite.Level))

	if err := e.persist(ctx, a); err != nil {
		log.Printf("[WARN] assessment %s not persisted: %v", a.ID, err)
	}
	return a, nil
}

// domainProfile resolves a domain through cache, feeds, then local
// analysis. Cache and feeds are both optional and both allowed to fail; the
// second return reports that configured feeds produced no data.
func (e *Engine) domainProfile(ctx context.Context, domain string) (domainrisk.Profile, bool) {
	if p, ok := e.cache.Get(ctx, domain); ok {
		return p, false
	}

	var remote *domainrisk.RemoteSignals
	degraded := false
	if e.feeds.Enabled() {
		remote = e.feeds.Lookup(ctx, domain)
		degraded = remote == nil
	}

	p := e.domains.Analyze(domain, remote)
	e.cache.Set(ctx, domain, p)
	return p, degraded
}

func (e *Engine) metrics(a Assessment) composite.Metrics {
	m := composite.Metrics{
		AIProbability: a.AIText.AIProbability,
		AIConfidence:  a.AIText.Confidence,
		Urgency:       a.AIText.Urgency,
		Persuasion:    a.AIText.Persuasion,

		FingerprintScore:       a.Fingerprint.Score,
		RiskFactors:            len(a.Fingerprint.RiskFactors),
		ManipulationTechniques: len(a.AIText.Techniques),

		Credibility: a.AIText.Credibility,

		JailbreakHits:        a.Jailbreak.TotalHits,
		JailbreakCritical:    a.Jailbreak.CriticalHits,
		JailbreakAnyCritical: a.Jailbreak.CriticalHits > 0,
	}

	for _, rf := range a.Fingerprint.RiskFactors {
		if rf.Severity == signatures.SeverityCritical {
			m.CriticalRiskFactors++
		}
	}
	for _, tech := range a.AIText.Techniques {
		if tech.Severity.Rank() >= signatures.SeverityHigh.Rank() {
			m.HighSeverityTechniques++
		}
	}

	if a.DomainRisk != nil {
		m.DomainRisk = a.DomainRisk.RiskScore
		if a.DomainRisk.Typosquat.IsTyposquat {
			m.TyposquatConfidence = a.DomainRisk.Typosquat.Confidence
		}
	}
	return m
}

func (e *Engine) persist(ctx context.Context, a Assessment) error {
	domainRisk := 0
	if a.DomainRisk != nil {
		domainRisk = a.DomainRisk.RiskScore
	}
	return e.storage.Save(ctx, storage.Record{
		ID:            a.ID,
		Domain:        a.Domain,
		Level:         string(a.Composite.Level),
		Total:         a.Composite.Total,
		SignalCount:   a.Composite.SignalCount,
		AIProbability: a.AIText.AIProbability,
		DomainRisk:    domainRisk,
		JailbreakHits: a.Jailbreak.TotalHits,
		CreatedAt:     a.CreatedAt,
	})
}

// truncate cuts text at the configured limit without splitting a UTF-8
// sequence.
func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := text[:limit]
	for len(cut) > 0 && cut[len(cut)-1]&0xC0 == 0x80 {
		cut = cut[:len(cut)-1]
	}
	return cut
}
