// Package jailbreak scans page-derived text fragments (script bodies, event
// handler attributes, flagged data attributes) for prompt-injection and
// jailbreak payloads. Scoring is category-weighted with deliberate
// suppression of single isolated hits; a bounded per-hostname history turns
// repeated scans into an escalating-threat signal.
package jailbreak

import (
	"math"
	"sync"
	"time"

	"github.com/pagewarden/pagewarden/pkg/patterns"
	"github.com/pagewarden/pagewarden/pkg/signatures"
)

// SourceDataAttribute marks fragments lifted from a suspicious data
// attribute. These are always treated as maximum severity regardless of
// pattern weight.
const SourceDataAttribute = "data-attribute"

// Fragment is one piece of page text with its origin tag ("script", an
// event-handler name, or SourceDataAttribute).
type Fragment struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// FragmentResult is the per-fragment scan outcome.
type FragmentResult struct {
	Source      string              `json:"source"`
	Hits        int                 `json:"hits"`
	MaxSeverity signatures.Severity `json:"max_severity,omitempty"`
	Categories  []patterns.Match    `json:"categories,omitempty"`
	Heuristics  []string            `json:"heuristics,omitempty"`
}

// Result aggregates a whole scan cycle across all fragments.
type Result struct {
	TotalHits    int              `json:"total_hits"`
	CriticalHits int              `json:"critical_hits"`
	RiskScore    int              `json:"risk_score"` // 0-100
	Fragments    []FragmentResult `json:"fragments,omitempty"`
	Escalating   bool             `json:"escalating"`

	// Reporting gates: Critical requires two critical fragments so a
	// single isolated hit never raises a critical user-facing signal;
	// Notable requires five total hits.
	Critical bool `json:"critical"`
	Notable  bool `json:"notable"`
}

type historyEntry struct {
	at    time.Time
	score int
}

// Scanner holds the compiled injection categories and the bounded per-host
// score history. Histories follow single-writer-per-key discipline: Scan
// serializes updates behind one mutex while entries themselves are replaced,
// never mutated.
type Scanner struct {
	store *signatures.Store

	regMu    sync.Mutex
	compiled *patterns.Registry
	fromDoc  *signatures.Document

	histMu  sync.Mutex
	history map[string][]historyEntry
}

// NewScanner creates a scanner bound to a signature store.
func NewScanner(store *signatures.Store) *Scanner {
	if store == nil {
		store = signatures.NewStore(nil)
	}
	return &Scanner{
		store:   store,
		history: make(map[string][]historyEntry),
	}
}

func (s *Scanner) registry() (*patterns.Registry, *signatures.Document) {
	doc := s.store.Current()
	s.regMu.Lock()
	defer s.regMu.Unlock()
	if s.compiled == nil || s.fromDoc != doc {
		s.compiled = patterns.Build(doc, signatures.SectionJailbreak)
		s.fromDoc = doc
	}
	return s.compiled, doc
}

// Scan runs all fragments for one hostname through the weighted categories
// and heuristic checks, aggregates the risk score, and records it in the
// host's history to detect monotonic escalation.
func (s *Scanner) Scan(hostname string, fragments []Fragment) Result {
	reg, doc := s.registry()

	res := Result{}
	weightSum := 0.0

	for _, frag := range fragments {
		fr := scanFragment(reg, frag)
		res.TotalHits += fr.Hits
		if fr.MaxSeverity == signatures.SeverityCritical {
			res.CriticalHits++
		}
		for _, m := range fr.Categories {
			weightSum += m.Weight
		}
		if fr.Hits > 0 || fr.MaxSeverity != "" {
			res.Fragments = append(res.Fragments, fr)
		}
	}

	raw := float64(res.TotalHits)*15 + float64(res.CriticalHits)*30 + weightSum*20
	res.RiskScore = int(math.Min(math.Round(raw), 100))

	res.Escalating = s.recordScore(hostname, res.RiskScore,
		int(doc.Threshold("history_capacity", 10)),
		int(doc.Threshold("escalation_window", 3)))

	res.Critical = res.CriticalHits >= int(doc.Threshold("critical_hits_gate", 2))
	res.Notable = res.TotalHits >= int(doc.Threshold("notable_hits_gate", 5))
	return res
}

func scanFragment(reg *patterns.Registry, frag Fragment) FragmentResult {
	fr := FragmentResult{Source: frag.Source}

	fr.Categories = reg.Scan(frag.Text)
	for _, m := range fr.Categories {
		fr.Hits += m.Hits
		if m.Severity.Rank() > fr.MaxSeverity.Rank() {
			fr.MaxSeverity = m.Severity
		}
	}

	for _, h := range heuristicChecks(frag.Text) {
		fr.Heuristics = append(fr.Heuristics, h.name)
		fr.Hits++
		if h.severity.Rank() > fr.MaxSeverity.Rank() {
			fr.MaxSeverity = h.severity
		}
	}

	// Anything planted in a data attribute is there to be read by a model,
	// not a human. Treat as maximum severity regardless of pattern weight.
	if frag.Source == SourceDataAttribute && (fr.Hits > 0 || len(frag.Text) > 0) {
		fr.MaxSeverity = signatures.SeverityCritical
	}

	return fr
}

// recordScore appends a score to the host's bounded history (oldest entry
// evicted past capacity) and reports whether the last `window` scores are
// strictly increasing.
func (s *Scanner) recordScore(hostname string, score, capacity, window int) bool {
	if capacity <= 0 {
		capacity = 10
	}
	if window <= 0 {
		window = 3
	}

	s.histMu.Lock()
	defer s.histMu.Unlock()

	entries := append(s.history[hostname], historyEntry{at: time.Now(), score: score})
	if len(entries) > capacity {
		entries = entries[len(entries)-capacity:]
	}
	s.history[hostname] = entries

	if len(entries) < window {
		return false
	}
	tail := entries[len(entries)-window:]
	for i := 1; i < len(tail); i++ {
		if tail[i].score <= tail[i-1].score {
			return false
		}
	}
	return true
}

// HistoryLen reports the number of recorded scores for a hostname.
func (s *Scanner) HistoryLen(hostname string) int {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	return len(s.history[hostname])
}
