// Package fingerprint matches page text against model-family signature
// categories to estimate which LLM family, if any, produced it. The design
// deliberately yields family-level confidence only: no claim about a
// specific model version is ever made, and no claim at all is made below
// the score threshold.
package fingerprint

import (
	"math"
	"sync"

	"github.com/pagewarden/pagewarden/pkg/patterns"
	"github.com/pagewarden/pagewarden/pkg/signatures"
)

// Context multipliers. Multiplicative, never stacked: only the single
// largest applicable multiplier is used.
const (
	multiplierFinancial  = 1.5
	multiplierCredential = 1.4
	multiplierUrgency    = 1.3
)

// RiskFactor is a derived flag used by the aggregator, not a raw score.
type RiskFactor struct {
	Name     string              `json:"name"`
	Severity signatures.Severity `json:"severity"`
}

// Result is the outcome of one fingerprinting call.
type Result struct {
	Score          float64            `json:"score"`
	LikelyFamily   string             `json:"likely_family,omitempty"`
	Confidence     float64            `json:"confidence"`
	CategoryScores map[string]float64 `json:"category_scores,omitempty"`
	FamilyScores   map[string]float64 `json:"family_scores,omitempty"`
	Multiplier     float64            `json:"multiplier"`
	HeuristicBonus float64            `json:"heuristic_bonus"`
	RiskFactors    []RiskFactor       `json:"risk_factors,omitempty"`
}

// Detector fingerprints text against the active signature document's
// fingerprint section. Safe for concurrent use.
type Detector struct {
	store *signatures.Store

	mu       sync.Mutex
	compiled *patterns.Registry
	fromDoc  *signatures.Document
}

// NewDetector creates a detector bound to a signature store.
func NewDetector(store *signatures.Store) *Detector {
	if store == nil {
		store = signatures.NewStore(nil)
	}
	return &Detector{store: store}
}

func (d *Detector) registry() (*patterns.Registry, *signatures.Document) {
	doc := d.store.Current()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.compiled == nil || d.fromDoc != doc {
		d.compiled = patterns.Build(doc, signatures.SectionFingerprint)
		d.fromDoc = doc
	}
	return d.compiled, doc
}

// Analyze fingerprints one text sample. Inputs below the minimum length
// return the zero result.
func (d *Detector) Analyze(text string) Result {
	reg, doc := d.registry()

	minLen := int(doc.Threshold("fingerprint_min_length", 30))
	if len(text) < minLen {
		return Result{Multiplier: 1.0}
	}

	matches := reg.Scan(text)

	categoryScores := make(map[string]float64, len(matches))
	familyScores := make(map[string]float64)
	total := 0.0
	for _, m := range matches {
		// Per category: hit contribution capped at the category weight,
		// then scaled by the weight again so heavy categories dominate.
		s := math.Min(float64(m.Hits)*0.1, m.Weight) * m.Weight
		categoryScores[m.Category] = s
		if m.Family != "" {
			familyScores[m.Family] += s
		}
		total += s
	}

	mult := contextMultiplier(text)
	bonus := heuristicBonus(text)
	score := clamp01(total*mult + bonus)

	topFamily, topScore := "", 0.0
	for fam, s := range familyScores {
		if s > topScore {
			topFamily, topScore = fam, s
		}
	}

	res := Result{
		Score:          score,
		CategoryScores: categoryScores,
		FamilyScores:   familyScores,
		Multiplier:     mult,
		HeuristicBonus: bonus,
	}

	// No false certainty: the family guess is only surfaced when its
	// accumulated score clears the claim threshold.
	claimThresh := doc.Threshold("model_claim_threshold", 0.15)
	if topScore > claimThresh {
		res.LikelyFamily = topFamily
		res.Confidence = math.Min(topScore*2, 1)
	}

	res.RiskFactors = deriveRiskFactors(text, matches, res)
	return res
}

// deriveRiskFactors turns raw match context into the flags the aggregator
// consumes.
func deriveRiskFactors(text string, matches []patterns.Match, res Result) []RiskFactor {
	var out []RiskFactor

	if res.Score > 0.3 && hasUrgencyContext(text) {
		out = append(out, RiskFactor{Name: "urgency_ai_combo", Severity: signatures.SeverityHigh})
	}
	for _, m := range matches {
		if m.Family == "impersonation" {
			out = append(out, RiskFactor{Name: "impersonation", Severity: signatures.SeverityCritical})
			break
		}
	}
	for _, m := range matches {
		if m.Family == "phishing" {
			out = append(out, RiskFactor{Name: "phishing_template", Severity: signatures.SeverityHigh})
			break
		}
	}
	if hasFinancialContext(text) || hasCredentialContext(text) {
		out = append(out, RiskFactor{Name: "high_risk_context", Severity: signatures.SeverityCritical})
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
