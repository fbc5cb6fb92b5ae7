// Package aitext scores a page's visible text for the likelihood that it was
// produced by a generative language model. Four independent sub-scores
// (linguistic, statistical, semantic, structural) are combined into an
// AI-probability plus a confidence derived from how tightly the sub-scores
// agree. The package also computes the persuasion, urgency, manipulation and
// credibility metrics that feed the composite aggregator.
package aitext

import (
	"math"
	"sync"

	"github.com/pagewarden/pagewarden/pkg/patterns"
	"github.com/pagewarden/pagewarden/pkg/signatures"
)

// Fixed composite weights over the four sub-scores.
const (
	weightLinguistic  = 0.35
	weightStatistical = 0.30
	weightSemantic    = 0.20
	weightStructural  = 0.15
)

// Maximum attainable value per sub-score; used for normalization before the
// weighted sum. The linguistic maximum is the sum of marker-class weights
// from the active signature document.
const (
	maxStatistical = 0.6
	maxSemantic    = 0.3
	maxStructural  = 0.3
)

// SubScores holds the four raw sub-scores before normalization.
type SubScores struct {
	Linguistic  float64 `json:"linguistic"`
	Statistical float64 `json:"statistical"`
	Semantic    float64 `json:"semantic"`
	Structural  float64 `json:"structural"`
}

// Technique is a detected manipulation technique. Each requires a
// conjunction of two pattern classes, never a single keyword, to keep
// false positives down.
type Technique struct {
	Name     string              `json:"name"`
	Severity signatures.Severity `json:"severity"`
}

// Result is the full outcome of one analysis call. Created fresh per call
// and never mutated afterwards.
type Result struct {
	AIProbability float64          `json:"ai_probability"`
	Confidence    float64          `json:"confidence"`
	SubScores     SubScores        `json:"sub_scores"`
	Persuasion    float64          `json:"persuasion"`
	Urgency       float64          `json:"urgency"`
	Techniques    []Technique      `json:"techniques,omitempty"`
	Credibility   float64          `json:"credibility"`
	Markers       []patterns.Match `json:"markers,omitempty"`
}

// emptyResult is the canonical no-signal outcome for text below the minimum
// length. Credibility starts at its neutral 1.0; everything else is zero.
func emptyResult() Result {
	return Result{Credibility: 1.0}
}

// Scorer computes AI-text likelihood. Safe for concurrent use; the compiled
// marker registry is rebuilt only when the signature document is swapped.
type Scorer struct {
	store *signatures.Store

	mu       sync.Mutex
	compiled *patterns.Registry
	fromDoc  *signatures.Document
}

// NewScorer creates a scorer bound to a signature store.
func NewScorer(store *signatures.Store) *Scorer {
	if store == nil {
		store = signatures.NewStore(nil)
	}
	return &Scorer{store: store}
}

// registry returns the marker registry for the active document, rebuilding
// it when the document was replaced since the last call.
func (s *Scorer) registry() (*patterns.Registry, *signatures.Document) {
	doc := s.store.Current()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.compiled == nil || s.fromDoc != doc {
		s.compiled = patterns.Build(doc, signatures.SectionAIText)
		s.fromDoc = doc
	}
	return s.compiled, doc
}

// Analyze scores one text sample. Inputs shorter than the minimum length
// short-circuit to the canonical empty result rather than partial scoring,
// to avoid over-fitting on short snippets.
func (s *Scorer) Analyze(text string) Result {
	reg, doc := s.registry()

	minLen := int(doc.Threshold("min_text_length", 100))
	if len(text) < minLen {
		return emptyResult()
	}

	stats := computeTextStats(text)
	markers := reg.Scan(text)

	sub := SubScores{
		Linguistic:  linguisticScore(markers),
		Statistical: statisticalScore(stats),
		Semantic:    semanticScore(text, stats),
		Structural:  structuralScore(text, stats),
	}

	maxLing := 0.0
	for _, cat := range reg.Categories() {
		maxLing += cat.Weight
	}

	norm := []float64{
		normalize(sub.Linguistic, maxLing),
		normalize(sub.Statistical, maxStatistical),
		normalize(sub.Semantic, maxSemantic),
		normalize(sub.Structural, maxStructural),
	}

	prob := weightLinguistic*norm[0] +
		weightStatistical*norm[1] +
		weightSemantic*norm[2] +
		weightStructural*norm[3]

	// Tightly agreeing sub-scores yield high confidence; divergence lowers
	// it. The aggregator later exponentiates this (power 1.5) so
	// low-agreement detections are deliberately suppressed.
	confidence := math.Max(0, 1-variance(norm))

	return Result{
		AIProbability: clamp01(prob),
		Confidence:    clamp01(confidence),
		SubScores:     sub,
		Persuasion:    persuasionScore(text),
		Urgency:       urgencyScore(text),
		Techniques:    detectTechniques(text),
		Credibility:   credibilityScore(text),
		Markers:       markers,
	}
}

// linguisticScore is marker hit density: per marker class, hits/10 capped at
// the class weight, summed across classes.
func linguisticScore(markers []patterns.Match) float64 {
	score := 0.0
	for _, m := range markers {
		score += math.Min(float64(m.Hits)/10.0, m.Weight)
	}
	return score
}

// statisticalScore rewards the low-variance, mid-length sentence rhythm
// typical of generated text. Fewer than 3 usable sentences yields 0.
func statisticalScore(st textStats) float64 {
	if len(st.sentenceWords) < 3 {
		return 0
	}
	score := 0.0
	if st.sentenceVariance < 20 {
		score += 0.2
	}
	if st.meanSentenceLen >= 15 && st.meanSentenceLen <= 25 {
		score += 0.15
	}
	if st.meanSentenceLen > 0 {
		cv := math.Sqrt(st.sentenceVariance) / st.meanSentenceLen
		if cv < 0.4 {
			score += 0.15
		}
	}
	if st.typeTokenRatio >= 0.4 && st.typeTokenRatio <= 0.6 {
		score += 0.1
	}
	return score
}

func normalize(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return clamp01(v / max)
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

// variance is the population variance of vals.
func variance(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	sum := 0.0
	for _, v := range vals {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(vals))
}
