// Package composite folds the four detector outputs and the domain score
// into one 0-100 assessment. The numeric total alone never drives the
// user-facing level: an independent-signal count gates medium/high, so a
// single loud detector cannot raise an alarm on its own.
package composite

import "math"

// Fixed term weights of the composite sum.
const (
	weightAI           = 20.0
	weightUrgency      = 12.0
	weightPersuasion   = 10.0
	weightFingerprint  = 15.0
	weightDomain       = 25.0
	weightJailbreak    = 12.0
	weightManipulation = 8.0
	weightCredibility  = 12.0
)

// Metrics is the flattened detector output consumed by Aggregate. Keeping
// it a plain struct of numbers decouples the aggregator from the detector
// packages.
type Metrics struct {
	AIProbability float64
	AIConfidence  float64
	Urgency       float64
	Persuasion    float64

	FingerprintScore       float64
	RiskFactors            int
	CriticalRiskFactors    int
	ManipulationTechniques int
	HighSeverityTechniques int

	Credibility float64

	DomainRisk          int
	TyposquatConfidence float64

	JailbreakHits        int
	JailbreakCritical    int
	JailbreakAnyCritical bool
}

// Level is the user-facing risk tier.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Assessment is the aggregated verdict.
type Assessment struct {
	Total       float64            `json:"total"`
	Breakdown   map[string]float64 `json:"breakdown"`
	Signals     []string           `json:"signals,omitempty"`
	SignalCount int                `json:"signal_count"`
	Level       Level              `json:"level"`
}

// Aggregate computes the weighted total, counts independent signals, and
// derives the level. Critical conditions bypass the signal gate; everything
// else needs at least two independent signals before medium or high can be
// reported.
func Aggregate(m Metrics) Assessment {
	a := Assessment{Breakdown: make(map[string]float64, 8)}

	// Low-confidence AI probability is suppressed by the confidence
	// exponent rather than a hard cutoff.
	aiTerm := m.AIProbability * math.Pow(m.AIConfidence, 1.5) * weightAI
	a.Breakdown["ai_text"] = aiTerm
	a.Total += aiTerm

	if m.Urgency > 0.3 {
		t := m.Urgency * weightUrgency
		a.Breakdown["urgency"] = t
		a.Total += t
	}
	if m.Persuasion > 0.2 {
		t := m.Persuasion * weightPersuasion
		a.Breakdown["persuasion"] = t
		a.Total += t
	}

	if m.FingerprintScore > 0.25 {
		boost := 1 + math.Min(float64(m.RiskFactors)*0.15, 0.5)
		t := m.FingerprintScore * weightFingerprint * boost
		a.Breakdown["llm_fingerprint"] = t
		a.Total += t
	}

	domainTerm := float64(m.DomainRisk) / 100 * weightDomain
	a.Breakdown["domain"] = domainTerm
	a.Total += domainTerm

	if m.JailbreakHits > 0 {
		t := math.Min(float64(m.JailbreakHits)*2.5, weightJailbreak)
		if m.JailbreakAnyCritical {
			t *= 1.8
		}
		a.Breakdown["jailbreak"] = t
		a.Total += t
	}

	if m.ManipulationTechniques > 0 {
		t := math.Min(float64(m.ManipulationTechniques)*2, weightManipulation)
		a.Breakdown["manipulation"] = t
		a.Total += t
	}

	// Shaky credibility is a penalty on the page, so it raises risk.
	if m.Credibility < 0.7 {
		t := (1 - m.Credibility) * weightCredibility
		a.Breakdown["credibility_penalty"] = t
		a.Total += t
	}

	if a.Total < 0 {
		a.Total = 0
	}
	if a.Total > 100 {
		a.Total = 100
	}

	a.Signals = independentSignals(m)
	a.SignalCount = len(a.Signals)
	a.Level = deriveLevel(m, a.Total, a.SignalCount)
	return a
}

// independentSignals counts the six gate conditions. Each must be able to
// fire from a different detector so correlated noise cannot satisfy the
// gate by itself.
func independentSignals(m Metrics) []string {
	var s []string
	if m.AIProbability > 0.7 && m.AIConfidence > 0.6 {
		s = append(s, "confident_ai_text")
	}
	if m.Urgency > 0.6 {
		s = append(s, "high_urgency")
	}
	if m.DomainRisk > 60 {
		s = append(s, "risky_domain")
	}
	if m.JailbreakHits >= 2 {
		s = append(s, "injection_hits")
	}
	if m.FingerprintScore > 0.6 && m.RiskFactors > 0 {
		s = append(s, "llm_with_risk_factors")
	}
	if m.DomainRisk > 70 {
		s = append(s, "credential_risk_domain")
	}
	return s
}

// criticalCondition reports combinations severe enough to bypass the
// signal-count gate.
func criticalCondition(m Metrics) bool {
	switch {
	case m.DomainRisk >= 85:
		return true
	case m.TyposquatConfidence > 0.9:
		return true
	case m.JailbreakHits >= 5:
		return true
	case m.Urgency > 0.85 && m.FingerprintScore > 0.75:
		return true
	case m.CriticalRiskFactors >= 2:
		return true
	case m.HighSeverityTechniques >= 2 && m.Urgency > 0.7:
		return true
	}
	return false
}

func deriveLevel(m Metrics, total float64, signalCount int) Level {
	if criticalCondition(m) {
		return LevelHigh
	}
	if signalCount < 2 {
		return LevelLow
	}
	switch {
	case total >= 80:
		return LevelHigh
	case total >= 50:
		return LevelMedium
	default:
		return LevelLow
	}
}
