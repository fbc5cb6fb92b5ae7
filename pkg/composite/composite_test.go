package composite

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestAggregateWeightedSum(t *testing.T) {
	tests := []struct {
		name      string
		m         Metrics
		wantTotal float64
		wantLevel Level
	}{
		{
			name: "benign page",
			m: Metrics{
				AIProbability: 0.2, AIConfidence: 0.5,
				Urgency: 0.1, Persuasion: 0.1,
				FingerprintScore: 0.1,
				Credibility:      1.0,
				DomainRisk:       5,
			},
			wantTotal: 2.6642,
			wantLevel: LevelLow,
		},
		{
			name: "phishing-leaning page",
			m: Metrics{
				AIProbability: 0.8, AIConfidence: 0.7,
				Urgency: 0.7, Persuasion: 0.5,
				FingerprintScore: 0.5, RiskFactors: 2,
				ManipulationTechniques: 1,
				Credibility:            0.9,
				DomainRisk:             65,
			},
			wantTotal: 50.7706,
			wantLevel: LevelMedium,
		},
		{
			name: "full-spectrum attack",
			m: Metrics{
				AIProbability: 0.9, AIConfidence: 0.8,
				Urgency: 0.8, Persuasion: 0.6,
				FingerprintScore: 0.7, RiskFactors: 3,
				ManipulationTechniques: 3, HighSeverityTechniques: 1,
				Credibility:   0.9,
				DomainRisk:    75,
				JailbreakHits: 4, JailbreakAnyCritical: true,
			},
			wantTotal: 86.4548,
			wantLevel: LevelHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Aggregate(tt.m)
			if !near(a.Total, tt.wantTotal) {
				t.Errorf("total = %.4f, want %.4f (breakdown %v)", a.Total, tt.wantTotal, a.Breakdown)
			}
			if a.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s (signals %v)", a.Level, tt.wantLevel, a.Signals)
			}
			t.Logf("total=%.2f signals=%d level=%s", a.Total, a.SignalCount, a.Level)
		})
	}
}

func TestLowConfidenceAISuppressed(t *testing.T) {
	a := Aggregate(Metrics{
		AIProbability: 0.9,
		AIConfidence:  0.3,
		Credibility:   1.0,
	})

	// 0.9 * 0.3^1.5 * 20 ~= 2.96: the exponent crushes the term.
	if a.Breakdown["ai_text"] > 3 {
		t.Errorf("ai term = %.2f, expected suppression below 3", a.Breakdown["ai_text"])
	}
	if a.SignalCount != 0 {
		t.Errorf("signals = %v, want none at confidence 0.3", a.Signals)
	}
	if a.Level != LevelLow {
		t.Errorf("level = %s, want low", a.Level)
	}
}

func TestSignalGateBlocksSingleDetector(t *testing.T) {
	// Injection hits alone: one signal, so never medium/high from the gate.
	a := Aggregate(Metrics{
		JailbreakHits: 3,
		Credibility:   1.0,
	})
	if a.SignalCount != 1 {
		t.Fatalf("signals = %v, want exactly injection_hits", a.Signals)
	}
	if a.Level != LevelLow {
		t.Errorf("level = %s, want low under the 2-signal gate", a.Level)
	}
}

func TestCriticalConditionsBypassGate(t *testing.T) {
	tests := []struct {
		name string
		m    Metrics
	}{
		{"severe domain", Metrics{DomainRisk: 90, Credibility: 1}},
		{"near-certain typosquat", Metrics{TyposquatConfidence: 0.95, Credibility: 1}},
		{"injection flood", Metrics{JailbreakHits: 6, Credibility: 1}},
		{"urgent llm content", Metrics{Urgency: 0.9, FingerprintScore: 0.8, Credibility: 1}},
		{"critical risk factors", Metrics{CriticalRiskFactors: 2, Credibility: 1}},
		{"manipulative urgency", Metrics{HighSeverityTechniques: 2, Urgency: 0.75, Credibility: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Aggregate(tt.m)
			if a.Level != LevelHigh {
				t.Errorf("level = %s, want high via critical bypass (signals %v)", a.Level, a.Signals)
			}
		})
	}
}

func TestTotalClamped(t *testing.T) {
	a := Aggregate(Metrics{
		AIProbability: 1, AIConfidence: 1,
		Urgency: 1, Persuasion: 1,
		FingerprintScore: 1, RiskFactors: 10,
		ManipulationTechniques: 10,
		Credibility:            1,
		DomainRisk:             100,
		JailbreakHits:          10, JailbreakAnyCritical: true,
	})
	if a.Total != 100 {
		t.Errorf("total = %.2f, want clamp at 100", a.Total)
	}

	empty := Aggregate(Metrics{Credibility: 1})
	if empty.Total != 0 {
		t.Errorf("total = %.2f, want 0 for empty metrics", empty.Total)
	}
}

func TestLowCredibilityRaisesTotal(t *testing.T) {
	base := Metrics{AIProbability: 0.8, AIConfidence: 0.9, DomainRisk: 20}

	trusted := base
	trusted.Credibility = 1.0
	shaky := base
	shaky.Credibility = 0.2

	a := Aggregate(trusted)
	b := Aggregate(shaky)
	if b.Total <= a.Total {
		t.Fatalf("shaky credibility scored %.2f, below trusted %.2f", b.Total, a.Total)
	}
	if !near(b.Total-a.Total, (1-0.2)*weightCredibility) {
		t.Errorf("penalty = %.2f, want %.2f", b.Total-a.Total, (1-0.2)*weightCredibility)
	}
	if b.Breakdown["credibility_penalty"] <= 0 {
		t.Errorf("credibility_penalty = %.2f, want positive contribution", b.Breakdown["credibility_penalty"])
	}
	if _, ok := a.Breakdown["credibility_penalty"]; ok {
		t.Error("trusted page carries a credibility penalty")
	}

	// Credibility 0 alone contributes exactly the full weight.
	alone := Aggregate(Metrics{Credibility: 0})
	if !near(alone.Total, weightCredibility) {
		t.Errorf("total = %.2f, want %.0f from the penalty alone", alone.Total, weightCredibility)
	}
}

func TestSignalCountMonotonic(t *testing.T) {
	// Each step adds one more qualifying condition; the count must only
	// ever grow.
	steps := []struct {
		name  string
		apply func(*Metrics)
	}{
		{"confident ai text", func(m *Metrics) { m.AIProbability = 0.8; m.AIConfidence = 0.7 }},
		{"high urgency", func(m *Metrics) { m.Urgency = 0.7 }},
		{"injection hits", func(m *Metrics) { m.JailbreakHits = 2 }},
		{"llm with risk factors", func(m *Metrics) { m.FingerprintScore = 0.65; m.RiskFactors = 1 }},
		{"risky domain", func(m *Metrics) { m.DomainRisk = 65 }},
		{"credential risk domain", func(m *Metrics) { m.DomainRisk = 75 }},
	}

	m := Metrics{Credibility: 1}
	prev := Aggregate(m).SignalCount
	if prev != 0 {
		t.Fatalf("empty metrics yield %d signals", prev)
	}
	for _, step := range steps {
		step.apply(&m)
		got := Aggregate(m).SignalCount
		if got != prev+1 {
			t.Errorf("%s: signals = %d, want %d", step.name, got, prev+1)
		}
		prev = got
	}
	if prev != 6 {
		t.Errorf("final signal count = %d, want all 6", prev)
	}
}
