package signatures

// =============================================================================
// EMBEDDED DEFAULT SIGNATURE SET
// Used whenever no external signature document is supplied, or when a
// supplied document is rejected at validation. The shape mirrors the YAML
// schema one-to-one so an external document can replace it wholesale.
// =============================================================================

// DefaultVersion identifies the embedded signature set.
const DefaultVersion = "2026.08.1"

// Default returns the embedded signature document. A fresh copy is built on
// every call so callers can never mutate the baseline.
func Default() *Document {
	return &Document{
		Version: DefaultVersion,
		Signatures: map[string][]Category{
			SectionAIText:      defaultAITextMarkers(),
			SectionFingerprint: defaultFingerprintCategories(),
			SectionJailbreak:   defaultJailbreakCategories(),
		},
		Thresholds: map[string]float64{
			"min_text_length":        100,
			"max_text_length":        20000,
			"fingerprint_min_length": 30,
			"model_claim_threshold":  0.15,
			"history_capacity":       10,
			"escalation_window":      3,
			"critical_hits_gate":     2,
			"notable_hits_gate":      5,
		},
		Whitelist: []string{
			"google.com", "microsoft.com", "apple.com", "amazon.com",
			"github.com", "wikipedia.org", "mozilla.org",
		},
	}
}

// --- AI-TEXT LINGUISTIC MARKER CLASSES ---
// Five classes forming the linguistic sub-score. Weights sum to 0.5, the
// combined linguistic budget.
func defaultAITextMarkers() []Category {
	return []Category{
		{
			Name: "politeness", Severity: SeverityLow, Weight: 0.10,
			Matchers: []string{
				`\bplease note\b`,
				`\bthank you for\b`,
				`\bi appreciate\b`,
				`\bwe apologize\b`,
				`\bkindly\b`,
				`\bfeel free to\b`,
				`\bdon'?t hesitate to\b`,
			},
		},
		{
			Name: "transition", Severity: SeverityLow, Weight: 0.10,
			Matchers: []string{
				`\bfurthermore\b`,
				`\bmoreover\b`,
				`\badditionally\b`,
				`\bconsequently\b`,
				`\bin conclusion\b`,
				`\btherefore\b`,
				`\bnevertheless\b`,
				`\bon the other hand\b`,
			},
		},
		{
			Name: "formality", Severity: SeverityLow, Weight: 0.10,
			Matchers: []string{
				`\butilize\b`,
				`\bfacilitate\b`,
				`\bleverage\b`,
				`\bcomprehensive\b`,
				`\brobust\b`,
				`\bparamount\b`,
				`\bendeavor\b`,
				`\bsubsequently\b`,
			},
		},
		{
			Name: "hedging", Severity: SeverityLow, Weight: 0.10,
			Matchers: []string{
				`\bit is important to note\b`,
				`\bit'?s worth noting\b`,
				`\bgenerally speaking\b`,
				`\btypically\b`,
				`\bin most cases\b`,
				`\bmay vary\b`,
				`\bto some extent\b`,
			},
		},
		{
			Name: "enumeration", Severity: SeverityLow, Weight: 0.10,
			Matchers: []string{
				`\bfirstly\b`,
				`\bsecondly\b`,
				`\bthirdly\b`,
				`\bfinally\b`,
				`\bstep \d`,
				`\bfirst and foremost\b`,
				`\blast but not least\b`,
			},
		},
	}
}

// --- LLM-FAMILY FINGERPRINT CATEGORIES ---
// Eight signature categories, each tagged with the model family it points
// at. Family labels feed the likely-model guess; category weights feed the
// fingerprint score.
func defaultFingerprintCategories() []Category {
	return []Category{
		{
			Name: "gpt_style", Family: "gpt", Severity: SeverityMedium, Weight: 0.8,
			Matchers: []string{
				`\bas an ai language model\b`,
				`\bi don'?t have personal (opinions|experiences|feelings)\b`,
				`\bas of my last (knowledge|training) (update|cutoff)\b`,
				`\bi'?m (just )?an ai\b`,
				`\bi cannot browse the internet\b`,
			},
		},
		{
			Name: "claude_style", Family: "claude", Severity: SeverityMedium, Weight: 0.8,
			Matchers: []string{
				`\bi'?d be happy to help\b`,
				`\bi aim to be (helpful|direct|honest)\b`,
				`\bi want to be (direct|honest|transparent) with you\b`,
				`\bi should note that\b`,
				`\bi appreciate you (asking|sharing)\b`,
			},
		},
		{
			Name: "generic_politeness", Family: "generic", Severity: SeverityLow, Weight: 0.5,
			Matchers: []string{
				`\bthank you for (reaching out|your patience|contacting us)\b`,
				`\bwe appreciate your (business|understanding|cooperation)\b`,
				`\bplease do not hesitate to\b`,
				`\bwe are here to (help|assist)\b`,
			},
		},
		{
			Name: "phishing_greeting", Family: "phishing", Severity: SeverityHigh, Weight: 0.7,
			Matchers: []string{
				`\bdear (valued )?(customer|user|member|client|account holder)\b`,
				`\bdear sir or madam\b`,
				`\battention (account|card) holder\b`,
			},
		},
		{
			Name: "urgency_politeness", Family: "phishing", Severity: SeverityHigh, Weight: 0.7,
			Matchers: []string{
				`\bkindly (verify|confirm|update) your\b`,
				`\bplease verify your (account|identity|information) (immediately|now|within)\b`,
				`\bwe kindly (ask|request) (that )?you .{0,40}(urgent|immediate)`,
				`\byour prompt (attention|action) is (required|appreciated)\b`,
			},
		},
		{
			Name: "authority_impersonation", Family: "impersonation", Severity: SeverityCritical, Weight: 0.9,
			Matchers: []string{
				`\b(security|billing|fraud|compliance|it) (team|department)\b`,
				`\bon behalf of (the |your )?(bank|support team|administration)\b`,
				`\bofficial (notification|notice|communication)\b`,
				`\bthis is an automated (security )?(alert|message) from\b`,
			},
		},
		{
			Name: "structured_response", Family: "generic", Severity: SeverityLow, Weight: 0.6,
			Matchers: []string{
				`\bin summary\b`,
				`\bto summarize\b`,
				`\bhere are the (steps|key points|main takeaways)\b`,
				`\blet'?s break (this|it) down\b`,
				`\bkey takeaways?:`,
			},
		},
		{
			Name: "over_explanation", Family: "generic", Severity: SeverityLow, Weight: 0.5,
			Matchers: []string{
				`\bin other words\b`,
				`\bto put it simply\b`,
				`\bthat is to say\b`,
				`\bas mentioned (above|earlier|previously)\b`,
				`\bsimply put\b`,
			},
		},
	}
}

// --- JAILBREAK / PROMPT-INJECTION CATEGORIES ---
// Eight weighted categories scanned against page-derived fragments.
func defaultJailbreakCategories() []Category {
	return []Category{
		{
			Name: "instruction_override", Severity: SeverityCritical, Weight: 0.9,
			Matchers: []string{
				`\bignore (all |any )?(previous|prior|above|earlier) (instructions|prompts|directives)\b`,
				`\bdisregard (your|all|previous|prior) (instructions|training|rules)\b`,
				`\bforget (everything|all previous|your instructions)\b`,
				`\bnew instructions?:`,
				`\boverride (your|all) (instructions|settings|rules)\b`,
			},
		},
		{
			Name: "role_play", Severity: SeverityHigh, Weight: 0.7,
			Matchers: []string{
				`\byou are now (an?|the)\b`,
				`\bpretend (to be|you are|that you)\b`,
				`\bact as (if|an?|the)\b`,
				`\broleplay as\b`,
				`\bunrestricted (ai|assistant|model)\b`,
			},
		},
		{
			Name: "prompt_extraction", Severity: SeverityCritical, Weight: 0.85,
			Matchers: []string{
				`\b(reveal|show|print|output|display) (your|the) system prompt\b`,
				`\brepeat (everything|all|the (text|words)) (above|before)\b`,
				`\bwhat (are|were) your (original |initial )?instructions\b`,
				`\btell me (about )?your (system )?prompt\b`,
			},
		},
		{
			Name: "delimiter_injection", Severity: SeverityHigh, Weight: 0.75,
			Matchers: []string{
				`<\|im_start\|>`,
				`<\|endoftext\|>`,
				`\[/?INST\]`,
				`###\s*(system|instruction|assistant)`,
				`\[(system|assistant)\]:`,
			},
		},
		{
			Name: "hypothetical_framing", Severity: SeverityMedium, Weight: 0.5,
			Matchers: []string{
				`\bhypothetically\b`,
				`\bin a (purely )?fictional (world|scenario|setting)\b`,
				`\bimagine (that )?you (had|have) no (restrictions|limits|rules)\b`,
				`\bfor (purely )?(academic|educational) purposes only\b`,
			},
		},
		{
			Name: "encoding_obfuscation", Severity: SeverityHigh, Weight: 0.7,
			Matchers: []string{
				`\b[A-Za-z0-9+/]{40,}={0,2}\b`,
				`\bdecode (this|the following)\b`,
				`\brot13\b`,
				`\\\\x[0-9a-fA-F]{2}`,
				`\bbase64\b`,
			},
		},
		{
			Name: "reverse_psychology", Severity: SeverityMedium, Weight: 0.5,
			Matchers: []string{
				`\bdon'?t (tell|show|reveal) me\b`,
				`\bwhatever you do,? do not\b`,
				`\bi know you (can'?t|won'?t|aren'?t allowed)\b`,
			},
		},
		{
			Name: "context_manipulation", Severity: SeverityHigh, Weight: 0.65,
			Matchers: []string{
				`\bthe (previous|above) (context|conversation|instructions) (is|are|was|were) (invalid|a test|outdated)\b`,
				`\bstart fresh with\b`,
				`\bsystem update:`,
				`\byour (new|real|true) (purpose|goal|directive) is\b`,
			},
		},
	}
}
