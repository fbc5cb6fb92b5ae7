package aitext

import (
	"regexp"
	"strings"

	"github.com/pagewarden/pagewarden/pkg/signatures"
)

// =============================================================================
// PERSUASION / URGENCY / MANIPULATION / CREDIBILITY
// These metrics feed the composite aggregator directly; they are computed
// alongside AI-probability but do not contribute to it.
// =============================================================================

// Seven persuasion tactic categories. A category counts once no matter how
// many of its keywords appear.
var persuasionTactics = map[string][]string{
	"authority": {
		"official", "certified", "authorized", "verified by", "government",
		"regulation", "compliance", "our experts",
	},
	"scarcity": {
		"limited time", "only a few left", "while supplies last", "exclusive offer",
		"last chance", "ends today", "spots remaining",
	},
	"social_proof": {
		"thousands of customers", "millions of users", "everyone is",
		"most popular", "trusted by", "5-star", "as seen on",
	},
	"reciprocity": {
		"free gift", "no obligation", "complimentary", "we've given you",
		"as a thank you", "bonus for you",
	},
	"commitment": {
		"you agreed", "as you requested", "you signed up", "your subscription",
		"you previously", "don't break your streak",
	},
	"liking": {
		"just like you", "we understand you", "you deserve", "people like us",
		"your friends", "specially for you",
	},
	"fear": {
		"your account will be", "suspended", "terminated", "unauthorized access",
		"security breach", "at risk", "permanently deleted", "legal action",
	},
}

// persuasionScore adds 0.15 per tactic category present, capped at 1.
func persuasionScore(text string) float64 {
	lower := strings.ToLower(text)
	score := 0.0
	for _, keywords := range persuasionTactics {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score += 0.15
				break
			}
		}
	}
	return clamp01(score)
}

var urgencyPhrases = []string{
	"act now", "immediately", "urgent", "right away", "asap",
	"expires", "within 24 hours", "within 48 hours", "before it's too late",
	"final notice", "last warning", "time is running out", "don't delay",
	"respond now",
}

var (
	reExclamationRun = regexp.MustCompile(`!{2,}`)
	reAllCapsWord    = regexp.MustCompile(`\b[A-Z]{4,}\b`)
)

// urgencyScore combines urgency phrases with punctuation heuristics,
// capped at 1.
func urgencyScore(text string) float64 {
	lower := strings.ToLower(text)
	score := 0.0
	for _, p := range urgencyPhrases {
		if strings.Contains(lower, p) {
			score += 0.2
		}
	}
	if reExclamationRun.MatchString(text) {
		score += 0.2
	}
	if len(reAllCapsWord.FindAllString(text, -1)) >= 3 {
		score += 0.15
	}
	return clamp01(score)
}

// Conjunction classes for manipulation techniques. Requiring both halves of
// a pair suppresses false positives from any single keyword.
var (
	reDeadline          = regexp.MustCompile(`(?i)\b(within \d+ (hours?|days?)|by (midnight|tomorrow|end of (the )?day)|expires? (today|soon|in))\b`)
	reCredentialRequest = regexp.MustCompile(`(?i)\b(confirm|verify|enter|update|provide)\b.{0,40}\b(password|credentials?|ssn|social security|card (number|details)|pin|login)\b`)
	rePaymentRequest    = regexp.MustCompile(`(?i)\b(wire transfer|gift cards?|bitcoin|payment (details|information)|processing fee|pay (now|immediately))\b`)
	reLinkPrompt        = regexp.MustCompile(`(?i)\b(click (here|the link|below)|follow (this|the) link|visit (this|the) (page|site|link))\b`)
	reCallToAction      = regexp.MustCompile(`(?i)\b(sign up|claim (your|now)|redeem|download now|install now|complete the form)\b`)
)

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// detectTechniques reports manipulation techniques, each requiring two
// independent pattern classes to fire together.
func detectTechniques(text string) []Technique {
	lower := strings.ToLower(text)
	var out []Technique

	if containsAny(lower, persuasionTactics["fear"]) && reDeadline.MatchString(text) {
		out = append(out, Technique{Name: "fear_with_deadline", Severity: signatures.SeverityHigh})
	}
	if containsAny(lower, persuasionTactics["authority"]) && reCredentialRequest.MatchString(text) {
		out = append(out, Technique{Name: "authority_with_credential_request", Severity: signatures.SeverityCritical})
	}
	if containsAny(lower, persuasionTactics["scarcity"]) && rePaymentRequest.MatchString(text) {
		out = append(out, Technique{Name: "scarcity_with_payment_request", Severity: signatures.SeverityHigh})
	}
	if containsAny(lower, persuasionTactics["social_proof"]) && reLinkPrompt.MatchString(text) {
		out = append(out, Technique{Name: "social_proof_with_link", Severity: signatures.SeverityMedium})
	}
	if containsAny(lower, persuasionTactics["reciprocity"]) && reCallToAction.MatchString(text) {
		out = append(out, Technique{Name: "reciprocity_with_call_to_action", Severity: signatures.SeverityMedium})
	}
	return out
}

var (
	reGenericGreeting = regexp.MustCompile(`(?i)\bdear (valued )?(customer|user|member|sir|madam|friend)\b`)
	reClickbait       = regexp.MustCompile(`(?i)\b(you won'?t believe|shocking|congratulations[,!]? you('ve| have)? (won|been selected)|this one (trick|secret))\b`)
	reExcessivePunct  = regexp.MustCompile(`[!?]{3,}`)
	reSecureLink      = regexp.MustCompile(`https://[a-zA-Z0-9.-]+`)
)

// credibilityScore starts at 1.0 and is penalized for phishing-adjacent
// presentation tells; explicit secure links earn a small reward. Low
// credibility becomes a penalty term in the aggregator.
func credibilityScore(text string) float64 {
	score := 1.0
	if reGenericGreeting.MatchString(text) {
		score -= 0.2
	}
	if reClickbait.MatchString(text) {
		score -= 0.2
	}
	if reExcessivePunct.MatchString(text) {
		score -= 0.15
	}
	if len(reAllCapsWord.FindAllString(text, -1)) >= 5 {
		score -= 0.1
	}
	if reSecureLink.MatchString(text) {
		score += 0.05
	}
	return clamp01(score)
}
