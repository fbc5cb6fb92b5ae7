package fingerprint

import (
	"math"
	"regexp"
	"strings"
)

// =============================================================================
// CONTEXT MULTIPLIERS AND HEURISTIC BONUS
// The multiplier escalates fingerprint scores in financial/credential/urgency
// contexts; the bonus rewards rhythm and structure tells that pattern
// categories cannot express.
// =============================================================================

var (
	reFinancial  = regexp.MustCompile(`(?i)\b(bank(ing)?|invoice|payment|wire transfer|account balance|credit card|iban|routing number|refund)\b`)
	reCredential = regexp.MustCompile(`(?i)\b(password|login|credentials?|verify your (account|identity)|two.?factor|one.?time (code|password)|security question)\b`)
	reUrgencyCtx = regexp.MustCompile(`(?i)\b(urgent|immediately|act now|right away|expires?|final notice|within \d+ (hours?|minutes?))\b`)
)

func hasFinancialContext(text string) bool  { return reFinancial.MatchString(text) }
func hasCredentialContext(text string) bool { return reCredential.MatchString(text) }
func hasUrgencyContext(text string) bool    { return reUrgencyCtx.MatchString(text) }

// contextMultiplier returns the single largest applicable multiplier.
// Multipliers never stack.
func contextMultiplier(text string) float64 {
	mult := 1.0
	if hasUrgencyContext(text) {
		mult = multiplierUrgency
	}
	if hasCredentialContext(text) {
		mult = multiplierCredential
	}
	if hasFinancialContext(text) {
		mult = multiplierFinancial
	}
	return mult
}

// Formal connectives counted for the excessive-formality check.
var formalWords = []string{
	"furthermore", "moreover", "consequently", "nevertheless", "accordingly",
	"henceforth", "notwithstanding", "whereby", "therein", "thereof",
}

// Common human-writing error patterns. Their complete absence in a longer
// text approximates "perfect grammar".
var commonErrorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\s{2,}\S`), // double spaces mid-text
	regexp.MustCompile(`(?i)\b(teh|recieve|seperate|definately|alot|untill)\b`),
	regexp.MustCompile(`\s+[,.!?]`),        // space before punctuation
	regexp.MustCompile(`(^|[\s(])i[\s',]`), // lowercase standalone "i"
	regexp.MustCompile(`[.!?][a-z]`),       // missing space after sentence end
}

var (
	reBulletDevice   = regexp.MustCompile(`(?m)^\s*[-*•]\s+\S`)
	reNumberedDevice = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+\S`)
	reHeadingDevice  = regexp.MustCompile(`(?m)^#{1,3}\s+\S|(?m)^[A-Z][A-Za-z ]{2,40}:$`)
	reSentenceSplit  = regexp.MustCompile(`[.!?]+`)
)

// heuristicBonus accumulates grammar/rhythm tells, capped at 0.4.
func heuristicBonus(text string) float64 {
	bonus := 0.0
	lower := strings.ToLower(text)

	formal := 0
	for _, w := range formalWords {
		formal += strings.Count(lower, w)
	}
	if formal >= 3 {
		bonus += 0.1
	}

	if perfectGrammar(text) && hasUrgencyContext(text) {
		bonus += 0.15
	}

	lens := sentenceWordCounts(text)
	if len(lens) >= 3 && sentenceVariance(lens) < 15 {
		bonus += 0.1
	}

	devices := 0
	if reBulletDevice.MatchString(text) {
		devices++
	}
	if reNumberedDevice.MatchString(text) {
		devices++
	}
	if reHeadingDevice.MatchString(text) {
		devices++
	}
	if devices >= 2 {
		bonus += 0.08
	}

	if hasRepeatedOpeners(text) {
		bonus += 0.1
	}

	return math.Min(bonus, 0.4)
}

// perfectGrammar approximates grammar quality by the absence of common
// error patterns. Only meaningful on texts long enough to show errors.
func perfectGrammar(text string) bool {
	if len(text) < 200 {
		return false
	}
	for _, re := range commonErrorPatterns {
		if re.MatchString(text) {
			return false
		}
	}
	return true
}

func sentenceWordCounts(text string) []int {
	var out []int
	for _, raw := range reSentenceSplit.Split(text, -1) {
		s := strings.TrimSpace(raw)
		if len(s) > 5 {
			out = append(out, len(strings.Fields(s)))
		}
	}
	return out
}

func sentenceVariance(lens []int) float64 {
	if len(lens) == 0 {
		return 0
	}
	mean := 0.0
	for _, l := range lens {
		mean += float64(l)
	}
	mean /= float64(len(lens))
	sum := 0.0
	for _, l := range lens {
		d := float64(l) - mean
		sum += d * d
	}
	return sum / float64(len(lens))
}

// hasRepeatedOpeners reports whether the same 3-word sentence opener occurs
// in two or more sentences.
func hasRepeatedOpeners(text string) bool {
	counts := make(map[string]int)
	for _, raw := range reSentenceSplit.Split(text, -1) {
		words := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
		if len(words) < 3 {
			continue
		}
		opener := strings.Join(words[:3], " ")
		counts[opener]++
		if counts[opener] >= 2 {
			return true
		}
	}
	return false
}
