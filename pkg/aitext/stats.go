package aitext

import (
	"regexp"
	"strings"
)

// textStats carries the sentence and token statistics shared by the
// statistical, semantic and structural sub-scores. Computed once per
// analysis call.
type textStats struct {
	sentences        []string
	sentenceWords    []int // word count per sentence
	meanSentenceLen  float64
	sentenceVariance float64
	words            []string // lowercase tokens
	typeTokenRatio   float64
	paragraphs       []string
}

var (
	reSentenceSplit  = regexp.MustCompile(`[.!?]+`)
	reParagraphSplit = regexp.MustCompile(`\n\s*\n`)
)

func computeTextStats(text string) textStats {
	st := textStats{}

	for _, raw := range reSentenceSplit.Split(text, -1) {
		s := strings.TrimSpace(raw)
		if len(s) > 5 {
			st.sentences = append(st.sentences, s)
			st.sentenceWords = append(st.sentenceWords, len(strings.Fields(s)))
		}
	}

	if n := len(st.sentenceWords); n > 0 {
		sum := 0
		for _, w := range st.sentenceWords {
			sum += w
		}
		st.meanSentenceLen = float64(sum) / float64(n)

		varSum := 0.0
		for _, w := range st.sentenceWords {
			d := float64(w) - st.meanSentenceLen
			varSum += d * d
		}
		st.sentenceVariance = varSum / float64(n)
	}

	st.words = strings.Fields(strings.ToLower(text))
	if len(st.words) > 0 {
		distinct := make(map[string]struct{}, len(st.words))
		for _, w := range st.words {
			distinct[strings.Trim(w, `.,;:!?"'()`)] = struct{}{}
		}
		st.typeTokenRatio = float64(len(distinct)) / float64(len(st.words))
	}

	for _, raw := range reParagraphSplit.Split(text, -1) {
		if p := strings.TrimSpace(raw); p != "" {
			st.paragraphs = append(st.paragraphs, p)
		}
	}

	return st
}

// Weak verbs that pad generated prose without carrying meaning.
var weakVerbs = map[string]struct{}{
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"being": {}, "seems": {}, "appears": {}, "tends": {}, "remains": {},
}

var (
	reExpletiveOpener = regexp.MustCompile(`(?i)^(it|there)\s+(is|are|was|were)\b`)
	rePassiveVoice    = regexp.MustCompile(`(?i)\b(is|are|was|were|been|being)\s+\w+ed\b`)
)

// semanticScore runs ratio-based checks on weak-verb density, expletive
// sentence openers and passive-voice constructions.
func semanticScore(text string, st textStats) float64 {
	score := 0.0

	if len(st.words) > 0 {
		weak := 0
		for _, w := range st.words {
			if _, ok := weakVerbs[strings.Trim(w, `.,;:!?"'()`)]; ok {
				weak++
			}
		}
		if float64(weak)/float64(len(st.words)) > 0.15 {
			score += 0.1
		}
	}

	if n := len(st.sentences); n > 0 {
		openers := 0
		for _, s := range st.sentences {
			if reExpletiveOpener.MatchString(s) {
				openers++
			}
		}
		if float64(openers)/float64(n) > 0.05 {
			score += 0.1
		}
	}

	if len(rePassiveVoice.FindAllString(text, -1)) > 2 {
		score += 0.1
	}

	return score
}

var (
	reBulletList   = regexp.MustCompile(`(?m)^\s*[-*•]\s+\S`)
	reNumberedList = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+\S`)
)

// structuralScore checks for the list-heavy, evenly-sized-paragraph shape
// common in generated pages.
func structuralScore(text string, st textStats) float64 {
	score := 0.0
	if reBulletList.MatchString(text) {
		score += 0.1
	}
	if reNumberedList.MatchString(text) {
		score += 0.1
	}
	if n := len(st.paragraphs); n > 0 {
		avg := float64(len(st.sentences)) / float64(n)
		if avg >= 3 && avg <= 6 {
			score += 0.1
		}
	}
	return score
}
