package jailbreak

import (
	"regexp"
	"strings"

	"github.com/pagewarden/pagewarden/pkg/signatures"
)

// Heuristic checks catch payloads that dodge the pattern categories:
// encoded blobs, escape-sequence stuffing, command-style phrasing, and
// fake chat transcripts embedded in page text.

type heuristic struct {
	name     string
	severity signatures.Severity
}

var (
	reBase64Run = regexp.MustCompile(`[A-Za-z0-9+/]{40,}={0,2}`)
	reEscapeSeq = regexp.MustCompile(`\\[nrtux]`)
	reRoleTurn  = regexp.MustCompile(`(?im)^\s*(system|assistant|user)\s*:`)
	reChatTag   = regexp.MustCompile(`(?i)<\|?(im_start|im_end|system|endoftext)\|?>`)

	imperativeVerbs = []string{
		"ignore", "disregard", "forget", "bypass", "override", "reveal",
		"print", "output", "repeat", "execute", "pretend", "act",
	}
	reImperative = regexp.MustCompile(`(?im)^\s*(` + strings.Join(imperativeVerbs, "|") + `)\b`)
)

func heuristicChecks(text string) []heuristic {
	var out []heuristic

	if len(reBase64Run.FindAllString(text, 3)) > 2 {
		out = append(out, heuristic{"base64_payload_runs", signatures.SeverityHigh})
	}
	if len(reEscapeSeq.FindAllString(text, 6)) > 5 {
		out = append(out, heuristic{"escape_sequence_density", signatures.SeverityMedium})
	}
	if len(reImperative.FindAllString(text, 3)) > 2 {
		out = append(out, heuristic{"imperative_density", signatures.SeverityMedium})
	}
	if reRoleTurn.MatchString(text) || reChatTag.MatchString(text) {
		out = append(out, heuristic{"chat_turn_markers", signatures.SeverityHigh})
	}

	return out
}
