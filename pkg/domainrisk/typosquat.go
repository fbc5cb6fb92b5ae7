package domainrisk

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Reference brands covering the most-impersonated consumer, banking and
// developer properties. Matched against the base label only.
var brandList = []string{
	"google", "microsoft", "apple", "amazon", "facebook", "paypal",
	"netflix", "instagram", "twitter", "linkedin", "github", "dropbox",
	"adobe", "spotify", "whatsapp", "youtube", "ebay", "walmart",
	"chase", "wellsfargo", "bankofamerica", "coinbase",
}

// Leetspeak substitutions commonly used to dodge exact-string brand checks.
var leetMap = map[rune]rune{
	'0': 'o',
	'1': 'l',
	'3': 'e',
	'5': 's',
	'@': 'a',
	'$': 's',
}

func deleet(s string) string {
	return strings.Map(func(r rune) rune {
		if repl, ok := leetMap[r]; ok {
			return repl
		}
		return r
	}, s)
}

// detectTyposquat finds the best brand-similarity match for a base label.
// Character-substitution and combosquatting matches are returned as soon as
// found; edit-distance matches keep only the lowest distance across all
// brands. An exact brand match is the legitimate domain, never a squat.
func detectTyposquat(base string) TyposquatResult {
	if base == "" {
		return TyposquatResult{}
	}

	best := TyposquatResult{}
	bestDist := -1

	for _, brand := range brandList {
		if base == brand {
			return TyposquatResult{LikelyTarget: brand}
		}

		if deleet(base) == brand {
			return TyposquatResult{
				IsTyposquat:  true,
				LikelyTarget: brand,
				Technique:    "character_substitution",
				Confidence:   0.85,
			}
		}

		if len(base) > len(brand) && strings.Contains(base, brand) {
			return TyposquatResult{
				IsTyposquat:  true,
				LikelyTarget: brand,
				Technique:    "combosquatting",
				Confidence:   0.9,
			}
		}

		if len(brand) < 4 {
			continue
		}
		dist := levenshtein.ComputeDistance(base, brand)
		if dist == 0 || dist > 2 {
			continue
		}
		if bestDist == -1 || dist < bestDist {
			bestDist = dist
			longest := len(base)
			if len(brand) > longest {
				longest = len(brand)
			}
			best = TyposquatResult{
				IsTyposquat:  true,
				LikelyTarget: brand,
				Technique:    classifyEdit(base, brand),
				Confidence:   1 - float64(dist)/float64(longest),
				Distance:     dist,
			}
		}
	}

	return best
}

// classifyEdit names the edit technique from the length delta. Equal-length
// pairs are checked for a single adjacent swap before falling back to
// substitution.
func classifyEdit(base, brand string) string {
	switch {
	case len(base) > len(brand):
		return "insertion"
	case len(base) < len(brand):
		return "omission"
	case isTransposition(base, brand):
		return "transposition"
	default:
		return "substitution"
	}
}

func isTransposition(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	diff := -1
	for i := 0; i < len(a); i++ {
		if a[i] == b[i] {
			continue
		}
		if diff >= 0 {
			// A transposition differs at exactly two adjacent positions
			// with the characters swapped.
			return i == diff+1 && a[i] == b[diff] && a[diff] == b[i] &&
				a[i+1:] == b[i+1:]
		}
		diff = i
	}
	return false
}
