package domainrisk

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// TLDs dominated by free or near-free registrations with documented abuse
// volume. Presence alone is a flag, not a score contribution.
var suspiciousTLDs = map[string]struct{}{
	"tk": {}, "ml": {}, "ga": {}, "cf": {}, "gq": {},
	"xyz": {}, "top": {}, "club": {}, "work": {}, "click": {},
	"link": {}, "loan": {}, "racing": {}, "review": {}, "download": {},
	"zip": {}, "country": {}, "stream": {}, "gdn": {},
}

func checkTLD(tld string) TLDResult {
	res := TLDResult{TLD: tld}
	if _, ok := suspiciousTLDs[tld]; ok {
		res.Suspicious = true
		res.Reason = fmt.Sprintf(".%s is dominated by free or abused registrars", tld)
	}
	return res
}

var subdomainKeywords = []string{"secure", "login", "verify", "update", "auth", "account"}

// checkSubdomains inspects every label left of the registrable pair and
// records all findings.
func checkSubdomains(labels []string) SubdomainResult {
	res := SubdomainResult{}
	if len(labels) < 3 {
		return res
	}
	subs := labels[:len(labels)-2]
	res.Count = len(subs)

	if res.Count > 3 {
		res.Flags = append(res.Flags, "deep_nesting")
	}
	for _, sub := range subs {
		for _, brand := range brandList {
			if strings.Contains(sub, brand) {
				res.Flags = append(res.Flags, "brand_in_subdomain:"+brand)
			}
		}
		for _, kw := range subdomainKeywords {
			if strings.Contains(sub, kw) {
				res.Flags = append(res.Flags, "keyword:"+kw)
			}
		}
	}
	res.Suspicious = len(res.Flags) > 0
	return res
}

func checkHomoglyph(host string, labels []string) HomoglyphResult {
	res := HomoglyphResult{}
	for _, r := range host {
		if r > unicode.MaxASCII {
			res.Detected = true
			break
		}
	}
	for _, l := range labels {
		if strings.HasPrefix(l, "xn--") {
			res.Detected = true
			res.Punycode = true
			break
		}
	}
	return res
}

// detectBrandImpersonation flags a base label that embeds a brand without
// being it. Hyphen-adjacent placement ("paypal-security") reads as official
// branding and rates higher than a bare substring.
func detectBrandImpersonation(base string) BrandResult {
	res := BrandResult{}
	hyphenParts := strings.Split(base, "-")

	for _, brand := range brandList {
		if base == brand || !strings.Contains(base, brand) {
			continue
		}
		hit := BrandHit{Brand: brand, Kind: "substring", Confidence: 0.8}
		for _, part := range hyphenParts {
			if part == brand && len(hyphenParts) > 1 {
				hit.Kind = "hyphen_adjacent"
				hit.Confidence = 0.9
				break
			}
		}
		res.Hits = append(res.Hits, hit)
		if hit.Confidence > res.Confidence {
			res.Confidence = hit.Confidence
		}
	}
	res.Detected = len(res.Hits) > 0
	return res
}

// rateEntropy computes the Shannon entropy of the base label. High entropy
// points at generated (DGA-style) names.
func rateEntropy(base string) EntropyResult {
	res := EntropyResult{Level: "low"}
	if base == "" {
		return res
	}

	freq := make(map[rune]int, len(base))
	total := 0
	for _, r := range base {
		freq[r]++
		total++
	}
	for _, n := range freq {
		p := float64(n) / float64(total)
		res.Value -= p * math.Log2(p)
	}

	switch {
	case res.Value > 4.5:
		res.Level = "high"
	case res.Value > 3.5:
		res.Level = "medium"
	}
	return res
}

// suspicionScore is the advisory lexical composite: it feeds user-facing
// recommendations only and is never part of the numeric risk score.
func suspicionScore(base string) float64 {
	if base == "" {
		return 0
	}
	score := 0.0

	if strings.Count(base, "-") > 2 {
		score += 0.25
	}

	digits, vowels, letters := 0, 0, 0
	for _, r := range base {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
			if strings.ContainsRune("aeiou", r) {
				vowels++
			}
		}
	}

	if digits > 0 && letters == 0 {
		score += 0.25
	}
	if letters > 0 {
		ratio := float64(vowels) / float64(letters)
		if ratio < 0.2 || ratio > 0.6 {
			score += 0.25
		}
	}
	if len(base) < 6 && digits > 0 {
		score += 0.25
	}

	if score > 1 {
		score = 1
	}
	return score
}
