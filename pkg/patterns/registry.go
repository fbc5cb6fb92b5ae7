// Package patterns provides the shared lexical matcher used by every text
// detector. Matchers are compiled once when a signature document is loaded,
// never per call.
//
// Design principles:
//   - COMPILE ONCE: categories are compiled at registry build, not per-request
//   - REPRODUCIBLE: every category is always evaluated, so scores never depend
//     on match order or early exits
//   - PURE: matching has no side effects over (text, categories)
package patterns

import (
	"regexp"
	"strings"

	"github.com/pagewarden/pagewarden/pkg/signatures"
)

// Category holds a compiled pattern category.
type Category struct {
	Name     string
	Family   string
	Severity signatures.Severity
	Weight   float64
	Matchers []*regexp.Regexp
}

// Match is the per-category outcome of a scan: distinct matched substrings
// (case-insensitive set semantics) and their count.
type Match struct {
	Category string
	Family   string
	Severity signatures.Severity
	Weight   float64
	Hits     int
	Examples []string
}

// Registry is an immutable set of compiled categories for one detector
// section. Build a new one when the signature document changes.
type Registry struct {
	section    string
	categories []Category
}

// Build compiles one detector section of a signature document. Matchers
// that fail to compile are skipped inside CompileMatchers with a warning;
// a category left with no working matchers is dropped.
func Build(doc *signatures.Document, section string) *Registry {
	cats := doc.Section(section)
	r := &Registry{section: section, categories: make([]Category, 0, len(cats))}
	for _, c := range cats {
		compiled := signatures.CompileMatchers(section, c)
		if len(compiled) == 0 {
			continue
		}
		r.categories = append(r.categories, Category{
			Name:     c.Name,
			Family:   c.Family,
			Severity: c.Severity,
			Weight:   c.Weight,
			Matchers: compiled,
		})
	}
	return r
}

// Categories returns the compiled categories. The slice is shared; callers
// must not mutate it.
func (r *Registry) Categories() []Category {
	return r.categories
}

// Len returns the number of live categories.
func (r *Registry) Len() int {
	return len(r.categories)
}

// Scan evaluates every category against text and returns one Match per
// category that hit. All occurrences are collected; duplicate substrings
// merge case-insensitively so repeated boilerplate counts once.
func (r *Registry) Scan(text string) []Match {
	var out []Match
	for _, cat := range r.categories {
		if m, ok := scanCategory(text, cat); ok {
			out = append(out, m)
		}
	}
	return out
}

// ScanCategory evaluates a single named category; ok is false when the
// category is unknown or nothing matched.
func (r *Registry) ScanCategory(text, name string) (Match, bool) {
	for _, cat := range r.categories {
		if cat.Name == name {
			return scanCategory(text, cat)
		}
	}
	return Match{}, false
}

func scanCategory(text string, cat Category) (Match, bool) {
	seen := make(map[string]struct{})
	var examples []string
	for _, re := range cat.Matchers {
		for _, hit := range re.FindAllString(text, -1) {
			key := strings.ToLower(hit)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			examples = append(examples, hit)
		}
	}
	if len(examples) == 0 {
		return Match{}, false
	}
	return Match{
		Category: cat.Name,
		Family:   cat.Family,
		Severity: cat.Severity,
		Weight:   cat.Weight,
		Hits:     len(examples),
		Examples: examples,
	}, true
}

// MaxSeverity returns the highest severity among matches, or "" when empty.
func MaxSeverity(matches []Match) signatures.Severity {
	var max signatures.Severity
	for _, m := range matches {
		if m.Severity.Rank() > max.Rank() {
			max = m.Severity
		}
	}
	return max
}
