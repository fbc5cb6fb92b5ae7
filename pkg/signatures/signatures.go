// Package signatures defines the versioned signature configuration consumed
// by every detector. A configuration document carries pattern categories,
// thresholds, and a domain whitelist. Documents can be swapped wholesale
// between analysis cycles; a malformed document is rejected and the
// last-known-good configuration stays in effect.
package signatures

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

// Severity is the tier assigned to a pattern category.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for max-severity comparisons.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Category is one named pattern category within a detector section.
type Category struct {
	Name     string   `yaml:"name"`
	Family   string   `yaml:"family,omitempty"` // model-family tag, fingerprint section only
	Severity Severity `yaml:"severity"`
	Weight   float64  `yaml:"weight"`
	Matchers []string `yaml:"matchers"`
}

// Document is the versioned signature configuration.
type Document struct {
	Version    string                `yaml:"version"`
	Signatures map[string][]Category `yaml:"signatures"` // keyed by detector section
	Thresholds map[string]float64    `yaml:"thresholds"`
	Whitelist  []string              `yaml:"whitelist,omitempty"`
}

// Detector section keys within Document.Signatures.
const (
	SectionAIText      = "aitext"
	SectionFingerprint = "fingerprint"
	SectionJailbreak   = "jailbreak"
)

// Section returns the categories for a detector section, never nil.
func (d *Document) Section(name string) []Category {
	if d == nil || d.Signatures == nil {
		return []Category{}
	}
	if cats, ok := d.Signatures[name]; ok {
		return cats
	}
	return []Category{}
}

// Threshold returns a named threshold or the given fallback.
func (d *Document) Threshold(name string, fallback float64) float64 {
	if d == nil || d.Thresholds == nil {
		return fallback
	}
	if v, ok := d.Thresholds[name]; ok {
		return v
	}
	return fallback
}

// Validate checks document shape before acceptance. A document missing any
// of version, signatures, or thresholds is rejected outright. Category
// weights must sit in [0,1]; the aitext marker weights must sum to at most 1
// since they form a single linguistic budget. Matchers are NOT compiled
// here: an individually broken matcher is skipped at registry build time
// with a warning, so one bad pattern cannot sink the whole document.
func (d *Document) Validate() error {
	if d == nil {
		return fmt.Errorf("signatures: nil document")
	}
	if d.Version == "" {
		return fmt.Errorf("signatures: missing version")
	}
	if len(d.Signatures) == 0 {
		return fmt.Errorf("signatures: missing signatures")
	}
	if len(d.Thresholds) == 0 {
		return fmt.Errorf("signatures: missing thresholds")
	}
	for section, cats := range d.Signatures {
		weightSum := 0.0
		for _, c := range cats {
			if c.Name == "" {
				return fmt.Errorf("signatures: %s: category with empty name", section)
			}
			if c.Severity.Rank() == 0 {
				return fmt.Errorf("signatures: %s/%s: unknown severity %q", section, c.Name, c.Severity)
			}
			if c.Weight < 0 || c.Weight > 1 {
				return fmt.Errorf("signatures: %s/%s: weight %.3f outside [0,1]", section, c.Name, c.Weight)
			}
			if len(c.Matchers) == 0 {
				return fmt.Errorf("signatures: %s/%s: no matchers", section, c.Name)
			}
			weightSum += c.Weight
		}
		if section == SectionAIText && weightSum > 1.0+1e-9 {
			return fmt.Errorf("signatures: aitext marker weights sum to %.3f, must be <= 1", weightSum)
		}
	}
	return nil
}

// CompileMatchers compiles a category's matchers case-insensitively,
// skipping any that fail with a logged warning.
func CompileMatchers(section string, c Category) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(c.Matchers))
	for _, m := range c.Matchers {
		re, err := regexp.Compile("(?i)" + m)
		if err != nil {
			log.Printf("[WARN] signatures: %s/%s: skipping bad matcher %q: %v", section, c.Name, m, err)
			continue
		}
		out = append(out, re)
	}
	return out
}

// Load parses and validates a YAML signature document.
func Load(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("signatures: parse: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile reads and validates a signature document from disk.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("signatures: read %s: %w", path, err)
	}
	return Load(data)
}

// Store holds the active signature document and supports wholesale
// replacement between analysis cycles. Readers take a snapshot pointer;
// documents are replaced, never mutated in place.
type Store struct {
	mu  sync.RWMutex
	doc *Document
}

// NewStore creates a store seeded with the given document, or the embedded
// defaults when doc is nil.
func NewStore(doc *Document) *Store {
	if doc == nil {
		doc = Default()
	}
	return &Store{doc: doc}
}

// Current returns the active document snapshot.
func (s *Store) Current() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Replace validates and installs a new document. On rejection the previous
// document stays active and the error is returned to the caller.
func (s *Store) Replace(doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

// ReplaceFromFile loads a document from disk and installs it, keeping the
// current document on any failure.
func (s *Store) ReplaceFromFile(path string) error {
	doc, err := LoadFile(path)
	if err != nil {
		return err
	}
	return s.Replace(doc)
}
