package signatures

import (
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("embedded defaults failed validation: %v", err)
	}
}

func TestDefaultIsFreshCopy(t *testing.T) {
	a := Default()
	a.Signatures[SectionJailbreak] = nil
	b := Default()
	if len(b.Section(SectionJailbreak)) == 0 {
		t.Fatal("mutating one Default() copy leaked into the next")
	}
}

func TestValidateRejections(t *testing.T) {
	valid := func() *Document { return Default() }

	testCases := []struct {
		name   string
		mutate func(*Document)
	}{
		{"missing version", func(d *Document) { d.Version = "" }},
		{"missing signatures", func(d *Document) { d.Signatures = nil }},
		{"missing thresholds", func(d *Document) { d.Thresholds = nil }},
		{"weight above one", func(d *Document) {
			cats := d.Signatures[SectionJailbreak]
			cats[0].Weight = 1.5
		}},
		{"unknown severity", func(d *Document) {
			cats := d.Signatures[SectionJailbreak]
			cats[0].Severity = "extreme"
		}},
		{"empty matchers", func(d *Document) {
			cats := d.Signatures[SectionJailbreak]
			cats[0].Matchers = nil
		}},
		{"aitext weights exceed budget", func(d *Document) {
			cats := d.Signatures[SectionAIText]
			for i := range cats {
				cats[i].Weight = 0.9
			}
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := valid()
			tc.mutate(doc)
			if err := doc.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	data := []byte(`
version: "2026.09.0"
signatures:
  jailbreak:
    - name: instruction_override
      severity: critical
      weight: 0.9
      matchers:
        - 'ignore (all )?previous instructions'
thresholds:
  min_text_length: 100
whitelist:
  - example.com
`)
	doc, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Version != "2026.09.0" {
		t.Errorf("version = %q", doc.Version)
	}
	if len(doc.Section(SectionJailbreak)) != 1 {
		t.Errorf("expected 1 jailbreak category")
	}
	if got := doc.Threshold("min_text_length", 0); got != 100 {
		t.Errorf("threshold = %v, want 100", got)
	}
	if got := doc.Threshold("unknown", 42); got != 42 {
		t.Errorf("fallback threshold = %v, want 42", got)
	}
}

func TestLoadMalformed(t *testing.T) {
	if _, err := Load([]byte(`{not yaml`)); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Load([]byte(`version: "1"`)); err == nil {
		t.Error("expected validation error for missing sections")
	}
}

func TestStoreReplaceKeepsLastKnownGood(t *testing.T) {
	store := NewStore(nil)
	orig := store.Current()
	if orig.Version != DefaultVersion {
		t.Fatalf("store not seeded with defaults")
	}

	bad := &Document{Version: ""}
	if err := store.Replace(bad); err == nil {
		t.Fatal("expected rejection of invalid document")
	}
	if store.Current() != orig {
		t.Error("rejected document must not replace the active one")
	}

	good := Default()
	good.Version = "next"
	if err := store.Replace(good); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if store.Current().Version != "next" {
		t.Error("valid document not installed")
	}
}

func TestCompileMatchersSkipsBroken(t *testing.T) {
	c := Category{
		Name: "x", Severity: SeverityLow, Weight: 0.1,
		Matchers: []string{`good`, `(bad`, `also good`},
	}
	compiled := CompileMatchers("test", c)
	if len(compiled) != 2 {
		t.Errorf("expected 2 compiled matchers, got %d", len(compiled))
	}
}
