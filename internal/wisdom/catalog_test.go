package wisdom

import (
	"errors"
	"testing"
)

func TestParseDomain(t *testing.T) {
	for _, d := range Domains() {
		got, err := ParseDomain(string(d))
		if err != nil {
			t.Fatalf("ParseDomain(%q) error: %v", d, err)
		}
		if got != d {
			t.Errorf("ParseDomain(%q) = %q", d, got)
		}
	}

	if got, err := ParseDomain("  Healing "); err != nil || got != DomainHealing {
		t.Errorf("ParseDomain lenient = %q, %v", got, err)
	}

	if _, err := ParseDomain("alchemy"); !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("ParseDomain(alchemy) err = %v, want ErrUnknownDomain", err)
	}
	if _, err := ParseDomain(""); !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("ParseDomain(empty) err = %v, want ErrUnknownDomain", err)
	}
}

func TestCatalogComplete(t *testing.T) {
	for _, d := range Domains() {
		if len(Guidance(d)) == 0 {
			t.Errorf("domain %q has no guidance texts", d)
		}
		if len(References(d)) == 0 {
			t.Errorf("domain %q has no sacred references", d)
		}
	}
	if got := len(Domains()); got != 7 {
		t.Errorf("domain count = %d, want 7", got)
	}
	if got := Size(); got != 35 {
		t.Errorf("catalog size = %d, want 35", got)
	}
}

func TestPhase(t *testing.T) {
	levels := PhaseLevels()
	if len(levels) != 5 {
		t.Fatalf("phase levels = %v, want 5", levels)
	}
	for _, level := range levels {
		phase, ok := Phase(level)
		if !ok {
			t.Fatalf("Phase(%q) missing", level)
		}
		if phase.Description == "" || phase.Guidance == "" {
			t.Errorf("phase %q incomplete: %+v", level, phase)
		}
		if len(phase.Characteristics) == 0 {
			t.Errorf("phase %q has no characteristics", level)
		}
	}

	if _, ok := Phase("ascended"); ok {
		t.Error("Phase(ascended) unexpectedly found")
	}
}
