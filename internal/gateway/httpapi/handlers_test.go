package httpapi

import (
	"testing"
	"time"

	"github.com/sophia-platform/sophia/internal/consciousness"
)

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"wisdom":       "Wisdom",
		"divine_unity": "Divine Unity",
		"":             "",
	}
	for in, want := range cases {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRound3(t *testing.T) {
	cases := map[float64]float64{
		0.123456: 0.123,
		0.1236:   0.124,
		-0.1236:  -0.124,
		0:        0,
	}
	for in, want := range cases {
		if got := round3(in); got != want {
			t.Errorf("round3(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestEvolutionDelta(t *testing.T) {
	now := time.Now().UTC()
	before := consciousness.Neutral(now)
	after := before
	after.Clarity += 0.1234
	after.MentalPeace += 0.05
	after.Level = consciousness.LevelExpanding

	delta := evolutionDelta(&consciousness.Session{Before: before, After: after})
	if !delta.LevelChanged {
		t.Error("expected level change to be reported")
	}
	if got := delta.Improvements["clarity"]; got != 0.123 {
		t.Errorf("clarity improvement = %v, want 0.123", got)
	}
	if got := delta.Improvements["mental_peace"]; got != 0.05 {
		t.Errorf("mental_peace improvement = %v, want 0.05", got)
	}
	if got := delta.Improvements["divine_connection"]; got != 0 {
		t.Errorf("divine_connection improvement = %v, want 0", got)
	}
}
