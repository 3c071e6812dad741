package ws

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStreamTrackerCounts(t *testing.T) {
	tracker := NewStreamTracker(testLogger())

	id1 := tracker.Begin("seeker-a", "peace", 20)
	id2 := tracker.Begin("seeker-a", "clarity", 10)
	id3 := tracker.Begin("seeker-b", "healing", 30)

	if got := tracker.ActiveFor("seeker-a"); got != 2 {
		t.Errorf("ActiveFor(seeker-a) = %d, want 2", got)
	}
	if got := tracker.ActiveCount(); got != 3 {
		t.Errorf("ActiveCount() = %d, want 3", got)
	}

	tracker.End(id1)
	tracker.End(id2)
	if got := tracker.ActiveFor("seeker-a"); got != 0 {
		t.Errorf("ActiveFor(seeker-a) after end = %d, want 0", got)
	}
	if got := tracker.ActiveFor("seeker-b"); got != 1 {
		t.Errorf("ActiveFor(seeker-b) = %d, want 1", got)
	}

	// Ending an unknown stream is a no-op.
	tracker.End("missing")
	tracker.End(id3)
	if got := tracker.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() after draining = %d, want 0", got)
	}
}

func TestPhaseNames(t *testing.T) {
	cases := []struct {
		n    int
		want []string
	}{
		{2, []string{"opening", "integration"}},
		{3, []string{"opening", "deepening", "integration"}},
	}
	for _, tc := range cases {
		got := phaseNames(tc.n)
		if len(got) != len(tc.want) {
			t.Fatalf("phaseNames(%d) = %v, want %v", tc.n, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("phaseNames(%d)[%d] = %q, want %q", tc.n, i, got[i], tc.want[i])
			}
		}
	}
}
