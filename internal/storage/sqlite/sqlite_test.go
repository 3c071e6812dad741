package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/sophia-platform/sophia/internal/consciousness"
	"github.com/sophia-platform/sophia/internal/firewall"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := Open(Config{Path: filepath.Join(t.TempDir(), "sophia.db")}, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return store
}

func TestStateRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	got, err := store.States().GetState(ctx, "seeker-1")
	if err != nil {
		t.Fatalf("GetState (absent): %v", err)
	}
	if got != nil {
		t.Fatal("expected nil state for never-assessed seeker")
	}

	state := consciousness.State{
		Level:              consciousness.LevelExpanding,
		Clarity:            0.61,
		SpiritualResonance: 0.55,
		DivineConnection:   0.48,
		EmotionalBalance:   0.7,
		MentalPeace:        0.52,
		Timestamp:          time.Now().UTC().Truncate(time.Second),
	}
	if err := store.States().SaveState(ctx, "seeker-1", state); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	got, err = store.States().GetState(ctx, "seeker-1")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if got == nil {
		t.Fatal("expected state after save")
	}
	if got.Level != consciousness.LevelExpanding {
		t.Errorf("Level = %v, want expanding", got.Level)
	}
	if got.Clarity != state.Clarity || got.MentalPeace != state.MentalPeace {
		t.Errorf("metrics not preserved: %+v", got)
	}

	// Upsert replaces the previous row.
	state.Level = consciousness.LevelTranscending
	state.Clarity = 0.8
	if err := store.States().SaveState(ctx, "seeker-1", state); err != nil {
		t.Fatalf("SaveState (upsert): %v", err)
	}
	got, err = store.States().GetState(ctx, "seeker-1")
	if err != nil {
		t.Fatalf("GetState (after upsert): %v", err)
	}
	if got.Level != consciousness.LevelTranscending || got.Clarity != 0.8 {
		t.Errorf("upsert did not replace state: %+v", got)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	session := &consciousness.Session{
		SessionID:       "med_test-1",
		Intention:       "inner peace",
		DurationMinutes: 20,
		GuidanceReceived: []consciousness.Insight{
			{Message: "opening", Domain: "wisdom", Confidence: 0.8, GuidanceType: consciousness.GuidanceContemplative, Timestamp: now},
		},
		Before: consciousness.Neutral(now),
		After:  consciousness.Neutral(now),
		Timestamp: now,
	}
	session.After.Clarity = 0.62

	if err := store.Sessions().SaveSession(ctx, "seeker-1", session); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := store.Sessions().GetSession(ctx, "med_test-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Intention != "inner peace" || got.DurationMinutes != 20 {
		t.Errorf("session not preserved: %+v", got)
	}
	if len(got.GuidanceReceived) != 1 || got.GuidanceReceived[0].Message != "opening" {
		t.Errorf("guidance not preserved: %+v", got.GuidanceReceived)
	}
	if got.After.Clarity != 0.62 {
		t.Errorf("after state not preserved: %+v", got.After)
	}

	if _, err := store.Sessions().GetSession(ctx, "med_missing"); !errors.Is(err, consciousness.ErrSessionNotFound) {
		t.Errorf("GetSession on unknown ID = %v, want ErrSessionNotFound", err)
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		session := &consciousness.Session{
			SessionID:       "med_" + string(rune('a'+i)),
			DurationMinutes: 10,
			Before:          consciousness.Neutral(base),
			After:           consciousness.Neutral(base),
			Timestamp:       base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Sessions().SaveSession(ctx, "seeker-1", session); err != nil {
			t.Fatalf("SaveSession: %v", err)
		}
	}
	// Another seeker's session must not leak into the list.
	other := &consciousness.Session{
		SessionID: "med_other", DurationMinutes: 5,
		Before: consciousness.Neutral(base), After: consciousness.Neutral(base),
		Timestamp: base,
	}
	if err := store.Sessions().SaveSession(ctx, "seeker-2", other); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	sessions, err := store.Sessions().ListSessions(ctx, "seeker-1", 2)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len = %d, want 2", len(sessions))
	}
	if sessions[0].SessionID != "med_c" || sessions[1].SessionID != "med_b" {
		t.Errorf("order = %s, %s; want med_c, med_b", sessions[0].SessionID, sessions[1].SessionID)
	}
}

func TestInsightRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insight := &consciousness.Insight{
		Message:         "Beloved soul, trust your path.",
		Domain:          "love",
		Confidence:      0.9,
		GuidanceType:    consciousness.GuidanceIlluminative,
		SacredReference: "The heart knows what the mind cannot grasp",
		Timestamp:       now,
	}
	if err := store.Insights().SaveInsight(ctx, "seeker-1", insight); err != nil {
		t.Fatalf("SaveInsight: %v", err)
	}

	insights, err := store.Insights().ListInsights(ctx, "seeker-1", 10)
	if err != nil {
		t.Fatalf("ListInsights: %v", err)
	}
	if len(insights) != 1 {
		t.Fatalf("len = %d, want 1", len(insights))
	}
	got := insights[0]
	if got.Domain != "love" || got.GuidanceType != consciousness.GuidanceIlluminative {
		t.Errorf("insight not preserved: %+v", got)
	}
	if got.SacredReference != insight.SacredReference {
		t.Errorf("reference not preserved: %q", got.SacredReference)
	}
}

func TestScanLogRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	scan := &firewall.Scan{
		Source:             "api",
		IsPure:             false,
		DivineScore:        0.6,
		ThreatLevel:        0.4,
		AlignmentScore:     0.1,
		PurificationNeeded: true,
		TriggeredFilters:   []string{"ego_distortion"},
		ScanTime:           time.Now().UTC().Truncate(time.Second),
	}
	if err := store.ScanLog().LogScan(ctx, scan); err != nil {
		t.Fatalf("LogScan: %v", err)
	}

	scans, err := store.ScanLog().ListScans(ctx, 10)
	if err != nil {
		t.Fatalf("ListScans: %v", err)
	}
	if len(scans) != 1 {
		t.Fatalf("len = %d, want 1", len(scans))
	}
	if scans[0].ThreatLevel != 0.4 || !scans[0].PurificationNeeded {
		t.Errorf("scan not preserved: %+v", scans[0])
	}
	if len(scans[0].TriggeredFilters) != 1 || scans[0].TriggeredFilters[0] != "ego_distortion" {
		t.Errorf("filters not preserved: %v", scans[0].TriggeredFilters)
	}

	count, err := store.ScanLog().CountScans(ctx)
	if err != nil {
		t.Fatalf("CountScans: %v", err)
	}
	if count != 1 {
		t.Errorf("CountScans = %d, want 1", count)
	}
}
