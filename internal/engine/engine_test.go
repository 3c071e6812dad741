package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/sophia-platform/sophia/internal/consciousness"
	"github.com/sophia-platform/sophia/internal/firewall"
	"github.com/sophia-platform/sophia/internal/storage"
	"github.com/sophia-platform/sophia/internal/wisdom"
)

// memStore is an in-memory storage.Store for engine tests.
type memStore struct {
	mu       sync.Mutex
	states   map[string]consciousness.State
	sessions map[string]*consciousness.Session
	order    []string // session IDs in insertion order
	insights map[string][]*consciousness.Insight
	scans    []*firewall.Scan
}

func newMemStore() *memStore {
	return &memStore{
		states:   make(map[string]consciousness.State),
		sessions: make(map[string]*consciousness.Session),
		insights: make(map[string][]*consciousness.Insight),
	}
}

func (m *memStore) States() consciousness.StateStore     { return m }
func (m *memStore) Sessions() consciousness.SessionStore { return m }
func (m *memStore) Insights() consciousness.InsightStore { return m }
func (m *memStore) ScanLog() firewall.ScanLogStore       { return m }
func (m *memStore) Migrate(context.Context) error        { return nil }
func (m *memStore) Ping(context.Context) error           { return nil }
func (m *memStore) Close() error                         { return nil }
func (m *memStore) Driver() string                       { return "memory" }

func (m *memStore) SaveState(_ context.Context, seekerID string, state consciousness.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[seekerID] = state
	return nil
}

func (m *memStore) GetState(_ context.Context, seekerID string) (*consciousness.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[seekerID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (m *memStore) SaveSession(_ context.Context, seekerID string, s *consciousness.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.SessionID] = s
	m.order = append(m.order, s.SessionID)
	return nil
}

func (m *memStore) GetSession(_ context.Context, sessionID string) (*consciousness.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, consciousness.ErrSessionNotFound
	}
	return s, nil
}

func (m *memStore) ListSessions(_ context.Context, _ string, limit int) ([]*consciousness.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*consciousness.Session
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.sessions[m.order[i]])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) SaveInsight(_ context.Context, seekerID string, in *consciousness.Insight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insights[seekerID] = append(m.insights[seekerID], in)
	return nil
}

func (m *memStore) ListInsights(_ context.Context, seekerID string, limit int) ([]*consciousness.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.insights[seekerID]
	var out []*consciousness.Insight
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) LogScan(_ context.Context, scan *firewall.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans = append(m.scans, scan)
	return nil
}

func (m *memStore) ListScans(_ context.Context, limit int) ([]*firewall.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*firewall.Scan
	for i := len(m.scans) - 1; i >= 0; i-- {
		out = append(out, m.scans[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) CountScans(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.scans)), nil
}

var _ storage.Store = (*memStore)(nil)

func newTestService(store storage.Store) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(consciousness.NewSeededRand(7), store, firewall.New(logger), logger)
}

func TestAssessPersistsStateAndReturnsPhase(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	result, err := svc.Assess(ctx, "seeker-1", consciousness.AssessmentInput{
		ClarityIndicators:   []string{"focused", "present", "aware"},
		SpiritualPractices:  []string{"meditation", "prayer"},
		PracticeFrequency:   0.6,
		DivineExperiences:   []string{"synchronicity"},
		PrayerFrequency:     0.5,
		PeaceFrequency:      0.7,
		MeditationFrequency: 0.5,
	})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if result.Previous != nil {
		t.Error("first assessment should have no previous state")
	}
	if result.Phase.Description == "" {
		t.Error("growth phase metadata missing")
	}

	saved, err := store.GetState(ctx, "seeker-1")
	if err != nil || saved == nil {
		t.Fatalf("state not persisted: %v", err)
	}
	if saved.Level != result.State.Level {
		t.Errorf("persisted level %v != returned %v", saved.Level, result.State.Level)
	}

	// Second assessment reports the first as previous.
	second, err := svc.Assess(ctx, "seeker-1", consciousness.AssessmentInput{})
	if err != nil {
		t.Fatalf("Assess (second): %v", err)
	}
	if second.Previous == nil {
		t.Error("second assessment should carry the previous state")
	}
}

func TestGuidancePersistsInsight(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	insight, err := svc.Guidance(ctx, "seeker-1", "How should I find peace?", wisdom.DomainHealing)
	if err != nil {
		t.Fatalf("Guidance: %v", err)
	}
	if insight.GuidanceType != consciousness.GuidanceInstructional {
		t.Errorf("GuidanceType = %v, want instructional", insight.GuidanceType)
	}

	insights, err := svc.Insights(ctx, "seeker-1", 10)
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if len(insights) != 1 {
		t.Fatalf("persisted insights = %d, want 1", len(insights))
	}
}

func TestDailyGuidanceHasThreeParts(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	digest, err := svc.DailyGuidance(ctx, "seeker-1")
	if err != nil {
		t.Fatalf("DailyGuidance: %v", err)
	}
	if digest.Midday.Domain != wisdom.DomainLove {
		t.Errorf("midday domain = %v, want love", digest.Midday.Domain)
	}
	if digest.Morning.Domain != wisdom.DomainWisdom && digest.Morning.Domain != wisdom.DomainPurpose {
		t.Errorf("morning domain = %v", digest.Morning.Domain)
	}
	if digest.Evening.Domain != wisdom.DomainHealing && digest.Evening.Domain != wisdom.DomainTransformation {
		t.Errorf("evening domain = %v", digest.Evening.Domain)
	}

	insights, err := svc.Insights(ctx, "seeker-1", 10)
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if len(insights) != 3 {
		t.Errorf("persisted insights = %d, want 3", len(insights))
	}
}

func TestMeditatePersistsSessionAndEvolvedState(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	session, err := svc.Meditate(ctx, "seeker-1", "inner peace", 20)
	if err != nil {
		t.Fatalf("Meditate: %v", err)
	}

	got, err := svc.Session(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got.DurationMinutes != 20 {
		t.Errorf("DurationMinutes = %d", got.DurationMinutes)
	}

	state, err := svc.State(ctx, "seeker-1")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state != session.After {
		t.Error("seeker state should match the session's after state")
	}
}

func TestMeditateRejectsInvalidDuration(t *testing.T) {
	svc := newTestService(newMemStore())
	ctx := context.Background()

	for _, duration := range []int{0, -5, 121} {
		if _, err := svc.Meditate(ctx, "seeker-1", "", duration); !errors.Is(err, consciousness.ErrDurationOutOfRange) {
			t.Errorf("Meditate(%d) = %v, want ErrDurationOutOfRange", duration, err)
		}
	}
}

func TestPurifyLogsScan(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	purified, scan, err := svc.Purify(ctx, "I hate this fear and doubt", "api")
	if err != nil {
		t.Fatalf("Purify: %v", err)
	}
	if scan.IsPure {
		t.Error("expected impure scan")
	}
	if purified == "I hate this fear and doubt" {
		t.Error("impure content should be wrapped")
	}

	count, err := store.CountScans(ctx)
	if err != nil {
		t.Fatalf("CountScans: %v", err)
	}
	if count != 1 {
		t.Errorf("scan log count = %d, want 1", count)
	}
}

func TestStateDefaultsToNeutral(t *testing.T) {
	svc := newTestService(newMemStore())

	state, err := svc.State(context.Background(), "fresh-seeker")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.Level != consciousness.LevelAwakening {
		t.Errorf("Level = %v, want awakening", state.Level)
	}
	if state.Clarity != 0.5 {
		t.Errorf("Clarity = %v, want 0.5", state.Clarity)
	}
}
