package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/sophia-platform/sophia/internal/config"
	"github.com/sophia-platform/sophia/internal/consciousness"
	"github.com/sophia-platform/sophia/internal/engine"
	"github.com/sophia-platform/sophia/internal/firewall"
	"github.com/sophia-platform/sophia/internal/wisdom"
)

// --- No-op Path ---

func TestNew_NilConfig(t *testing.T) {
	obs, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New(nil) error: %v", err)
	}
	if obs != nil {
		t.Fatal("expected nil Observability for nil config")
	}
}

func TestNew_AllDisabled(t *testing.T) {
	obs, err := New(&config.ObservabilityConfig{}, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if obs == nil {
		t.Fatal("expected non-nil Observability")
	}
	if obs.Metrics != nil {
		t.Error("metrics should be nil when not enabled")
	}
	if obs.Tracer != nil {
		t.Error("tracer should be nil when not enabled")
	}
	if obs.Anomaly != nil {
		t.Error("anomaly should be nil when not enabled")
	}
	if obs.Health == nil {
		t.Error("health checker should always be created")
	}
}

func TestObservability_ShutdownNil(t *testing.T) {
	// Should not panic.
	var obs *Observability
	obs.Shutdown(context.Background())
}

func TestTracerOrNil_Nil(t *testing.T) {
	var obs *Observability
	if obs.TracerOrNil() != nil {
		t.Error("expected nil tracer from nil Observability")
	}
}

// --- MetricsCollector ---

func TestMetricsCollector_Created(t *testing.T) {
	m := NewMetricsCollector()
	if m == nil {
		t.Fatal("expected non-nil MetricsCollector")
	}
	if m.Registry == nil {
		t.Fatal("expected non-nil Registry")
	}

	// Counters without observations are absent from Gather; record one of
	// each vec so the families materialize.
	m.AssessmentsTotal.WithLabelValues("awakening", "success").Inc()
	m.GuidanceTotal.WithLabelValues("love", "contemplative", "success").Inc()
	m.ScansTotal.WithLabelValues("pure").Inc()

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"sophia_engine_assessments_total",
		"sophia_engine_guidance_total",
		"sophia_firewall_scans_total",
	} {
		if !names[want] {
			t.Errorf("metric family %s not registered", want)
		}
	}
}

// --- HealthChecker ---

func TestHealthChecker_NoChecks(t *testing.T) {
	h := NewHealthChecker(nil)
	if got := h.CheckReady(context.Background()); got.Status != "ok" {
		t.Errorf("CheckReady with no checks = %q, want ok", got.Status)
	}
	if got := h.CheckHealth(); got.Status != "ok" {
		t.Errorf("CheckHealth = %q, want ok", got.Status)
	}
}

func TestHealthChecker_DegradedOnFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHealthChecker(logger)
	h.AddCheck("db", func(context.Context) error { return nil })
	h.AddCheck("broker", func(context.Context) error { return errors.New("unreachable") })

	status := h.CheckReady(context.Background())
	if status.Status != "degraded" {
		t.Fatalf("Status = %q, want degraded", status.Status)
	}
	if status.Checks["db"].Status != "ok" {
		t.Errorf("db check = %+v", status.Checks["db"])
	}
	if status.Checks["broker"].Status != "fail" || status.Checks["broker"].Message == "" {
		t.Errorf("broker check = %+v", status.Checks["broker"])
	}
}

// --- InstrumentedEngine ---

// stubEngine returns canned results for wrapper tests.
type stubEngine struct {
	scanResult *firewall.Scan
	err        error
}

func (s *stubEngine) Assess(context.Context, string, consciousness.AssessmentInput) (*engine.Assessment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &engine.Assessment{State: consciousness.State{Level: consciousness.LevelExpanding}}, nil
}

func (s *stubEngine) Guidance(context.Context, string, string, wisdom.Domain) (*consciousness.Insight, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &consciousness.Insight{GuidanceType: consciousness.GuidanceContemplative}, nil
}

func (s *stubEngine) DailyGuidance(context.Context, string) (*engine.DailyDigest, error) {
	return &engine.DailyDigest{}, s.err
}

func (s *stubEngine) Meditate(context.Context, string, string, int) (*consciousness.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &consciousness.Session{After: consciousness.State{Level: consciousness.LevelExpanding}}, nil
}

func (s *stubEngine) State(context.Context, string) (consciousness.State, error) {
	return consciousness.State{}, s.err
}

func (s *stubEngine) Sessions(context.Context, string, int) ([]*consciousness.Session, error) {
	return nil, s.err
}

func (s *stubEngine) Session(context.Context, string) (*consciousness.Session, error) {
	return nil, s.err
}

func (s *stubEngine) Insights(context.Context, string, int) ([]*consciousness.Insight, error) {
	return nil, s.err
}

func (s *stubEngine) ScanContent(context.Context, string, string) (*firewall.Scan, error) {
	return s.scanResult, s.err
}

func (s *stubEngine) Purify(context.Context, string, string) (string, *firewall.Scan, error) {
	return "", s.scanResult, s.err
}

func TestWrapEngine_NilObservability(t *testing.T) {
	inner := &stubEngine{}
	if got := WrapEngine(inner, nil); got != engine.Engine(inner) {
		t.Error("nil observability should return the engine unwrapped")
	}
}

func TestInstrumentedEngine_RecordsMetrics(t *testing.T) {
	obs := &Observability{Metrics: NewMetricsCollector()}
	wrapped := WrapEngine(&stubEngine{
		scanResult: &firewall.Scan{IsPure: false, ThreatLevel: 0.4},
	}, obs)

	ctx := context.Background()
	if _, err := wrapped.Assess(ctx, "s", consciousness.AssessmentInput{}); err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if _, err := wrapped.Meditate(ctx, "s", "", 15); err != nil {
		t.Fatalf("Meditate: %v", err)
	}
	if _, err := wrapped.ScanContent(ctx, "content", "test"); err != nil {
		t.Fatalf("ScanContent: %v", err)
	}

	if got := counterValue(t, obs.Metrics.AssessmentsTotal.WithLabelValues("expanding", "success")); got != 1 {
		t.Errorf("assessments counter = %v, want 1", got)
	}
	if got := counterValue(t, obs.Metrics.MeditationsTotal.WithLabelValues("expanding", "success")); got != 1 {
		t.Errorf("meditations counter = %v, want 1", got)
	}
	if got := counterValue(t, obs.Metrics.ScansTotal.WithLabelValues("impure")); got != 1 {
		t.Errorf("scans counter = %v, want 1", got)
	}
}

func TestInstrumentedEngine_RecordsErrors(t *testing.T) {
	obs := &Observability{Metrics: NewMetricsCollector()}
	wrapped := WrapEngine(&stubEngine{err: errors.New("boom")}, obs)

	if _, err := wrapped.Assess(context.Background(), "s", consciousness.AssessmentInput{}); err == nil {
		t.Fatal("expected error passthrough")
	}
	if got := counterValue(t, obs.Metrics.AssessmentsTotal.WithLabelValues("unknown", "error")); got != 1 {
		t.Errorf("error counter = %v, want 1", got)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("reading counter: %v", err)
	}
	return m.GetCounter().GetValue()
}
