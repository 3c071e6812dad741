package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sophia-platform/sophia/internal/consciousness"
	"github.com/sophia-platform/sophia/internal/engine"
	"github.com/sophia-platform/sophia/internal/firewall"
	"github.com/sophia-platform/sophia/internal/wisdom"
)

// InstrumentedEngine wraps an engine.Engine with metrics, tracing, and
// anomaly detection. Read-only passthroughs (state, sessions, insights)
// stay uninstrumented; the engine operations that do work are measured.
type InstrumentedEngine struct {
	inner   engine.Engine
	metrics *MetricsCollector
	tracer  trace.Tracer
	anomaly *AnomalyDetector
}

// WrapEngine instruments an engine. Returns the engine unchanged when
// observability is disabled entirely.
func WrapEngine(inner engine.Engine, obs *Observability) engine.Engine {
	if obs == nil {
		return inner
	}
	var tracer trace.Tracer
	if obs.Tracer != nil {
		tracer = obs.Tracer.Tracer()
	}
	return &InstrumentedEngine{
		inner:   inner,
		metrics: obs.Metrics,
		tracer:  tracer,
		anomaly: obs.Anomaly,
	}
}

func (e *InstrumentedEngine) Assess(ctx context.Context, seekerID string, input consciousness.AssessmentInput) (*engine.Assessment, error) {
	ctx, done := e.startSpan(ctx, "engine.assess")

	result, err := e.inner.Assess(ctx, seekerID, input)
	done(ctx, err)

	if e.metrics != nil {
		level := "unknown"
		if result != nil {
			level = result.State.Level.String()
		}
		e.metrics.AssessmentsTotal.WithLabelValues(level, statusLabel(err)).Inc()
	}
	e.recordOutcome("assess", err)
	return result, err
}

func (e *InstrumentedEngine) Guidance(ctx context.Context, seekerID, question string, domain wisdom.Domain) (*consciousness.Insight, error) {
	ctx, done := e.startSpan(ctx, "engine.guidance",
		attribute.String("guidance.domain", string(domain)))

	insight, err := e.inner.Guidance(ctx, seekerID, question, domain)
	done(ctx, err)

	if e.metrics != nil {
		guidanceType := ""
		if insight != nil {
			guidanceType = string(insight.GuidanceType)
		}
		e.metrics.GuidanceTotal.WithLabelValues(string(domain), guidanceType, statusLabel(err)).Inc()
	}
	e.recordOutcome("guidance", err)
	return insight, err
}

func (e *InstrumentedEngine) DailyGuidance(ctx context.Context, seekerID string) (*engine.DailyDigest, error) {
	ctx, done := e.startSpan(ctx, "engine.daily_guidance")

	digest, err := e.inner.DailyGuidance(ctx, seekerID)
	done(ctx, err)

	e.recordOutcome("daily_guidance", err)
	return digest, err
}

func (e *InstrumentedEngine) Meditate(ctx context.Context, seekerID, intention string, durationMinutes int) (*consciousness.Session, error) {
	ctx, done := e.startSpan(ctx, "engine.meditate",
		attribute.Int("meditation.duration_minutes", durationMinutes))

	session, err := e.inner.Meditate(ctx, seekerID, intention, durationMinutes)
	done(ctx, err)

	if e.metrics != nil {
		levelAfter := "unknown"
		if session != nil {
			levelAfter = session.After.Level.String()
			e.metrics.MeditationDuration.Observe(float64(durationMinutes))
		}
		e.metrics.MeditationsTotal.WithLabelValues(levelAfter, statusLabel(err)).Inc()
	}
	e.recordOutcome("meditate", err)
	return session, err
}

func (e *InstrumentedEngine) ScanContent(ctx context.Context, content, source string) (*firewall.Scan, error) {
	ctx, done := e.startSpan(ctx, "firewall.scan")

	scan, err := e.inner.ScanContent(ctx, content, source)
	done(ctx, err)

	e.recordScan(scan, err)
	return scan, err
}

func (e *InstrumentedEngine) Purify(ctx context.Context, content, source string) (string, *firewall.Scan, error) {
	ctx, done := e.startSpan(ctx, "firewall.purify")

	purified, scan, err := e.inner.Purify(ctx, content, source)
	done(ctx, err)

	e.recordScan(scan, err)
	return purified, scan, err
}

func (e *InstrumentedEngine) State(ctx context.Context, seekerID string) (consciousness.State, error) {
	return e.inner.State(ctx, seekerID)
}

func (e *InstrumentedEngine) Sessions(ctx context.Context, seekerID string, limit int) ([]*consciousness.Session, error) {
	return e.inner.Sessions(ctx, seekerID, limit)
}

func (e *InstrumentedEngine) Session(ctx context.Context, sessionID string) (*consciousness.Session, error) {
	return e.inner.Session(ctx, sessionID)
}

func (e *InstrumentedEngine) Insights(ctx context.Context, seekerID string, limit int) ([]*consciousness.Insight, error) {
	return e.inner.Insights(ctx, seekerID, limit)
}

// startSpan opens a span when tracing is enabled. The returned func ends
// the span, recording the error if any.
func (e *InstrumentedEngine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(context.Context, error)) {
	if e.tracer == nil {
		return ctx, func(context.Context, error) {}
	}
	ctx, span := e.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(_ context.Context, err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func (e *InstrumentedEngine) recordOutcome(operation string, err error) {
	if e.anomaly == nil {
		return
	}
	if err != nil {
		e.anomaly.RecordError(operation)
	} else {
		e.anomaly.RecordSuccess(operation)
	}
}

func (e *InstrumentedEngine) recordScan(scan *firewall.Scan, err error) {
	if err != nil || scan == nil {
		e.recordOutcome("scan", err)
		return
	}
	if e.metrics != nil {
		verdict := "pure"
		if !scan.IsPure {
			verdict = "impure"
		}
		e.metrics.ScansTotal.WithLabelValues(verdict).Inc()
		e.metrics.ThreatLevel.Observe(scan.ThreatLevel)
	}
	if e.anomaly != nil {
		e.anomaly.RecordScan(scan.IsPure)
	}
	e.recordOutcome("scan", nil)
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// compile-time interface check
var _ engine.Engine = (*InstrumentedEngine)(nil)
