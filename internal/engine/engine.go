// Package engine composes the consciousness, wisdom, and firewall components
// with persistence into the single service surface that every gateway
// (HTTP, CLI, WebSocket, MCP, scheduler) talks to.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sophia-platform/sophia/internal/consciousness"
	"github.com/sophia-platform/sophia/internal/firewall"
	"github.com/sophia-platform/sophia/internal/storage"
	"github.com/sophia-platform/sophia/internal/wisdom"
)

// Engine is the service surface exposed to gateways.
type Engine interface {
	// Assess scores a seeker's assessment input, persists the resulting
	// state, and returns it with growth-phase metadata.
	Assess(ctx context.Context, seekerID string, input consciousness.AssessmentInput) (*Assessment, error)

	// Guidance delivers a templated insight for a question in a wisdom
	// domain, personalized to the seeker's current state.
	Guidance(ctx context.Context, seekerID, question string, domain wisdom.Domain) (*consciousness.Insight, error)

	// DailyGuidance delivers the three-part morning/midday/evening sequence.
	DailyGuidance(ctx context.Context, seekerID string) (*DailyDigest, error)

	// Meditate runs a guided meditation session, evolves the seeker's
	// state, and persists both the session and the evolved state.
	Meditate(ctx context.Context, seekerID, intention string, durationMinutes int) (*consciousness.Session, error)

	// State returns the seeker's current consciousness state. Seekers who
	// have never been assessed start from the neutral baseline.
	State(ctx context.Context, seekerID string) (consciousness.State, error)

	// Sessions returns the seeker's meditation history, newest first.
	Sessions(ctx context.Context, seekerID string, limit int) ([]*consciousness.Session, error)

	// Session returns a single meditation session by ID.
	Session(ctx context.Context, sessionID string) (*consciousness.Session, error)

	// Insights returns the seeker's delivered guidance, newest first.
	Insights(ctx context.Context, seekerID string, limit int) ([]*consciousness.Insight, error)

	// ScanContent runs a purity scan and records it in the scan log.
	ScanContent(ctx context.Context, content, source string) (*firewall.Scan, error)

	// Purify scans content and wraps it in the purification frame when
	// the scan flags it. The returned scan reflects the original content.
	Purify(ctx context.Context, content, source string) (string, *firewall.Scan, error)
}

// Assessment is the result of scoring a seeker's input: the persisted state
// plus the growth-phase metadata for the computed level.
type Assessment struct {
	SeekerID string                 `json:"seeker_id"`
	State    consciousness.State    `json:"consciousness_state"`
	Phase    wisdom.GrowthPhase     `json:"growth_phase"`
	Previous *consciousness.State   `json:"previous_state,omitempty"`
}

// DailyDigest is the three-part daily guidance sequence.
type DailyDigest struct {
	SeekerID string                `json:"seeker_id"`
	Date     string                `json:"date"` // YYYY-MM-DD in UTC.
	Morning  consciousness.Insight `json:"morning"`
	Midday   consciousness.Insight `json:"midday"`
	Evening  consciousness.Insight `json:"evening"`
}

// Service implements Engine.
type Service struct {
	scorer   *consciousness.Scorer
	selector *consciousness.Selector
	evolver  *consciousness.Evolver
	firewall *firewall.Firewall
	store    storage.Store
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Service wired to the given store.
func New(rng consciousness.Rand, store storage.Store, fw *firewall.Firewall, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	selector := consciousness.NewSelector(rng, logger)
	return &Service{
		scorer:   consciousness.NewScorer(rng, logger),
		selector: selector,
		evolver:  consciousness.NewEvolver(selector, rng, logger),
		firewall: fw,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Assess(ctx context.Context, seekerID string, input consciousness.AssessmentInput) (*Assessment, error) {
	previous, err := s.store.States().GetState(ctx, seekerID)
	if err != nil {
		return nil, err
	}

	state := s.scorer.Assess(input)
	if err := s.store.States().SaveState(ctx, seekerID, state); err != nil {
		return nil, err
	}

	phase, ok := wisdom.Phase(state.Level.String())
	if !ok {
		return nil, fmt.Errorf("no growth phase for level %s", state.Level)
	}

	s.logger.Info("consciousness assessed",
		slog.String("seeker_id", seekerID),
		slog.String("level", state.Level.String()),
	)

	return &Assessment{
		SeekerID: seekerID,
		State:    state,
		Phase:    phase,
		Previous: previous,
	}, nil
}

func (s *Service) Guidance(ctx context.Context, seekerID, question string, domain wisdom.Domain) (*consciousness.Insight, error) {
	state, err := s.State(ctx, seekerID)
	if err != nil {
		return nil, err
	}

	insight := s.selector.ReceiveGuidance(question, domain, state)
	if err := s.store.Insights().SaveInsight(ctx, seekerID, &insight); err != nil {
		return nil, err
	}
	return &insight, nil
}

func (s *Service) DailyGuidance(ctx context.Context, seekerID string) (*DailyDigest, error) {
	state, err := s.State(ctx, seekerID)
	if err != nil {
		return nil, err
	}

	insights := s.selector.DailyGuidance(state)
	for i := range insights {
		if err := s.store.Insights().SaveInsight(ctx, seekerID, &insights[i]); err != nil {
			return nil, err
		}
	}

	return &DailyDigest{
		SeekerID: seekerID,
		Date:     s.now().UTC().Format("2006-01-02"),
		Morning:  insights[0],
		Midday:   insights[1],
		Evening:  insights[2],
	}, nil
}

func (s *Service) Meditate(ctx context.Context, seekerID, intention string, durationMinutes int) (*consciousness.Session, error) {
	before, err := s.State(ctx, seekerID)
	if err != nil {
		return nil, err
	}

	session, err := s.evolver.GuideMeditation(intention, durationMinutes, before)
	if err != nil {
		return nil, err
	}

	if err := s.store.Sessions().SaveSession(ctx, seekerID, session); err != nil {
		return nil, err
	}
	if err := s.store.States().SaveState(ctx, seekerID, session.After); err != nil {
		return nil, err
	}

	s.logger.Info("meditation completed",
		slog.String("seeker_id", seekerID),
		slog.String("session_id", session.SessionID),
		slog.Int("duration_minutes", durationMinutes),
		slog.String("level_after", session.After.Level.String()),
	)
	return session, nil
}

func (s *Service) State(ctx context.Context, seekerID string) (consciousness.State, error) {
	state, err := s.store.States().GetState(ctx, seekerID)
	if err != nil {
		return consciousness.State{}, err
	}
	if state == nil {
		return consciousness.Neutral(s.now().UTC()), nil
	}
	return *state, nil
}

func (s *Service) Sessions(ctx context.Context, seekerID string, limit int) ([]*consciousness.Session, error) {
	return s.store.Sessions().ListSessions(ctx, seekerID, limit)
}

func (s *Service) Session(ctx context.Context, sessionID string) (*consciousness.Session, error) {
	return s.store.Sessions().GetSession(ctx, sessionID)
}

func (s *Service) Insights(ctx context.Context, seekerID string, limit int) ([]*consciousness.Insight, error) {
	return s.store.Insights().ListInsights(ctx, seekerID, limit)
}

func (s *Service) ScanContent(ctx context.Context, content, source string) (*firewall.Scan, error) {
	scan := s.firewall.ScanContent(content, source)
	if err := s.store.ScanLog().LogScan(ctx, &scan); err != nil {
		return nil, err
	}
	return &scan, nil
}

func (s *Service) Purify(ctx context.Context, content, source string) (string, *firewall.Scan, error) {
	purified, scan := s.firewall.Purify(content)
	scan.Source = source
	if err := s.store.ScanLog().LogScan(ctx, &scan); err != nil {
		return "", nil, err
	}
	return purified, &scan, nil
}

// compile-time interface check
var _ Engine = (*Service)(nil)
