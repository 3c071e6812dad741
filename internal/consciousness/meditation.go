package consciousness

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sophia-platform/sophia/internal/wisdom"
)

// Duration bounds for a meditation session, in minutes.
const (
	MinDurationMinutes = 1
	MaxDurationMinutes = 120
)

// ErrDurationOutOfRange is returned when a session duration falls outside
// [MinDurationMinutes, MaxDurationMinutes]. The engine rejects rather than
// clamps: a negative duration would silently shrink the evolution factors.
var ErrDurationOutOfRange = errors.New("duration out of range")

// Promotion: when the post-session mean exceeds this score, the level may
// advance one step with probability promotionChance.
const (
	promotionScore  = 0.9
	promotionChance = 0.3
)

// Session is a completed meditation session. Created atomically by
// GuideMeditation; immutable thereafter.
type Session struct {
	SessionID        string    `json:"session_id"`
	Intention        string    `json:"intention"`
	DurationMinutes  int       `json:"duration_minutes"`
	GuidanceReceived []Insight `json:"guidance_received"`
	Before           State     `json:"consciousness_before"`
	After            State     `json:"consciousness_after"`
	Timestamp        time.Time `json:"timestamp"`
}

// Evolver simulates the effect of a guided meditation session.
type Evolver struct {
	selector *Selector
	rng      Rand
	logger   *slog.Logger
	now      func() time.Time
}

// NewEvolver creates an Evolver sharing the selector's randomness source.
func NewEvolver(selector *Selector, rng Rand, logger *slog.Logger) *Evolver {
	if rng == nil {
		rng = NewRand()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evolver{selector: selector, rng: rng, logger: logger, now: time.Now}
}

// GuideMeditation produces the session's guidance sequence and the evolved
// state. Sessions of 10 minutes or less skip the mid-session insight.
func (e *Evolver) GuideMeditation(intention string, durationMinutes int, before State) (*Session, error) {
	if durationMinutes < MinDurationMinutes || durationMinutes > MaxDurationMinutes {
		return nil, fmt.Errorf("%w: %d minutes (must be %d-%d)",
			ErrDurationOutOfRange, durationMinutes, MinDurationMinutes, MaxDurationMinutes)
	}

	insights := []Insight{
		e.selector.ReceiveGuidance(
			fmt.Sprintf("Guide my meditation with intention: %s", intention),
			wisdom.DomainWisdom, before),
	}
	if durationMinutes > 10 {
		insights = append(insights, e.selector.ReceiveGuidance(
			"Deepen my spiritual connection during meditation",
			wisdom.DomainLove, before))
	}
	insights = append(insights, e.selector.ReceiveGuidance(
		"Integrate the wisdom received in meditation",
		wisdom.DomainTransformation, before))

	after := e.evolve(before, durationMinutes, len(insights))

	session := &Session{
		SessionID:        fmt.Sprintf("med_%s", uuid.New().String()),
		Intention:        intention,
		DurationMinutes:  durationMinutes,
		GuidanceReceived: insights,
		Before:           before,
		After:            after,
		Timestamp:        e.now().UTC(),
	}

	e.logger.Info("meditation session guided",
		slog.String("session_id", session.SessionID),
		slog.Int("duration_minutes", durationMinutes),
		slog.Int("insights", len(insights)),
		slog.Bool("level_changed", before.Level != after.Level),
	)
	return session, nil
}

// evolve applies the multiplicative post-session upticks. All factors are
// >= 1, so no metric ever regresses. Promotion is single-step only.
func (e *Evolver) evolve(before State, durationMinutes, guidanceCount int) State {
	durationFactor := 1 + float64(durationMinutes)*0.01
	if durationFactor > 1.2 {
		durationFactor = 1.2
	}
	guidanceFactor := 1 + float64(guidanceCount)*0.05
	if guidanceFactor > 1.15 {
		guidanceFactor = 1.15
	}

	after := State{
		Level:              before.Level,
		Clarity:            clamp01(before.Clarity * durationFactor),
		SpiritualResonance: clamp01(before.SpiritualResonance * guidanceFactor),
		DivineConnection:   clamp01(before.DivineConnection * 1.1),
		EmotionalBalance:   clamp01(before.EmotionalBalance * 1.05),
		MentalPeace:        clamp01(before.MentalPeace * durationFactor),
		Timestamp:          e.now().UTC(),
	}

	if after.Mean() > promotionScore && before.Level != LevelDivineUnity {
		if e.rng.Float64() < promotionChance {
			after.Level = before.Level.Next()
		}
	}
	return after
}
