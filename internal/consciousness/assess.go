package consciousness

import (
	"log/slog"
	"time"
)

// AssessmentInput is the loosely-typed assessment record. Every field is
// optional; absent fields contribute zero. Stress and anxiety default to
// the scale midpoint the way a blank questionnaire would.
type AssessmentInput struct {
	ClarityIndicators   []string `json:"clarity_indicators,omitempty"`
	SpiritualPractices  []string `json:"spiritual_practices,omitempty"`
	PracticeFrequency   float64  `json:"practice_frequency,omitempty"`   // [0,1]
	DivineExperiences   []string `json:"divine_experiences,omitempty"`
	PrayerFrequency     float64  `json:"prayer_frequency,omitempty"`     // [0,1]
	StressLevel         *int     `json:"stress_level,omitempty"`         // 1–10, nil = 5
	PeaceFrequency      float64  `json:"peace_frequency,omitempty"`      // [0,1]
	MeditationFrequency float64  `json:"meditation_frequency,omitempty"` // [0,1]
	AnxietyLevel        *int     `json:"anxiety_level,omitempty"`        // 1–10, nil = 5
}

func (in AssessmentInput) stress() float64 {
	if in.StressLevel == nil {
		return 5
	}
	return float64(*in.StressLevel)
}

func (in AssessmentInput) anxiety() float64 {
	if in.AnxietyLevel == nil {
		return 5
	}
	return float64(*in.AnxietyLevel)
}

// Scorer computes consciousness states from assessment input.
type Scorer struct {
	rng    Rand
	logger *slog.Logger
	now    func() time.Time
}

// NewScorer creates a Scorer. A nil rng falls back to the default
// clock-seeded source.
func NewScorer(rng Rand, logger *slog.Logger) *Scorer {
	if rng == nil {
		rng = NewRand()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{rng: rng, logger: logger, now: time.Now}
}

// Assess derives a State from the input record. It never fails: malformed
// or missing fields default to neutral contributions.
func (s *Scorer) Assess(in AssessmentInput) State {
	clarity := clamp01(float64(len(in.ClarityIndicators))/10 + jitter(s.rng, 0.1, 0.3))
	resonance := clamp01((float64(len(in.SpiritualPractices))*0.2+in.PracticeFrequency*0.1)/2 + jitter(s.rng, 0.1, 0.25))
	connection := clamp01((float64(len(in.DivineExperiences))*0.25+in.PrayerFrequency*0.15)/2 + jitter(s.rng, 0.15, 0.35))
	balance := clamp01((1-in.stress()/10)*0.5 + in.PeaceFrequency*0.1 + jitter(s.rng, 0.1, 0.2))
	peace := clamp01(in.MeditationFrequency*0.2 + (1-in.anxiety()/10)*0.3 + jitter(s.rng, 0.1, 0.25))

	state := State{
		Clarity:            clarity,
		SpiritualResonance: resonance,
		DivineConnection:   connection,
		EmotionalBalance:   balance,
		MentalPeace:        peace,
		Timestamp:          s.now().UTC(),
	}
	state.Level = LevelForScore(state.Mean())

	s.logger.Debug("consciousness assessed",
		slog.String("level", state.Level.String()),
		slog.Float64("mean", state.Mean()),
	)
	return state
}
