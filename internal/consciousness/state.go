// Package consciousness implements the consciousness assessment, guidance
// selection, and meditation evolution engine behind the Sophia platform.
//
// All operations are pure, request-scoped computations: a State is never
// mutated after creation; evolution produces a new instance. The only
// randomness is bounded jitter and selection draws, routed through the
// injectable Rand port.
package consciousness

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Level is the ordered five-value consciousness classification.
type Level int

const (
	LevelAwakening Level = iota
	LevelExpanding
	LevelTranscending
	LevelEnlightened
	LevelDivineUnity
)

// Level score thresholds. Lower bounds are inclusive.
const (
	thresholdDivineUnity  = 0.90
	thresholdEnlightened  = 0.80
	thresholdTranscending = 0.65
	thresholdExpanding    = 0.45
)

var levelNames = [...]string{
	"awakening",
	"expanding",
	"transcending",
	"enlightened",
	"divine_unity",
}

// ErrUnknownLevel is returned by ParseLevel for invalid level strings.
var ErrUnknownLevel = errors.New("unknown consciousness level")

func (l Level) String() string {
	if l < LevelAwakening || l > LevelDivineUnity {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalText implements encoding.TextMarshaler so the level serializes
// as its string value in JSON.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel converts a level string to its ordinal value.
func ParseLevel(s string) (Level, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if v == name {
			return Level(i), nil
		}
	}
	return LevelAwakening, fmt.Errorf("%w %q", ErrUnknownLevel, s)
}

// LevelNames returns the string values of all levels, lowest first.
func LevelNames() []string {
	return append([]string(nil), levelNames[:]...)
}

// Next returns the next level up. The top level returns itself.
func (l Level) Next() Level {
	if l >= LevelDivineUnity {
		return LevelDivineUnity
	}
	return l + 1
}

// LevelForScore buckets the mean metric score into a level.
func LevelForScore(score float64) Level {
	switch {
	case score >= thresholdDivineUnity:
		return LevelDivineUnity
	case score >= thresholdEnlightened:
		return LevelEnlightened
	case score >= thresholdTranscending:
		return LevelTranscending
	case score >= thresholdExpanding:
		return LevelExpanding
	default:
		return LevelAwakening
	}
}

// State is an immutable consciousness snapshot. The level is always the
// threshold bucket of the five metrics' mean at creation time, except
// after meditation where promotion is probabilistic and single-step.
type State struct {
	Level              Level     `json:"level"`
	Clarity            float64   `json:"clarity"`
	SpiritualResonance float64   `json:"spiritual_resonance"`
	DivineConnection   float64   `json:"divine_connection"`
	EmotionalBalance   float64   `json:"emotional_balance"`
	MentalPeace        float64   `json:"mental_peace"`
	Timestamp          time.Time `json:"timestamp"`
}

// Mean returns the average of the five metrics.
func (s State) Mean() float64 {
	return (s.Clarity + s.SpiritualResonance + s.DivineConnection +
		s.EmotionalBalance + s.MentalPeace) / 5
}

// Neutral returns the default baseline state used when a caller supplies
// no snapshot: all metrics at 0.5, level awakening.
func Neutral(now time.Time) State {
	return State{
		Level:              LevelAwakening,
		Clarity:            0.5,
		SpiritualResonance: 0.5,
		DivineConnection:   0.5,
		EmotionalBalance:   0.5,
		MentalPeace:        0.5,
		Timestamp:          now,
	}
}
