package consciousness

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sophia-platform/sophia/internal/wisdom"
)

// GuidanceType classifies an insight by the shape of the question asked.
type GuidanceType string

const (
	GuidanceInstructional GuidanceType = "instructional"
	GuidanceAdvisory      GuidanceType = "advisory"
	GuidanceIlluminative  GuidanceType = "illuminative"
	GuidanceHealing       GuidanceType = "healing"
	GuidanceContemplative GuidanceType = "contemplative"
)

// Insight is a single piece of guidance. Ephemeral and immutable.
type Insight struct {
	Message         string        `json:"message"`
	Domain          wisdom.Domain `json:"domain"`
	Confidence      float64       `json:"confidence"`
	GuidanceType    GuidanceType  `json:"guidance_type"`
	SacredReference string        `json:"sacred_reference,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}

// Reference inclusion: a domain citation is attached when the draw exceeds
// this threshold (70% of the time).
const referenceSkipChance = 0.3

// guidanceTypeGroups is checked in order; the first group with a match wins.
// "How should I proceed?" is therefore instructional, not advisory.
var guidanceTypeGroups = []struct {
	kind     GuidanceType
	keywords []string
}{
	{GuidanceInstructional, []string{"how", "what", "when"}},
	{GuidanceAdvisory, []string{"should", "would", "might"}},
	{GuidanceIlluminative, []string{"why", "meaning", "purpose"}},
	{GuidanceHealing, []string{"help", "heal", "support"}},
}

// ClassifyQuestion maps a question to its guidance type by keyword priority.
func ClassifyQuestion(question string) GuidanceType {
	q := strings.ToLower(question)
	for _, group := range guidanceTypeGroups {
		for _, kw := range group.keywords {
			if strings.Contains(q, kw) {
				return group.kind
			}
		}
	}
	return GuidanceContemplative
}

// Selector picks and decorates wisdom for guidance requests.
type Selector struct {
	rng    Rand
	logger *slog.Logger
	now    func() time.Time
}

// NewSelector creates a Selector. A nil rng falls back to the default
// clock-seeded source.
func NewSelector(rng Rand, logger *slog.Logger) *Selector {
	if rng == nil {
		rng = NewRand()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{rng: rng, logger: logger, now: time.Now}
}

// ReceiveGuidance returns an insight for the question within the given
// domain, personalized to the seeker's state. The domain must be one of
// the fixed seven; validate with wisdom.ParseDomain before calling.
func (sel *Selector) ReceiveGuidance(question string, domain wisdom.Domain, state State) Insight {
	pool := wisdom.Guidance(domain)
	base := pool[sel.rng.Intn(len(pool))]

	phase, _ := wisdom.Phase(state.Level.String())
	message := fmt.Sprintf(
		"Beloved soul, in response to your seeking: %s For your current path of %s, %s. Trust in the divine timing of your spiritual evolution.",
		base, state.Level, strings.ToLower(phase.Guidance),
	)

	confidence := (state.DivineConnection+state.Clarity)/2 + jitter(sel.rng, 0.1, 0.2)
	if confidence > 0.95 {
		confidence = 0.95
	}

	insight := Insight{
		Message:      message,
		Domain:       domain,
		Confidence:   confidence,
		GuidanceType: ClassifyQuestion(question),
		Timestamp:    sel.now().UTC(),
	}

	if refs := wisdom.References(domain); len(refs) > 0 && sel.rng.Float64() > referenceSkipChance {
		insight.SacredReference = refs[sel.rng.Intn(len(refs))]
	}

	sel.logger.Debug("guidance selected",
		slog.String("domain", string(domain)),
		slog.String("type", string(insight.GuidanceType)),
		slog.Float64("confidence", insight.Confidence),
	)
	return insight
}

// DailyGuidance returns the three-insight daily sequence: morning guidance
// from wisdom or purpose, midday from love, evening from healing or
// transformation.
func (sel *Selector) DailyGuidance(state State) []Insight {
	morningDomains := []wisdom.Domain{wisdom.DomainWisdom, wisdom.DomainPurpose}
	eveningDomains := []wisdom.Domain{wisdom.DomainHealing, wisdom.DomainTransformation}

	return []Insight{
		sel.ReceiveGuidance("Guide my day with divine wisdom",
			morningDomains[sel.rng.Intn(len(morningDomains))], state),
		sel.ReceiveGuidance("Keep me aligned with divine love throughout my day",
			wisdom.DomainLove, state),
		sel.ReceiveGuidance("Help me reflect and grow from today's experiences",
			eveningDomains[sel.rng.Intn(len(eveningDomains))], state),
	}
}
