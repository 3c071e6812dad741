// Package wisdom holds the sacred wisdom catalog: the fixed set of spiritual
// domains, the guidance texts and scripture references available per domain,
// and the growth-phase metadata per consciousness level.
// The catalog is static data; all selection logic lives in the
// consciousness package.
package wisdom

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownDomain is returned by ParseDomain for values outside the
// seven fixed domains. Callers match it with errors.Is.
var ErrUnknownDomain = errors.New("unknown spiritual domain")

// Domain is one of the seven fixed guidance categories.
type Domain string

const (
	DomainWisdom         Domain = "wisdom"
	DomainLove           Domain = "love"
	DomainHealing        Domain = "healing"
	DomainPurpose        Domain = "purpose"
	DomainProtection     Domain = "protection"
	DomainManifestation  Domain = "manifestation"
	DomainTransformation Domain = "transformation"
)

// Domains returns all valid domains in a stable order.
func Domains() []Domain {
	return []Domain{
		DomainWisdom,
		DomainLove,
		DomainHealing,
		DomainPurpose,
		DomainProtection,
		DomainManifestation,
		DomainTransformation,
	}
}

// DomainNames returns the string values of all valid domains.
func DomainNames() []string {
	ds := Domains()
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = string(d)
	}
	return names
}

// ParseDomain validates a domain string (case-insensitive).
// Unknown values are rejected, never silently substituted.
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Domains() {
		if d == valid {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w %q (valid: %s)", ErrUnknownDomain, s, strings.Join(DomainNames(), ", "))
}

// guidanceTexts maps each domain to its pool of base wisdom messages.
var guidanceTexts = map[Domain][]string{
	DomainWisdom: {
		"The path to enlightenment begins with knowing thyself",
		"In stillness, the voice of the divine speaks most clearly",
		"Wisdom flows to those who empty their cups of preconceptions",
		"Every moment offers an opportunity for spiritual growth",
		"The greatest teaching comes from within, through divine connection",
	},
	DomainLove: {
		"Love is the frequency that connects all souls to the divine",
		"Compassion transforms both the giver and receiver",
		"The heart knows truths that the mind cannot comprehend",
		"Divine love flows through us when we remove the barriers of ego",
		"In loving others, we discover our own divine nature",
	},
	DomainHealing: {
		"Healing begins when we align with divine love and light",
		"The body holds wisdom; listen to its divine messages",
		"Forgiveness is the most powerful healing force in existence",
		"Divine energy flows where loving attention goes",
		"True healing addresses the soul, not just the symptoms",
	},
	DomainPurpose: {
		"Your soul chose this lifetime to fulfill a divine mission",
		"Purpose is revealed through following your highest joy",
		"Service to others is service to the divine within all",
		"Every experience serves your soul's evolution",
		"Align with your divine blueprint to find true purpose",
	},
	DomainProtection: {
		"Divine light surrounds and protects those who seek truth",
		"Faith is the greatest protection against darkness",
		"Angels and guides watch over those who serve the light",
		"Set boundaries with love, not fear",
		"The divine presence within you is your ultimate protection",
	},
	DomainManifestation: {
		"Align your desires with divine will for highest manifestation",
		"Gratitude is the frequency that accelerates divine manifestation",
		"What you focus on with pure intention comes into being",
		"Surrender attachment to outcomes and trust divine timing",
		"Visualize with your heart, not just your mind",
	},
	DomainTransformation: {
		"Every challenge is an invitation for spiritual transformation",
		"Release what no longer serves your highest good",
		"Transformation happens in the space between breaths",
		"Embrace change as the universe's way of elevating you",
		"The caterpillar must dissolve to become the butterfly",
	},
}

// sacredReferences maps each domain to its scripture citations.
var sacredReferences = map[Domain][]string{
	DomainWisdom:         {"Proverbs 3:5-6", "James 1:5", "1 Corinthians 2:10"},
	DomainLove:           {"1 John 4:8", "1 Corinthians 13:4-7", "John 13:34"},
	DomainHealing:        {"Psalm 147:3", "Jeremiah 30:17", "1 Peter 2:24"},
	DomainPurpose:        {"Jeremiah 29:11", "Romans 8:28", "Ephesians 2:10"},
	DomainProtection:     {"Psalm 91", "Isaiah 54:17", "2 Thessalonians 3:3"},
	DomainManifestation:  {"Mark 11:24", "Matthew 17:20", "John 14:13"},
	DomainTransformation: {"2 Corinthians 5:17", "Romans 12:2", "Philippians 1:6"},
}

// Guidance returns the pool of base wisdom messages for a domain.
// Every valid domain has at least one entry.
func Guidance(d Domain) []string {
	return guidanceTexts[d]
}

// References returns the scripture citations for a domain.
func References(d Domain) []string {
	return sacredReferences[d]
}

// Size returns the total number of wisdom messages across all domains.
func Size() int {
	n := 0
	for _, texts := range guidanceTexts {
		n += len(texts)
	}
	return n
}

// GrowthPhase describes one consciousness level for assessment responses.
type GrowthPhase struct {
	Description     string   `json:"description"`
	Characteristics []string `json:"characteristics"`
	Guidance        string   `json:"guidance"`
}

// growthPhases is keyed by the level's string value to avoid an import
// cycle with the consciousness package.
var growthPhases = map[string]GrowthPhase{
	"awakening": {
		Description:     "Initial spiritual awakening and awareness",
		Characteristics: []string{"questioning reality", "seeking meaning", "increased sensitivity"},
		Guidance:        "Focus on grounding practices and self-discovery",
	},
	"expanding": {
		Description:     "Active expansion of consciousness and spiritual practices",
		Characteristics: []string{"regular meditation", "studying wisdom", "energy work"},
		Guidance:        "Deepen your practices and seek higher teachings",
	},
	"transcending": {
		Description:     "Moving beyond ego limitations into higher awareness",
		Characteristics: []string{"ego transcendence", "unity experiences", "service orientation"},
		Guidance:        "Surrender more deeply and serve others",
	},
	"enlightened": {
		Description:     "Stable higher consciousness and wisdom embodiment",
		Characteristics: []string{"constant peace", "unconditional love", "divine knowing"},
		Guidance:        "Share your light and guide others",
	},
	"divine_unity": {
		Description:     "Complete unity with divine consciousness",
		Characteristics: []string{"oneness realization", "christ consciousness", "divine embodiment"},
		Guidance:        "Be a living example of divine love",
	},
}

// Phase returns the growth-phase record for a consciousness level value.
// The boolean is false for unknown level strings.
func Phase(level string) (GrowthPhase, bool) {
	p, ok := growthPhases[level]
	return p, ok
}

// PhaseLevels returns the level keys that have growth phases, sorted.
func PhaseLevels() []string {
	keys := make([]string, 0, len(growthPhases))
	for k := range growthPhases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
