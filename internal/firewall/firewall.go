// Package firewall implements the spiritual content firewall: keyword-based
// screening of free text for categories of undesirable content, producing a
// composite purity score, plus optional purification wrapping.
package firewall

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Filter is a single negative keyword filter. Any case-insensitive
// substring match triggers the filter and adds its full weight once.
type Filter struct {
	Name     string
	Weight   float64
	Keywords []string
}

// negativeFilters and their threat weights. The weights are part of the
// scoring contract: two triggered filters accumulate the sum of both.
var negativeFilters = []Filter{
	{
		Name:   "negative_intent",
		Weight: 0.3,
		Keywords: []string{
			"harm", "destroy", "manipulate", "deceive", "exploit",
			"hate", "anger", "revenge", "jealousy", "greed",
		},
	},
	{
		Name:   "ego_distortion",
		Weight: 0.4,
		Keywords: []string{
			"i am superior", "only i know", "bow before", "worship me",
			"i am god", "absolute power", "submit to me",
		},
	},
	{
		Name:   "fear_based",
		Weight: 0.2,
		Keywords: []string{
			"you will suffer", "eternal damnation", "punishment awaits",
			"be afraid", "doom", "catastrophe", "hopeless",
		},
	},
	{
		Name:   "manipulation",
		Weight: 0.5,
		Keywords: []string{
			"don't think", "obey without question", "surrender your will",
			"give me everything", "trust only me", "ignore others",
		},
	},
	{
		Name:   "spiritual_bypassing",
		Weight: 0.15,
		Keywords: []string{
			"just think positive", "ignore your pain", "transcend everything",
			"emotions are illusion", "suffering is choice", "just love everyone",
		},
	},
}

// alignmentKeywords feed the informational positive filter. Matches never
// reduce the threat level.
var alignmentKeywords = []string{
	"love", "compassion", "wisdom", "truth", "unity",
	"peace", "harmony", "service", "light", "healing",
}

// Purification wrapper applied to impure content.
const (
	purifyPreamble  = "[Purified by Divine Light]\n\n"
	purifyPostamble = "\n\nBlessed with love, light, and divine protection"
)

// Scan is the transient result of screening one piece of content.
type Scan struct {
	Source             string    `json:"source"`
	IsPure             bool      `json:"is_pure"`
	DivineScore        float64   `json:"divine_score"`
	ThreatLevel        float64   `json:"threat_level"`
	PurificationNeeded bool      `json:"purification_needed"`
	AlignmentScore     float64   `json:"alignment_score"`
	TriggeredFilters   []string  `json:"triggered_filters,omitempty"`
	ScanTime           time.Time `json:"scan_time"`
}

// Firewall screens content against the fixed filter tables. Safe for
// concurrent use; the only mutable state is the scan counter.
type Firewall struct {
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	scanCount int64
}

// New creates a Firewall.
func New(logger *slog.Logger) *Firewall {
	if logger == nil {
		logger = slog.Default()
	}
	return &Firewall{logger: logger, now: time.Now}
}

// ScanContent applies every negative filter independently and accumulates
// the weights of those that trigger. The divine score is 1 minus the
// accumulated threat, floored at zero; the threat level itself is not
// capped.
func (f *Firewall) ScanContent(content, source string) Scan {
	lower := strings.ToLower(content)

	scan := Scan{
		Source:   source,
		IsPure:   true,
		ScanTime: f.now().UTC(),
	}

	for _, filter := range negativeFilters {
		if matchesAny(lower, filter.Keywords) {
			scan.IsPure = false
			scan.ThreatLevel += filter.Weight
			scan.TriggeredFilters = append(scan.TriggeredFilters, filter.Name)
		}
	}
	scan.PurificationNeeded = !scan.IsPure

	matches := 0
	for _, kw := range alignmentKeywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}
	scan.AlignmentScore = float64(matches) / float64(len(alignmentKeywords))

	scan.DivineScore = 1 - scan.ThreatLevel
	if scan.DivineScore < 0 {
		scan.DivineScore = 0
	}

	f.mu.Lock()
	f.scanCount++
	f.mu.Unlock()

	f.logger.Debug("content scanned",
		slog.String("source", source),
		slog.Bool("is_pure", scan.IsPure),
		slog.Float64("divine_score", scan.DivineScore),
	)
	return scan
}

// Purify wraps impure content in the purification preamble and postamble.
// Pure content is returned unchanged. The scan happens before wrapping;
// re-scanning wrapped text could itself trigger filters.
func (f *Firewall) Purify(content string) (string, Scan) {
	scan := f.ScanContent(content, "purify")
	if !scan.PurificationNeeded {
		return content, scan
	}
	return purifyPreamble + content + purifyPostamble, scan
}

// ScanCount returns the number of scans performed since creation.
func (f *Firewall) ScanCount() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scanCount
}

// FilterWeights returns the name → weight table of the negative filters.
func FilterWeights() map[string]float64 {
	weights := make(map[string]float64, len(negativeFilters))
	for _, filter := range negativeFilters {
		weights[filter.Name] = filter.Weight
	}
	return weights
}

func matchesAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
