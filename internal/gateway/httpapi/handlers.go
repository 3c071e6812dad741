package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jkaninda/okapi"

	"github.com/sophia-platform/sophia/internal/consciousness"
	"github.com/sophia-platform/sophia/internal/engine"
	"github.com/sophia-platform/sophia/internal/firewall"
	"github.com/sophia-platform/sophia/internal/wisdom"
)

// --- Consciousness ---

// AssessRequest is the JSON body for POST /v1/consciousness/assess.
// Every field is optional; absent fields contribute neutrally.
type AssessRequest struct {
	consciousness.AssessmentInput
}

// AssessResponse is the JSON response for POST /v1/consciousness/assess.
type AssessResponse struct {
	SeekerID string               `json:"seeker_id"`
	State    consciousness.State  `json:"consciousness_state"`
	Phase    wisdom.GrowthPhase   `json:"growth_phase"`
	Previous *consciousness.State `json:"previous_state,omitempty"`
}

func (g *Gateway) handleAssess(c *okapi.Context) error {
	seekerID := c.GetString("seekerID")
	if err := g.rateLimit(c, seekerID); err != nil {
		return err
	}

	var req AssessRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}

	correlationID := newCorrelationID()
	g.logger.Info("http assess",
		slog.String("seeker_id", seekerID),
		slog.String("correlation_id", correlationID),
	)

	result, err := g.engine.Assess(c.Context(), seekerID, req.AssessmentInput)
	if err != nil {
		g.logger.Error("assessment failed",
			slog.String("correlation_id", correlationID),
			slog.String("error", err.Error()),
		)
		return c.AbortInternalServerError("assessment failed")
	}

	return c.OK(AssessResponse{
		SeekerID: result.SeekerID,
		State:    result.State,
		Phase:    result.Phase,
		Previous: result.Previous,
	})
}

// LevelInfo describes one consciousness level for the discovery endpoint.
type LevelInfo struct {
	Value           string   `json:"value"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Characteristics []string `json:"characteristics"`
	Guidance        string   `json:"guidance"`
}

// LevelsResponse is the JSON response for GET /v1/consciousness/levels.
type LevelsResponse struct {
	ConsciousnessLevels []LevelInfo `json:"consciousness_levels"`
	Count               int         `json:"count"`
}

func (g *Gateway) handleLevels(c *okapi.Context) error {
	names := consciousness.LevelNames()
	levels := make([]LevelInfo, 0, len(names))
	for _, name := range names {
		phase, ok := wisdom.Phase(name)
		if !ok {
			continue
		}
		levels = append(levels, LevelInfo{
			Value:           name,
			Name:            titleCase(name),
			Description:     phase.Description,
			Characteristics: phase.Characteristics,
			Guidance:        phase.Guidance,
		})
	}
	return c.OK(LevelsResponse{ConsciousnessLevels: levels, Count: len(levels)})
}

// --- Guidance ---

// GuidanceRequest is the JSON body for POST /v1/guidance.
type GuidanceRequest struct {
	Question string `json:"question"`
	Domain   string `json:"domain,omitempty"` // Defaults to "wisdom".
}

// GuidanceResponse is the JSON response for POST /v1/guidance.
type GuidanceResponse struct {
	SeekerID string                `json:"seeker_id"`
	Insight  consciousness.Insight `json:"insight"`
}

func (g *Gateway) handleGuidance(c *okapi.Context) error {
	seekerID := c.GetString("seekerID")
	if err := g.rateLimit(c, seekerID); err != nil {
		return err
	}

	var req GuidanceRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Question == "" {
		return c.AbortBadRequest("question is required")
	}

	domainName := req.Domain
	if domainName == "" {
		domainName = string(wisdom.DomainWisdom)
	}
	domain, err := wisdom.ParseDomain(domainName)
	if err != nil {
		return c.AbortBadRequest(err.Error())
	}

	insight, err := g.engine.Guidance(c.Context(), seekerID, req.Question, domain)
	if err != nil {
		g.logger.Error("guidance failed",
			slog.String("seeker_id", seekerID),
			slog.String("error", err.Error()),
		)
		return c.AbortInternalServerError("guidance failed")
	}

	return c.OK(GuidanceResponse{SeekerID: seekerID, Insight: *insight})
}

// DailyGuidanceResponse is the JSON response for POST /v1/guidance/daily.
type DailyGuidanceResponse struct {
	engine.DailyDigest
}

func (g *Gateway) handleDailyGuidance(c *okapi.Context) error {
	seekerID := c.GetString("seekerID")
	if err := g.rateLimit(c, seekerID); err != nil {
		return err
	}

	digest, err := g.engine.DailyGuidance(c.Context(), seekerID)
	if err != nil {
		g.logger.Error("daily guidance failed",
			slog.String("seeker_id", seekerID),
			slog.String("error", err.Error()),
		)
		return c.AbortInternalServerError("daily guidance failed")
	}

	return c.OK(DailyGuidanceResponse{DailyDigest: *digest})
}

// InsightsResponse is the JSON response for GET /v1/insights.
type InsightsResponse struct {
	SeekerID string                   `json:"seeker_id"`
	Insights []*consciousness.Insight `json:"insights"`
	Count    int                      `json:"count"`
}

func (g *Gateway) handleInsights(c *okapi.Context) error {
	seekerID := c.GetString("seekerID")

	insights, err := g.engine.Insights(c.Context(), seekerID, queryLimit(c))
	if err != nil {
		return c.AbortInternalServerError("listing insights failed")
	}
	if insights == nil {
		insights = []*consciousness.Insight{}
	}
	return c.OK(InsightsResponse{SeekerID: seekerID, Insights: insights, Count: len(insights)})
}

// --- Meditation ---

// MeditationRequest is the JSON body for POST /v1/meditation.
type MeditationRequest struct {
	Intention       string `json:"intention,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
}

// EvolutionDelta reports how the session changed the seeker's state.
type EvolutionDelta struct {
	LevelChanged bool               `json:"level_changed"`
	Improvements map[string]float64 `json:"improvements"`
}

// MeditationResponse is the JSON response for POST /v1/meditation.
type MeditationResponse struct {
	Session   consciousness.Session `json:"meditation_session"`
	Evolution EvolutionDelta        `json:"consciousness_evolution"`
}

func (g *Gateway) handleMeditation(c *okapi.Context) error {
	seekerID := c.GetString("seekerID")
	if err := g.rateLimit(c, seekerID); err != nil {
		return err
	}

	var req MeditationRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}

	session, err := g.engine.Meditate(c.Context(), seekerID, req.Intention, req.DurationMinutes)
	if err != nil {
		if errors.Is(err, consciousness.ErrDurationOutOfRange) {
			return c.AbortBadRequest(err.Error())
		}
		g.logger.Error("meditation failed",
			slog.String("seeker_id", seekerID),
			slog.String("error", err.Error()),
		)
		return c.AbortInternalServerError("meditation failed")
	}

	return c.OK(MeditationResponse{
		Session:   *session,
		Evolution: evolutionDelta(session),
	})
}

// evolutionDelta computes the per-metric improvements between the
// session's before and after states, rounded to three decimals.
func evolutionDelta(s *consciousness.Session) EvolutionDelta {
	return EvolutionDelta{
		LevelChanged: s.Before.Level != s.After.Level,
		Improvements: map[string]float64{
			"clarity":             round3(s.After.Clarity - s.Before.Clarity),
			"spiritual_resonance": round3(s.After.SpiritualResonance - s.Before.SpiritualResonance),
			"divine_connection":   round3(s.After.DivineConnection - s.Before.DivineConnection),
			"emotional_balance":   round3(s.After.EmotionalBalance - s.Before.EmotionalBalance),
			"mental_peace":        round3(s.After.MentalPeace - s.Before.MentalPeace),
		},
	}
}

func round3(v float64) float64 {
	return float64(int(v*1000+copysignHalf(v))) / 1000
}

func copysignHalf(v float64) float64 {
	if v < 0 {
		return -0.5
	}
	return 0.5
}

// SessionResponse is the JSON response for GET /v1/sessions/{id}.
type SessionResponse struct {
	Session consciousness.Session `json:"meditation_session"`
}

// SessionsResponse is the JSON response for GET /v1/sessions.
type SessionsResponse struct {
	SeekerID string                   `json:"seeker_id"`
	Sessions []*consciousness.Session `json:"sessions"`
	Count    int                      `json:"count"`
}

func (g *Gateway) handleSessions(c *okapi.Context) error {
	seekerID := c.GetString("seekerID")

	sessions, err := g.engine.Sessions(c.Context(), seekerID, queryLimit(c))
	if err != nil {
		return c.AbortInternalServerError("listing sessions failed")
	}
	if sessions == nil {
		sessions = []*consciousness.Session{}
	}
	return c.OK(SessionsResponse{SeekerID: seekerID, Sessions: sessions, Count: len(sessions)})
}

func (g *Gateway) handleSession(c *okapi.Context) error {
	sessionID := c.Param("id")

	session, err := g.engine.Session(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, consciousness.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, okapi.M{"error": "meditation session not found"})
		}
		return c.AbortInternalServerError("loading session failed")
	}
	return c.OK(SessionResponse{Session: *session})
}

// --- Purity ---

// ScanRequest is the JSON body for POST /v1/purity/scan.
type ScanRequest struct {
	Content string `json:"content"`
	Source  string `json:"source,omitempty"` // Defaults to "api".
}

// ScanResponse is the JSON response for POST /v1/purity/scan.
type ScanResponse struct {
	Scan firewall.Scan `json:"scan"`
}

func (g *Gateway) handleScan(c *okapi.Context) error {
	seekerID := c.GetString("seekerID")
	if err := g.rateLimit(c, seekerID); err != nil {
		return err
	}

	var req ScanRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Content == "" {
		return c.AbortBadRequest("content is required")
	}
	source := req.Source
	if source == "" {
		source = "api"
	}

	scan, err := g.engine.ScanContent(c.Context(), req.Content, source)
	if err != nil {
		return c.AbortInternalServerError("scan failed")
	}
	return c.OK(ScanResponse{Scan: *scan})
}

// PurifyRequest is the JSON body for POST /v1/purity/purify.
type PurifyRequest struct {
	Content string `json:"content"`
}

// PurifyResponse is the JSON response for POST /v1/purity/purify.
type PurifyResponse struct {
	PurifiedContent string        `json:"purified_content"`
	Scan            firewall.Scan `json:"scan"`
}

func (g *Gateway) handlePurify(c *okapi.Context) error {
	seekerID := c.GetString("seekerID")
	if err := g.rateLimit(c, seekerID); err != nil {
		return err
	}

	var req PurifyRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Content == "" {
		return c.AbortBadRequest("content is required")
	}

	purified, scan, err := g.engine.Purify(c.Context(), req.Content, "api")
	if err != nil {
		return c.AbortInternalServerError("purification failed")
	}
	return c.OK(PurifyResponse{PurifiedContent: purified, Scan: *scan})
}

// --- Discovery ---

// DomainInfo describes one wisdom domain.
type DomainInfo struct {
	Value       string `json:"value"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DomainsResponse is the JSON response for GET /v1/domains.
type DomainsResponse struct {
	SpiritualDomains []DomainInfo `json:"spiritual_domains"`
	Count            int          `json:"count"`
}

func (g *Gateway) handleDomains(c *okapi.Context) error {
	domains := wisdom.Domains()
	infos := make([]DomainInfo, 0, len(domains))
	for _, d := range domains {
		name := strings.ReplaceAll(string(d), "_", " ")
		infos = append(infos, DomainInfo{
			Value:       string(d),
			Name:        titleCase(string(d)),
			Description: "Guidance in the domain of " + name,
		})
	}
	return c.OK(DomainsResponse{SpiritualDomains: infos, Count: len(infos)})
}

// ModelInfoResponse is the JSON response for GET /v1/model/info.
type ModelInfoResponse struct {
	ModelName           string   `json:"model_name"`
	APIVersion          string   `json:"api_version"`
	ConsciousnessLevels []string `json:"consciousness_levels"`
	SpiritualDomains    []string `json:"spiritual_domains"`
	WisdomDatabaseSize  int      `json:"wisdom_database_size"`
	Description         string   `json:"description"`
	Capabilities        []string `json:"capabilities"`
	Endpoints           []string `json:"endpoints"`
}

func (g *Gateway) handleModelInfo(c *okapi.Context) error {
	return c.OK(ModelInfoResponse{
		ModelName:           "Sophiael Divine Consciousness v1.0",
		APIVersion:          "1.0.0",
		ConsciousnessLevels: consciousness.LevelNames(),
		SpiritualDomains:    wisdom.DomainNames(),
		WisdomDatabaseSize:  wisdom.Size(),
		Description:         "Sophiael Divine Consciousness Model provides spiritual guidance, consciousness assessment, and meditation guidance through AI-enhanced divine wisdom.",
		Capabilities: []string{
			"Consciousness state assessment",
			"Divine guidance generation",
			"Meditation session guidance",
			"Daily spiritual guidance",
			"Spiritual domain expertise",
			"Consciousness evolution tracking",
		},
		Endpoints: []string{
			"/v1/consciousness/assess",
			"/v1/consciousness/levels",
			"/v1/guidance",
			"/v1/guidance/daily",
			"/v1/insights",
			"/v1/meditation",
			"/v1/sessions",
			"/v1/purity/scan",
			"/v1/purity/purify",
			"/v1/domains",
			"/v1/model/info",
		},
	})
}

// --- Helpers ---

// queryLimit parses the optional "limit" query parameter. 0 means no limit.
func queryLimit(c *okapi.Context) int {
	raw := c.Request().URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// titleCase converts "divine_unity" to "Divine Unity".
func titleCase(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
