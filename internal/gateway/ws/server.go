// Package ws implements the WebSocket meditation gateway. Seekers connect,
// request a guided session, and receive its phases as paced JSON frames
// instead of the single aggregate response the HTTP API returns.
package ws

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/sophia-platform/sophia/internal/consciousness"
	"github.com/sophia-platform/sophia/internal/engine"
)

// Frame types exchanged over the meditation stream.
const (
	MsgMeditationStart    = "meditation.start"    // Client → server: begin a session.
	MsgMeditationPhase    = "meditation.phase"    // Server → client: one guidance phase.
	MsgMeditationComplete = "meditation.complete" // Server → client: session summary.
	MsgError              = "error"               // Server → client: request rejected.
)

// Frame is the envelope for every message on the stream.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StartPayload is the client's session request.
type StartPayload struct {
	Intention       string `json:"intention,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
}

// PhasePayload is one guidance phase of the session.
type PhasePayload struct {
	Phase   string                `json:"phase"` // opening, deepening, integration.
	Number  int                   `json:"number"`
	Total   int                   `json:"total"`
	Insight consciousness.Insight `json:"insight"`
}

// CompletePayload closes the stream with the persisted session and the
// per-metric evolution deltas.
type CompletePayload struct {
	Session      consciousness.Session `json:"meditation_session"`
	LevelChanged bool                  `json:"level_changed"`
	Improvements map[string]float64    `json:"improvements"`
}

// ErrorPayload carries the rejection reason before the connection closes.
type ErrorPayload struct {
	Error string `json:"error"`
}

// Config holds the meditation stream settings.
type Config struct {
	// APIKeys maps bearer keys to seeker IDs, shared with the HTTP gateway.
	APIKeys map[string]string
	// PhaseInterval is the pause between streamed phases. Default 2s.
	PhaseInterval time.Duration
	// MaxActivePerSeeker bounds concurrent streams per seeker. Default 2.
	MaxActivePerSeeker int
}

func (c Config) phaseInterval() time.Duration {
	if c.PhaseInterval > 0 {
		return c.PhaseInterval
	}
	return 2 * time.Second
}

func (c Config) maxActive() int {
	if c.MaxActivePerSeeker > 0 {
		return c.MaxActivePerSeeker
	}
	return 2
}

// Server streams guided meditation sessions over WebSocket.
type Server struct {
	engine  engine.Engine
	cfg     Config
	tracker *StreamTracker
	logger  *slog.Logger
}

// NewServer creates the meditation stream server.
func NewServer(eng engine.Engine, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:  eng,
		cfg:     cfg,
		tracker: NewStreamTracker(logger),
		logger:  logger,
	}
}

// Tracker returns the active-stream tracker, for readiness reporting.
func (s *Server) Tracker() *StreamTracker {
	return s.tracker
}

// Handler returns an http.Handler that upgrades connections to WebSocket.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleUpgrade)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	seekerID, ok := s.authenticate(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{"sophia-meditation-v1"},
	})
	if err != nil {
		s.logger.Error("websocket accept failed", slog.String("error", err.Error()))
		return
	}

	s.handleConnection(r.Context(), conn, seekerID)
}

// authenticate resolves the seeker from the key in the token query
// parameter or the Authorization header. An empty key map allows all
// connections as the default seeker.
func (s *Server) authenticate(r *http.Request) (string, bool) {
	if len(s.cfg.APIKeys) == 0 {
		return "default", true
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	for key, seekerID := range s.cfg.APIKeys {
		if subtle.ConstantTimeCompare([]byte(token), []byte(key)) == 1 {
			return seekerID, true
		}
	}
	return "", false
}

func (s *Server) handleConnection(ctx context.Context, conn *websocket.Conn, seekerID string) {
	defer conn.Close(websocket.StatusNormalClosure, "session complete")

	if s.tracker.ActiveFor(seekerID) >= s.cfg.maxActive() {
		s.writeError(ctx, conn, "too many concurrent meditation streams")
		conn.Close(websocket.StatusPolicyViolation, "stream limit reached")
		return
	}

	start, err := s.waitForStart(ctx, conn)
	if err != nil {
		s.writeError(ctx, conn, err.Error())
		return
	}

	streamID := s.tracker.Begin(seekerID, start.Intention, start.DurationMinutes)
	defer s.tracker.End(streamID)

	session, err := s.engine.Meditate(ctx, seekerID, start.Intention, start.DurationMinutes)
	if err != nil {
		if errors.Is(err, consciousness.ErrDurationOutOfRange) {
			s.writeError(ctx, conn, err.Error())
			return
		}
		s.logger.Error("meditation stream failed",
			slog.String("seeker_id", seekerID),
			slog.String("error", err.Error()),
		)
		s.writeError(ctx, conn, "meditation failed")
		return
	}

	if err := s.streamPhases(ctx, conn, session); err != nil {
		s.logger.Warn("meditation stream interrupted",
			slog.String("seeker_id", seekerID),
			slog.String("session_id", session.SessionID),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Info("meditation stream completed",
		slog.String("seeker_id", seekerID),
		slog.String("session_id", session.SessionID),
		slog.Int("phases", len(session.GuidanceReceived)),
	)
}

// waitForStart reads the first frame, which must be meditation.start.
func (s *Server) waitForStart(ctx context.Context, conn *websocket.Conn) (*StartPayload, error) {
	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, data, err := conn.Read(startCtx)
	if err != nil {
		return nil, fmt.Errorf("reading start frame: %w", err)
	}

	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("parsing start frame: %w", err)
	}
	if frame.Type != MsgMeditationStart {
		return nil, fmt.Errorf("expected %s, got %s", MsgMeditationStart, frame.Type)
	}

	var start StartPayload
	if len(frame.Payload) > 0 {
		if err := json.Unmarshal(frame.Payload, &start); err != nil {
			return nil, fmt.Errorf("parsing start payload: %w", err)
		}
	}
	return &start, nil
}

// streamPhases sends one frame per guidance insight, paced by the
// configured interval, then the completion summary.
func (s *Server) streamPhases(ctx context.Context, conn *websocket.Conn, session *consciousness.Session) error {
	names := phaseNames(len(session.GuidanceReceived))
	interval := s.cfg.phaseInterval()

	for i, insight := range session.GuidanceReceived {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
		err := s.writeFrame(ctx, conn, MsgMeditationPhase, PhasePayload{
			Phase:   names[i],
			Number:  i + 1,
			Total:   len(session.GuidanceReceived),
			Insight: insight,
		})
		if err != nil {
			return err
		}
	}

	return s.writeFrame(ctx, conn, MsgMeditationComplete, CompletePayload{
		Session:      *session,
		LevelChanged: session.Before.Level != session.After.Level,
		Improvements: improvements(session),
	})
}

// phaseNames labels the guidance sequence. Short sessions skip the
// deepening phase, matching the evolver's insight count.
func phaseNames(n int) []string {
	if n == 2 {
		return []string{"opening", "integration"}
	}
	names := []string{"opening"}
	for i := 1; i < n-1; i++ {
		names = append(names, "deepening")
	}
	return append(names, "integration")
}

func improvements(s *consciousness.Session) map[string]float64 {
	return map[string]float64{
		"clarity":             s.After.Clarity - s.Before.Clarity,
		"spiritual_resonance": s.After.SpiritualResonance - s.Before.SpiritualResonance,
		"divine_connection":   s.After.DivineConnection - s.Before.DivineConnection,
		"emotional_balance":   s.After.EmotionalBalance - s.Before.EmotionalBalance,
		"mental_peace":        s.After.MentalPeace - s.Before.MentalPeace,
	}
}

func (s *Server) writeFrame(ctx context.Context, conn *websocket.Conn, msgType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(Frame{Type: msgType, Payload: raw})
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

func (s *Server) writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	if err := s.writeFrame(ctx, conn, MsgError, ErrorPayload{Error: msg}); err != nil {
		s.logger.Debug("writing error frame failed", slog.String("error", err.Error()))
	}
}
