package consciousness

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned when a meditation session ID is unknown.
var ErrSessionNotFound = errors.New("meditation session not found")

// StateStore persists the latest consciousness state per seeker.
type StateStore interface {
	// SaveState upserts the seeker's current state.
	SaveState(ctx context.Context, seekerID string, state State) error
	// GetState returns the seeker's latest state, or (nil, nil) when the
	// seeker has never been assessed.
	GetState(ctx context.Context, seekerID string) (*State, error)
}

// SessionStore persists completed meditation sessions.
type SessionStore interface {
	SaveSession(ctx context.Context, seekerID string, session *Session) error
	// GetSession returns a session by ID. Returns ErrSessionNotFound when
	// the ID is unknown.
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	// ListSessions returns the seeker's sessions, newest first.
	// A limit <= 0 means no limit.
	ListSessions(ctx context.Context, seekerID string, limit int) ([]*Session, error)
}

// InsightStore persists delivered guidance insights.
type InsightStore interface {
	SaveInsight(ctx context.Context, seekerID string, insight *Insight) error
	// ListInsights returns the seeker's insights, newest first.
	// A limit <= 0 means no limit.
	ListInsights(ctx context.Context, seekerID string, limit int) ([]*Insight, error)
}
