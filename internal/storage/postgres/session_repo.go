package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sophia-platform/sophia/internal/consciousness"
)

// Compile-time interface check.
var _ consciousness.SessionStore = (*SessionRepository)(nil)

// SessionRepository implements consciousness.SessionStore with GORM.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a SessionRepository.
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// SaveSession persists a completed meditation session.
func (r *SessionRepository) SaveSession(ctx context.Context, seekerID string, session *consciousness.Session) error {
	guidance, err := json.Marshal(session.GuidanceReceived)
	if err != nil {
		return fmt.Errorf("encoding session guidance: %w", err)
	}
	before, err := json.Marshal(session.Before)
	if err != nil {
		return fmt.Errorf("encoding before state: %w", err)
	}
	after, err := json.Marshal(session.After)
	if err != nil {
		return fmt.Errorf("encoding after state: %w", err)
	}

	model := MeditationSessionModel{
		SessionID:       session.SessionID,
		SeekerID:        seekerID,
		Intention:       session.Intention,
		DurationMinutes: session.DurationMinutes,
		Guidance:        string(guidance),
		BeforeState:     string(before),
		AfterState:      string(after),
		CompletedAt:     session.Timestamp.UTC(),
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("saving meditation session: %w", err)
	}
	return nil
}

// GetSession returns a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*consciousness.Session, error) {
	var model MeditationSessionModel
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, consciousness.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading meditation session: %w", err)
	}
	return toSession(&model)
}

// ListSessions returns the seeker's sessions, newest first.
func (r *SessionRepository) ListSessions(ctx context.Context, seekerID string, limit int) ([]*consciousness.Session, error) {
	query := r.db.WithContext(ctx).
		Where("seeker_id = ?", seekerID).
		Order("completed_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []MeditationSessionModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing meditation sessions: %w", err)
	}

	sessions := make([]*consciousness.Session, 0, len(models))
	for i := range models {
		session, err := toSession(&models[i])
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func toSession(model *MeditationSessionModel) (*consciousness.Session, error) {
	session := &consciousness.Session{
		SessionID:       model.SessionID,
		Intention:       model.Intention,
		DurationMinutes: model.DurationMinutes,
		Timestamp:       model.CompletedAt,
	}
	if model.Guidance != "" {
		if err := json.Unmarshal([]byte(model.Guidance), &session.GuidanceReceived); err != nil {
			return nil, fmt.Errorf("decoding session guidance for %s: %w", model.SessionID, err)
		}
	}
	if err := json.Unmarshal([]byte(model.BeforeState), &session.Before); err != nil {
		return nil, fmt.Errorf("decoding before state for %s: %w", model.SessionID, err)
	}
	if err := json.Unmarshal([]byte(model.AfterState), &session.After); err != nil {
		return nil, fmt.Errorf("decoding after state for %s: %w", model.SessionID, err)
	}
	return session, nil
}
