package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sophia-platform/sophia/internal/consciousness"
)

// Compile-time interface check.
var _ consciousness.StateStore = (*StateRepository)(nil)

// StateRepository implements consciousness.StateStore with GORM.
type StateRepository struct {
	db *gorm.DB
}

// NewStateRepository creates a StateRepository.
func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{db: db}
}

// SaveState upserts the seeker's latest consciousness state.
func (r *StateRepository) SaveState(ctx context.Context, seekerID string, state consciousness.State) error {
	model := SeekerStateModel{
		SeekerID:           seekerID,
		Level:              state.Level.String(),
		Clarity:            state.Clarity,
		SpiritualResonance: state.SpiritualResonance,
		DivineConnection:   state.DivineConnection,
		EmotionalBalance:   state.EmotionalBalance,
		MentalPeace:        state.MentalPeace,
		AssessedAt:         state.Timestamp.UTC(),
		UpdatedAt:          time.Now().UTC(),
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "seeker_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"level", "clarity", "spiritual_resonance", "divine_connection",
				"emotional_balance", "mental_peace", "assessed_at", "updated_at",
			}),
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("saving seeker state: %w", err)
	}
	return nil
}

// GetState returns the seeker's latest state, or (nil, nil) when absent.
func (r *StateRepository) GetState(ctx context.Context, seekerID string) (*consciousness.State, error) {
	var model SeekerStateModel
	err := r.db.WithContext(ctx).
		Where("seeker_id = ?", seekerID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading seeker state: %w", err)
	}

	level, err := consciousness.ParseLevel(model.Level)
	if err != nil {
		return nil, fmt.Errorf("stored state for %s: %w", seekerID, err)
	}

	return &consciousness.State{
		Level:              level,
		Clarity:            model.Clarity,
		SpiritualResonance: model.SpiritualResonance,
		DivineConnection:   model.DivineConnection,
		EmotionalBalance:   model.EmotionalBalance,
		MentalPeace:        model.MentalPeace,
		Timestamp:          model.AssessedAt,
	}, nil
}
