package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/sophia-platform/sophia/internal/consciousness"
	"github.com/sophia-platform/sophia/internal/wisdom"
)

// Compile-time interface check.
var _ consciousness.InsightStore = (*InsightRepository)(nil)

// InsightRepository implements consciousness.InsightStore with GORM.
type InsightRepository struct {
	db *gorm.DB
}

// NewInsightRepository creates an InsightRepository.
func NewInsightRepository(db *gorm.DB) *InsightRepository {
	return &InsightRepository{db: db}
}

// SaveInsight persists a delivered guidance insight.
func (r *InsightRepository) SaveInsight(ctx context.Context, seekerID string, insight *consciousness.Insight) error {
	model := InsightModel{
		SeekerID:        seekerID,
		Domain:          string(insight.Domain),
		GuidanceType:    string(insight.GuidanceType),
		Message:         insight.Message,
		Confidence:      insight.Confidence,
		SacredReference: insight.SacredReference,
		DeliveredAt:     insight.Timestamp.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("saving insight: %w", err)
	}
	return nil
}

// ListInsights returns the seeker's insights, newest first.
func (r *InsightRepository) ListInsights(ctx context.Context, seekerID string, limit int) ([]*consciousness.Insight, error) {
	query := r.db.WithContext(ctx).
		Where("seeker_id = ?", seekerID).
		Order("delivered_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []InsightModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing insights: %w", err)
	}

	insights := make([]*consciousness.Insight, 0, len(models))
	for _, model := range models {
		insights = append(insights, &consciousness.Insight{
			Message:         model.Message,
			Domain:          wisdom.Domain(model.Domain),
			Confidence:      model.Confidence,
			GuidanceType:    consciousness.GuidanceType(model.GuidanceType),
			SacredReference: model.SacredReference,
			Timestamp:       model.DeliveredAt,
		})
	}
	return insights, nil
}
