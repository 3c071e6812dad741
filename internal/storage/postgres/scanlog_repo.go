package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/sophia-platform/sophia/internal/firewall"
)

// Compile-time interface check.
var _ firewall.ScanLogStore = (*ScanLogRepository)(nil)

// ScanLogRepository implements firewall.ScanLogStore with GORM.
type ScanLogRepository struct {
	db *gorm.DB
}

// NewScanLogRepository creates a ScanLogRepository.
func NewScanLogRepository(db *gorm.DB) *ScanLogRepository {
	return &ScanLogRepository{db: db}
}

// LogScan appends a scan result to the audit log.
func (r *ScanLogRepository) LogScan(ctx context.Context, scan *firewall.Scan) error {
	filters, err := json.Marshal(scan.TriggeredFilters)
	if err != nil {
		return fmt.Errorf("encoding triggered filters: %w", err)
	}

	model := ScanLogModel{
		Source:             scan.Source,
		IsPure:             scan.IsPure,
		DivineScore:        scan.DivineScore,
		ThreatLevel:        scan.ThreatLevel,
		AlignmentScore:     scan.AlignmentScore,
		PurificationNeeded: scan.PurificationNeeded,
		TriggeredFilters:   string(filters),
		ScannedAt:          scan.ScanTime.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("logging scan: %w", err)
	}
	return nil
}

// ListScans returns recent scans, newest first.
func (r *ScanLogRepository) ListScans(ctx context.Context, limit int) ([]*firewall.Scan, error) {
	query := r.db.WithContext(ctx).Order("scanned_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []ScanLogModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}

	scans := make([]*firewall.Scan, 0, len(models))
	for _, model := range models {
		scan := &firewall.Scan{
			Source:             model.Source,
			IsPure:             model.IsPure,
			DivineScore:        model.DivineScore,
			ThreatLevel:        model.ThreatLevel,
			AlignmentScore:     model.AlignmentScore,
			PurificationNeeded: model.PurificationNeeded,
			ScanTime:           model.ScannedAt,
		}
		if model.TriggeredFilters != "" {
			if err := json.Unmarshal([]byte(model.TriggeredFilters), &scan.TriggeredFilters); err != nil {
				return nil, fmt.Errorf("decoding triggered filters: %w", err)
			}
		}
		scans = append(scans, scan)
	}
	return scans, nil
}

// CountScans returns the total number of logged scans.
func (r *ScanLogRepository) CountScans(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ScanLogModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting scans: %w", err)
	}
	return count, nil
}
