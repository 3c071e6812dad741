package postgres

import (
	"time"
)

// SeekerStateModel maps to the "seeker_states" table.
// Holds the latest consciousness state per seeker, one row each.
type SeekerStateModel struct {
	SeekerID          string `gorm:"primaryKey"`
	Level             string `gorm:"not null"`
	Clarity           float64
	SpiritualResonance float64
	DivineConnection  float64
	EmotionalBalance  float64
	MentalPeace       float64
	AssessedAt        time.Time `gorm:"not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (SeekerStateModel) TableName() string { return "seeker_states" }

// MeditationSessionModel maps to the "meditation_sessions" table.
// Before/after states are stored as JSON text so the session record stays
// a faithful snapshot even if the state schema evolves.
type MeditationSessionModel struct {
	SessionID       string `gorm:"primaryKey"`
	SeekerID        string `gorm:"not null;index"`
	Intention       string
	DurationMinutes int    `gorm:"not null"`
	Guidance        string `gorm:"type:text"` // JSON array of guidance strings.
	BeforeState     string `gorm:"type:text"` // JSON-encoded state snapshot.
	AfterState      string `gorm:"type:text"`
	CompletedAt     time.Time `gorm:"not null;index"`
	CreatedAt       time.Time
}

func (MeditationSessionModel) TableName() string { return "meditation_sessions" }

// InsightModel maps to the "insights" table.
type InsightModel struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	SeekerID        string `gorm:"not null;index"`
	Domain          string `gorm:"not null"`
	GuidanceType    string `gorm:"not null"`
	Message         string `gorm:"type:text"`
	Confidence      float64
	SacredReference string
	DeliveredAt     time.Time `gorm:"not null;index"`
	CreatedAt       time.Time
}

func (InsightModel) TableName() string { return "insights" }

// ScanLogModel maps to the "scan_log" table.
type ScanLogModel struct {
	ID                 uint   `gorm:"primaryKey;autoIncrement"`
	Source             string `gorm:"not null"`
	IsPure             bool
	DivineScore        float64
	ThreatLevel        float64
	AlignmentScore     float64
	PurificationNeeded bool
	TriggeredFilters   string    `gorm:"type:text"` // JSON array of filter names.
	ScannedAt          time.Time `gorm:"not null;index"`
	CreatedAt          time.Time
}

func (ScanLogModel) TableName() string { return "scan_log" }
