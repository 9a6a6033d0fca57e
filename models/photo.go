package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Photo is a picture of a crop, optionally analysed.
type Photo struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"            json:"id"`
	URL          string         `gorm:"column:url;not null"             json:"url"`
	ThumbnailURL string         `gorm:"column:thumbnail_url"            json:"thumbnailUrl"`
	CropID       uuid.UUID      `gorm:"type:uuid;not null;index"        json:"cropId"`
	Crop         *Crop          `gorm:"foreignKey:CropID"               json:"-"`
	CapturedAt   time.Time      `gorm:"column:captured_at;not null;index" json:"capturedAt"`
	Analysis     *PhotoAnalysis `gorm:"foreignKey:PhotoID;constraint:OnDelete:CASCADE" json:"aiAnalysis,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PhotoAnalysis holds the AI assessment of a photo. One per photo.
type PhotoAnalysis struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey"               json:"id"`
	PhotoID         uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex"     json:"photoId"`
	HealthScore     int                         `gorm:"column:health_score;not null"       json:"healthScore"`
	GrowthStage     string                      `gorm:"column:growth_stage;not null"       json:"growthStage"`
	Issues          datatypes.JSONSlice[string] `gorm:"column:issues"                      json:"issues"`
	Recommendations datatypes.JSONSlice[string] `gorm:"column:recommendations"             json:"recommendations"`
	AnalyzedAt      time.Time                   `gorm:"column:analyzed_at;not null"        json:"analyzedAt"`
}

func (a *PhotoAnalysis) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
