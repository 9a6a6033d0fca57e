package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertType string

const (
	AlertPest          AlertType = "pest"
	AlertDisease       AlertType = "disease"
	AlertIrrigation    AlertType = "irrigation"
	AlertNutrition     AlertType = "nutrition"
	AlertEnvironmental AlertType = "environmental"
	AlertGrowth        AlertType = "growth"
)

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is immutable once created except for IsRead.
type Alert struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey"                    json:"id"`
	Type             AlertType     `gorm:"column:type;type:varchar(16);not null;index" json:"type"`
	Severity         AlertSeverity `gorm:"column:severity;type:varchar(16);not null;index" json:"severity"`
	Title            string        `gorm:"column:title;not null"                   json:"title"`
	Message          string        `gorm:"column:message;type:text;not null"       json:"message"`
	CropID           *uuid.UUID    `gorm:"type:uuid;index"                         json:"cropId,omitempty"`
	Crop             *Crop         `gorm:"foreignKey:CropID"                       json:"-"`
	IsRead           bool          `gorm:"column:is_read;not null;index"           json:"isRead"`
	AIRecommendation *string       `gorm:"column:ai_recommendation;type:text"      json:"aiRecommendation,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
