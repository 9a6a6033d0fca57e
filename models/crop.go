package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GrowthStage is set manually by the grower.
type GrowthStage string

const (
	StageGermination GrowthStage = "germination"
	StageSeedling    GrowthStage = "seedling"
	StageVegetative  GrowthStage = "vegetative"
	StageFlowering   GrowthStage = "flowering"
	StageFruiting    GrowthStage = "fruiting"
	StageHarvest     GrowthStage = "harvest"
)

// Crop is a planting tracked through its growth stages.
type Crop struct {
	ID                  uuid.UUID   `gorm:"type:uuid;primaryKey"                 json:"id"`
	Name                string      `gorm:"column:name;not null"                 json:"name"`
	Variety             string      `gorm:"column:variety;not null"              json:"variety"`
	PlantedDate         time.Time   `gorm:"column:planted_date;not null;index"   json:"plantedDate"`
	ExpectedHarvestDate time.Time   `gorm:"column:expected_harvest_date;not null" json:"expectedHarvestDate"`
	CurrentStage        GrowthStage `gorm:"column:current_stage;type:varchar(16);not null" json:"currentStage"`
	HealthScore         int         `gorm:"column:health_score;not null"         json:"healthScore"`
	Location            string      `gorm:"column:location;not null"             json:"location"`
	ImageURL            string      `gorm:"column:image_url"                     json:"imageUrl"`
	Notes               *string     `gorm:"column:notes;type:text"               json:"notes,omitempty"`

	Sensors []Sensor `gorm:"many2many:crop_sensors;constraint:OnDelete:CASCADE" json:"sensors"`
	Alerts  []Alert  `gorm:"foreignKey:CropID"                                   json:"alerts,omitempty"`
	Photos  []Photo  `gorm:"foreignKey:CropID"                                   json:"photos,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (c *Crop) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CurrentStage == "" {
		c.CurrentStage = StageGermination
	}
	return nil
}
