package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IrrigationTrigger records why an irrigation event happened.
type IrrigationTrigger string

const (
	TriggerScheduled  IrrigationTrigger = "scheduled"
	TriggerAIDecision IrrigationTrigger = "ai_decision"
	TriggerManual     IrrigationTrigger = "manual"
)

// IrrigationTriggers lists every trigger, used for per-trigger statistics.
var IrrigationTriggers = []IrrigationTrigger{TriggerScheduled, TriggerAIDecision, TriggerManual}

// IrrigationZone is a group of valves watered together.
type IrrigationZone struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"       json:"id"`
	Name     string    `gorm:"column:name;not null"       json:"name"`
	IsActive bool      `gorm:"column:is_active;not null"  json:"isActive"`
	// Boundary is a GeoJSON polygon; AreaM2 is derived from it.
	Boundary datatypes.JSON `gorm:"column:boundary"        json:"boundary,omitempty"`
	AreaM2   *float64       `gorm:"column:area_m2"         json:"areaM2,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (z *IrrigationZone) BeforeCreate(tx *gorm.DB) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	return nil
}

// IrrigationEvent is one watering run over one or more zones.
// Duration is in minutes, WaterVolume in liters.
type IrrigationEvent struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"                  json:"id"`
	Trigger     IrrigationTrigger `gorm:"column:trigger_type;type:varchar(16);not null;index" json:"trigger"`
	Duration    int               `gorm:"column:duration;not null"              json:"duration"`
	WaterVolume float64           `gorm:"column:water_volume;not null"          json:"waterVolume"`
	StartedAt   time.Time         `gorm:"column:started_at;not null;index"      json:"startedAt"`
	EndedAt     *time.Time        `gorm:"column:ended_at"                       json:"endedAt"`
	Zones       []IrrigationZone  `gorm:"many2many:irrigation_event_zones;joinForeignKey:EventID;joinReferences:ZoneID" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (e *IrrigationEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ZoneNames returns the names of the loaded zones.
func (e IrrigationEvent) ZoneNames() []string {
	names := make([]string, 0, len(e.Zones))
	for _, z := range e.Zones {
		names = append(names, z.Name)
	}
	return names
}
