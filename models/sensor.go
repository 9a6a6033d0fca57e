package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SensorType is the kind of quantity a sensor measures.
type SensorType string

const (
	SensorSoilHumidity SensorType = "humidity_soil"
	SensorAirHumidity  SensorType = "humidity_air"
	SensorTemperature  SensorType = "temperature"
	SensorLight        SensorType = "light"
	SensorPH           SensorType = "ph"
)

// SensorTypes lists every accepted sensor type in display order.
var SensorTypes = []SensorType{
	SensorSoilHumidity, SensorAirHumidity, SensorTemperature, SensorLight, SensorPH,
}

// SensorStatus is derived from the latest reading.
type SensorStatus string

const (
	StatusNormal   SensorStatus = "normal"
	StatusWarning  SensorStatus = "warning"
	StatusCritical SensorStatus = "critical"
)

// Sensor is a field device reporting one kind of measurement.
type Sensor struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"                  json:"id"`
	Name       string          `gorm:"column:name;not null"                  json:"name"`
	Type       SensorType      `gorm:"column:type;type:varchar(32);not null;index" json:"type"`
	Unit       string          `gorm:"column:unit;not null"                  json:"unit"`
	LastValue  *float64        `gorm:"column:last_value"                     json:"lastValue"`
	LastUpdate *time.Time      `gorm:"column:last_update"                    json:"lastUpdate"`
	Status     SensorStatus    `gorm:"column:status;type:varchar(16);not null" json:"status"`
	Readings   []SensorReading `gorm:"foreignKey:SensorID;constraint:OnDelete:CASCADE" json:"readings,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (s *Sensor) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = StatusNormal
	}
	return nil
}

// SensorReading is one timestamped sample. Readings are never updated.
type SensorReading struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                                          json:"id"`
	SensorID  uuid.UUID `gorm:"type:uuid;not null;index:idx_sensor_readings_sensor_ts,priority:1" json:"sensorId"`
	Value     float64   `gorm:"column:value;not null"                                         json:"value"`
	Timestamp time.Time `gorm:"column:recorded_at;not null;index:idx_sensor_readings_sensor_ts,priority:2" json:"timestamp"`
}

func (r *SensorReading) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
