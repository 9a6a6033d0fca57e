package garden

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mallkisapan.io/garden/models"
	"mallkisapan.io/garden/utils"
)

const sensorDetailReadings = 100

// SensorInput creates a sensor.
type SensorInput struct {
	Name string            `json:"name" validate:"required"`
	Type models.SensorType `json:"type" validate:"required,sensortype"`
	Unit string            `json:"unit" validate:"required"`
}

// SensorUpdate changes only the fields that are set.
type SensorUpdate struct {
	Name *string            `json:"name" validate:"omitempty,min=1"`
	Type *models.SensorType `json:"type" validate:"omitempty,sensortype"`
	Unit *string            `json:"unit" validate:"omitempty,min=1"`
}

// ReadingInput records one sample. Timestamp defaults to now.
type ReadingInput struct {
	Value     *float64         `json:"value" validate:"required"`
	Timestamp *models.JSONTime `json:"timestamp"`
}

// ReadingStats summarizes a sensor's readings over a window.
type ReadingStats struct {
	SensorID uuid.UUID                   `json:"sensorId"`
	Since    time.Time                   `json:"since"`
	Summary  *utils.StatisticalSummary   `json:"summary"`
	Statuses map[models.SensorStatus]int `json:"statuses"`
}

// SensorService manages sensors and their readings.
type SensorService struct {
	db       *gorm.DB
	now      func() time.Time
	recorder Recorder
}

// NewSensorService creates a new sensor service instance
func NewSensorService(db *gorm.DB, opts Options) *SensorService {
	opts = opts.withDefaults()
	return &SensorService{db: db, now: utcClock(opts.Now), recorder: opts.Recorder}
}

// List returns all sensors ordered by name.
func (s *SensorService) List(ctx context.Context) ([]models.Sensor, error) {
	sensors := []models.Sensor{}
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&sensors).Error; err != nil {
		return nil, fmt.Errorf("list sensors: %w", err)
	}
	return sensors, nil
}

// Get returns a sensor with its newest readings first.
func (s *SensorService) Get(ctx context.Context, id uuid.UUID) (*models.Sensor, error) {
	var sensor models.Sensor
	err := s.db.WithContext(ctx).
		Preload("Readings", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("recorded_at DESC").Limit(sensorDetailReadings)
		}).
		First(&sensor, "id = ?", id).Error
	if err != nil {
		return nil, dbError(err, "sensor", id)
	}
	return &sensor, nil
}

func (s *SensorService) Create(ctx context.Context, in SensorInput) (*models.Sensor, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	sensor := models.Sensor{Name: in.Name, Type: in.Type, Unit: in.Unit, Status: models.StatusNormal}
	if err := s.db.WithContext(ctx).Create(&sensor).Error; err != nil {
		return nil, fmt.Errorf("create sensor: %w", err)
	}
	return &sensor, nil
}

// Update applies a partial update. Changing the type reclassifies the last value.
func (s *SensorService) Update(ctx context.Context, id uuid.UUID, in SensorUpdate) (*models.Sensor, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	var sensor models.Sensor
	if err := s.db.WithContext(ctx).First(&sensor, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "sensor", id)
	}

	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Unit != nil {
		updates["unit"] = *in.Unit
	}
	if in.Type != nil && *in.Type != sensor.Type {
		updates["type"] = *in.Type
		if sensor.LastValue != nil {
			updates["status"] = Classify(*in.Type, *sensor.LastValue)
		}
	}
	if len(updates) == 0 {
		return &sensor, nil
	}

	if err := s.db.WithContext(ctx).Model(&sensor).Updates(updates).Error; err != nil {
		return nil, dbError(err, "sensor", id)
	}
	if err := s.db.WithContext(ctx).First(&sensor, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "sensor", id)
	}
	return &sensor, nil
}

// Delete removes a sensor, its readings and its crop links. Crops are kept.
func (s *SensorService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sensor models.Sensor
		if err := tx.Select("id").First(&sensor, "id = ?", id).Error; err != nil {
			return dbError(err, "sensor", id)
		}
		if err := tx.Where("sensor_id = ?", id).Delete(&models.SensorReading{}).Error; err != nil {
			return fmt.Errorf("delete readings of sensor %s: %w", id, err)
		}
		if err := tx.Exec("DELETE FROM crop_sensors WHERE sensor_id = ?", id).Error; err != nil {
			return fmt.Errorf("unlink sensor %s: %w", id, err)
		}
		if err := tx.Delete(&sensor).Error; err != nil {
			return fmt.Errorf("delete sensor %s: %w", id, err)
		}
		return nil
	})
}

// RecordReading stores a reading and refreshes the sensor's last value and status
// in one transaction.
func (s *SensorService) RecordReading(ctx context.Context, id uuid.UUID, in ReadingInput) (*models.SensorReading, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	now := s.now()
	ts := now
	if in.Timestamp != nil {
		ts = in.Timestamp.Time()
	}
	value := *in.Value

	var (
		reading models.SensorReading
		sensor  models.Sensor
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sensor, "id = ?", id).Error; err != nil {
			return dbError(err, "sensor", id)
		}

		reading = models.SensorReading{SensorID: id, Value: value, Timestamp: ts}
		if err := tx.Create(&reading).Error; err != nil {
			return fmt.Errorf("create reading: %w", err)
		}

		status := Classify(sensor.Type, value)
		err := tx.Model(&sensor).Updates(map[string]any{
			"last_value":  value,
			"last_update": now,
			"status":      status,
		}).Error
		if err != nil {
			return fmt.Errorf("update sensor %s: %w", id, err)
		}
		sensor.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.ReadingRecorded(sensor, value)
	return &reading, nil
}

// Readings returns the readings of the last hours, oldest first.
func (s *SensorService) Readings(ctx context.Context, id uuid.UUID, hours int) ([]models.SensorReading, error) {
	if err := checkWindow("hours", hours, MaxWindowHours); err != nil {
		return nil, err
	}
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	since := s.now().Add(-time.Duration(hours) * time.Hour)

	readings := []models.SensorReading{}
	err := s.db.WithContext(ctx).
		Where("sensor_id = ? AND recorded_at >= ?", id, since).
		Order("recorded_at ASC").
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("list readings of sensor %s: %w", id, err)
	}
	return readings, nil
}

// Stats summarizes the readings of the last hours and counts how each would classify.
func (s *SensorService) Stats(ctx context.Context, id uuid.UUID, hours int) (*ReadingStats, error) {
	if err := checkWindow("hours", hours, MaxWindowHours); err != nil {
		return nil, err
	}
	var sensor models.Sensor
	if err := s.db.WithContext(ctx).First(&sensor, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "sensor", id)
	}
	readings, err := s.Readings(ctx, id, hours)
	if err != nil {
		return nil, err
	}

	stats := &ReadingStats{
		SensorID: id,
		Since:    s.now().Add(-time.Duration(hours) * time.Hour),
		Statuses: map[models.SensorStatus]int{
			models.StatusNormal: 0, models.StatusWarning: 0, models.StatusCritical: 0,
		},
	}
	values := make([]float64, 0, len(readings))
	for _, r := range readings {
		values = append(values, r.Value)
		stats.Statuses[Classify(sensor.Type, r.Value)]++
	}
	stats.Summary = utils.Summarize(values)
	return stats, nil
}

func (s *SensorService) exists(ctx context.Context, id uuid.UUID) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Sensor{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("look up sensor %s: %w", id, err)
	}
	if n == 0 {
		return notFound("sensor", id)
	}
	return nil
}
