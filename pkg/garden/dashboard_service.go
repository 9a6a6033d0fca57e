package garden

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mallkisapan.io/garden/models"
	"mallkisapan.io/garden/utils"
)

const recentActivityLimit = 5

// historySeries maps sensor types to the keys of the history chart.
var historySeries = map[models.SensorType]string{
	models.SensorSoilHumidity: "soilHumidity",
	models.SensorAirHumidity:  "airHumidity",
	models.SensorTemperature:  "temperature",
	models.SensorLight:        "light",
}

// DashboardStats are the headline figures of the dashboard.
type DashboardStats struct {
	TotalCrops         int64   `json:"totalCrops"`
	HealthyPercentage  int     `json:"healthyPercentage"`
	ActiveAlerts       int64   `json:"activeAlerts"`
	WaterUsageToday    float64 `json:"waterUsageToday"`
	AvgSoilHumidity    float64 `json:"avgSoilHumidity"`
	CurrentTemperature float64 `json:"currentTemperature"`
}

// HistoryPoint is one value of a chart series.
type HistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// RecentActivity lists the newest alerts, irrigation events and photos.
type RecentActivity struct {
	Alerts     []AlertView `json:"alerts"`
	Irrigation []EventView `json:"irrigation"`
	Photos     []PhotoView `json:"photos"`
}

// DashboardService computes read-only aggregates.
type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDashboardService creates a new dashboard service instance
func NewDashboardService(db *gorm.DB, opts Options) *DashboardService {
	opts = opts.withDefaults()
	return &DashboardService{db: db, now: opts.Now}
}

// Stats computes the dashboard figures. Water usage counts events started since local midnight.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{}

	var scores []int
	if err := db.Model(&models.Crop{}).Pluck("health_score", &scores).Error; err != nil {
		return nil, fmt.Errorf("crop health scores: %w", err)
	}
	stats.TotalCrops = int64(len(scores))
	if len(scores) > 0 {
		values := make([]float64, len(scores))
		for i, v := range scores {
			values[i] = float64(v)
		}
		stats.HealthyPercentage = int(utils.Round(utils.Mean(values), 0))
	}

	unread, err := countUnreadAlerts(db)
	if err != nil {
		return nil, err
	}
	stats.ActiveAlerts = unread

	// Today is the server's calendar day; the bounds are compared in UTC like the stored times.
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var volumes []float64
	err = db.Model(&models.IrrigationEvent{}).
		Where("started_at >= ? AND started_at < ?", midnight.UTC(), midnight.AddDate(0, 0, 1).UTC()).
		Pluck("water_volume", &volumes).Error
	if err != nil {
		return nil, fmt.Errorf("water usage today: %w", err)
	}
	stats.WaterUsageToday = utils.Sum(volumes)

	var soil []float64
	err = db.Model(&models.Sensor{}).
		Where("type = ? AND last_value IS NOT NULL", models.SensorSoilHumidity).
		Pluck("last_value", &soil).Error
	if err != nil {
		return nil, fmt.Errorf("soil humidity: %w", err)
	}
	stats.AvgSoilHumidity = utils.Round(utils.Mean(soil), 1)

	var temps []float64
	err = db.Model(&models.Sensor{}).
		Where("type = ? AND last_value IS NOT NULL", models.SensorTemperature).
		Order("last_update DESC").
		Limit(1).
		Pluck("last_value", &temps).Error
	if err != nil {
		return nil, fmt.Errorf("current temperature: %w", err)
	}
	if len(temps) > 0 {
		stats.CurrentTemperature = temps[0]
	}
	return stats, nil
}

// SensorHistory returns one series per charted sensor type, taken from the first sensor
// of that type (by name) with readings in the last hours. Values are rounded to one decimal.
func (s *DashboardService) SensorHistory(ctx context.Context, hours int) (map[string][]HistoryPoint, error) {
	if err := checkWindow("hours", hours, MaxWindowHours); err != nil {
		return nil, err
	}
	since := s.now().UTC().Add(-time.Duration(hours) * time.Hour)

	types := make([]models.SensorType, 0, len(historySeries))
	history := make(map[string][]HistoryPoint, len(historySeries))
	for _, t := range models.SensorTypes {
		if key, ok := historySeries[t]; ok {
			types = append(types, t)
			history[key] = []HistoryPoint{}
		}
	}

	var sensors []models.Sensor
	err := s.db.WithContext(ctx).
		Where("type IN ?", types).
		Preload("Readings", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("recorded_at >= ?", since).Order("recorded_at ASC")
		}).
		Order("name ASC").
		Find(&sensors).Error
	if err != nil {
		return nil, fmt.Errorf("sensor history: %w", err)
	}

	for _, sensor := range sensors {
		key := historySeries[sensor.Type]
		if len(sensor.Readings) == 0 || len(history[key]) > 0 {
			continue
		}
		points := make([]HistoryPoint, 0, len(sensor.Readings))
		for _, r := range sensor.Readings {
			points = append(points, HistoryPoint{Timestamp: r.Timestamp, Value: utils.Round(r.Value, 1)})
		}
		history[key] = points
	}
	return history, nil
}

// RecentActivity returns the five newest alerts, irrigation events and photos.
func (s *DashboardService) RecentActivity(ctx context.Context) (*RecentActivity, error) {
	db := s.db.WithContext(ctx)
	out := &RecentActivity{
		Alerts:     []AlertView{},
		Irrigation: []EventView{},
		Photos:     []PhotoView{},
	}

	var alerts []models.Alert
	err := db.Preload("Crop", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "name") }).
		Order("created_at DESC").
		Limit(recentActivityLimit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	for _, a := range alerts {
		out.Alerts = append(out.Alerts, newAlertView(a))
	}

	var events []models.IrrigationEvent
	err = db.Preload("Zones").
		Order("started_at DESC").
		Limit(recentActivityLimit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("recent irrigation: %w", err)
	}
	for _, e := range events {
		out.Irrigation = append(out.Irrigation, newEventView(e))
	}

	var photos []models.Photo
	err = db.Preload("Crop", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "name") }).
		Preload("Analysis").
		Order("captured_at DESC").
		Limit(recentActivityLimit).
		Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("recent photos: %w", err)
	}
	for _, p := range photos {
		out.Photos = append(out.Photos, newPhotoView(p))
	}
	return out, nil
}
