package garden

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mallkisapan.io/garden/models"
)

func TestDashboardStatsEmpty(t *testing.T) {
	svc, _, _ := newTestServices(t)

	stats, err := svc.Dashboard.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{}, *stats)
}

func TestDashboardStats(t *testing.T) {
	svc, db, _ := newTestServices(t)
	ctx := context.Background()

	for _, score := range []int{90, 75, 61} {
		crop := createCrop(t, svc, "Crop")
		_, err := svc.Crops.Update(ctx, crop.ID, CropUpdate{HealthScore: ptr(score)})
		require.NoError(t, err)
	}

	soilA := createSensor(t, svc, "Soil A", models.SensorSoilHumidity)
	soilB := createSensor(t, svc, "Soil B", models.SensorSoilHumidity)
	createSensor(t, svc, "Soil idle", models.SensorSoilHumidity)
	_, err := svc.Sensors.RecordReading(ctx, soilA.ID, ReadingInput{Value: ptr(45.0)})
	require.NoError(t, err)
	_, err = svc.Sensors.RecordReading(ctx, soilB.ID, ReadingInput{Value: ptr(62.2)})
	require.NoError(t, err)

	stale := createSensor(t, svc, "Temp outside", models.SensorTemperature)
	fresh := createSensor(t, svc, "Temp greenhouse", models.SensorTemperature)
	require.NoError(t, db.Model(&models.Sensor{}).Where("id = ?", stale.ID).
		Updates(map[string]any{"last_value": 12.0, "last_update": testNow.Add(-time.Hour)}).Error)
	require.NoError(t, db.Model(&models.Sensor{}).Where("id = ?", fresh.ID).
		Updates(map[string]any{"last_value": 24.5, "last_update": testNow.Add(-time.Minute)}).Error)

	seedAlert(t, svc, models.SeverityHigh, false, time.Minute)
	seedAlert(t, svc, models.SeverityLow, false, time.Minute)
	seedAlert(t, svc, models.SeverityLow, true, time.Minute)

	zone := createZone(t, svc, "North")
	midnight := time.Date(testNow.Year(), testNow.Month(), testNow.Day(), 0, 0, 0, 0, time.UTC)
	for _, ev := range []struct {
		at     time.Time
		liters float64
	}{
		{midnight, 40},                    // counts, exactly at midnight
		{testNow.Add(-time.Hour), 35.5},   // counts
		{midnight.Add(-time.Minute), 100}, // yesterday
		{midnight.AddDate(0, 0, 1), 77},   // tomorrow
	} {
		_, err := svc.Irrigation.CreateEvent(ctx, EventInput{
			Trigger: models.TriggerScheduled, Duration: 10, WaterVolume: ev.liters,
			ZoneIDs: []uuid.UUID{zone.ID}, StartedAt: jsonTime(ev.at),
		})
		require.NoError(t, err)
	}

	stats, err := svc.Dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalCrops)
	assert.Equal(t, 75, stats.HealthyPercentage)
	assert.EqualValues(t, 2, stats.ActiveAlerts)
	assert.Equal(t, 75.5, stats.WaterUsageToday)
	assert.Equal(t, 53.6, stats.AvgSoilHumidity)
	assert.Equal(t, 24.5, stats.CurrentTemperature)
}

func TestDashboardWaterUsageWithOffsetTimestamps(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	zone := createZone(t, svc, "North")

	for _, ev := range []struct {
		at     string
		liters float64
	}{
		{"2025-06-14T23:30:00-05:00", 40},  // 04:30Z today
		{"2025-06-15T01:30:00+03:00", 100}, // 22:30Z yesterday
		{"2025-06-15T23:59:00-00:30", 25},  // 00:29Z tomorrow
	} {
		at, err := models.ParseTime(ev.at)
		require.NoError(t, err)
		_, err = svc.Irrigation.CreateEvent(ctx, EventInput{
			Trigger: models.TriggerScheduled, Duration: 10, WaterVolume: ev.liters,
			ZoneIDs: []uuid.UUID{zone.ID}, StartedAt: jsonTime(at),
		})
		require.NoError(t, err)
	}

	stats, err := svc.Dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40.0, stats.WaterUsageToday)
}

func TestDashboardTodayFollowsServerZone(t *testing.T) {
	db := newTestDB(t)
	quito := time.FixedZone("ECT", -5*3600)
	// 23:00 on June 14 in Quito is 04:00Z on June 15.
	svc := NewServices(db, Options{Now: func() time.Time { return time.Date(2025, 6, 14, 23, 0, 0, 0, quito) }})
	ctx := context.Background()
	zone := createZone(t, svc, "North")

	for _, ev := range []struct {
		at     time.Time
		liters float64
	}{
		{time.Date(2025, 6, 14, 6, 0, 0, 0, time.UTC), 10},  // 01:00 local, today
		{time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC), 20},  // 22:00 local, today
		{time.Date(2025, 6, 14, 4, 30, 0, 0, time.UTC), 50}, // 23:30 local yesterday
	} {
		_, err := svc.Irrigation.CreateEvent(ctx, EventInput{
			Trigger: models.TriggerScheduled, Duration: 10, WaterVolume: ev.liters,
			ZoneIDs: []uuid.UUID{zone.ID}, StartedAt: jsonTime(ev.at),
		})
		require.NoError(t, err)
	}

	stats, err := svc.Dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30.0, stats.WaterUsageToday)
}

func TestSensorHistory(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	soil := createSensor(t, svc, "A soil", models.SensorSoilHumidity)
	createSensor(t, svc, "B soil", models.SensorSoilHumidity)
	ph := createSensor(t, svc, "pH", models.SensorPH)
	for i, v := range []float64{41.26, 42.04, 43.56} {
		_, err := svc.Sensors.RecordReading(ctx, soil.ID, ReadingInput{
			Value:     ptr(v),
			Timestamp: jsonTime(testNow.Add(-time.Duration(3-i) * time.Hour)),
		})
		require.NoError(t, err)
	}
	_, err := svc.Sensors.RecordReading(ctx, soil.ID, ReadingInput{Value: ptr(10.0), Timestamp: jsonTime(testNow.Add(-48 * time.Hour))})
	require.NoError(t, err)
	_, err = svc.Sensors.RecordReading(ctx, ph.ID, ReadingInput{Value: ptr(6.5)})
	require.NoError(t, err)

	history, err := svc.Dashboard.SensorHistory(ctx, 24)
	require.NoError(t, err)
	assert.Len(t, history, 4)
	require.Len(t, history["soilHumidity"], 3)
	assert.Equal(t, []float64{41.3, 42, 43.6}, []float64{
		history["soilHumidity"][0].Value, history["soilHumidity"][1].Value, history["soilHumidity"][2].Value,
	})
	assert.Empty(t, history["temperature"])
	assert.NotNil(t, history["light"])

	_, err = svc.Dashboard.SensorHistory(ctx, MaxWindowHours+1)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRecentActivity(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	crop := createCrop(t, svc, "Tomato")
	zone := createZone(t, svc, "North")
	for i := 0; i < 7; i++ {
		seedAlert(t, svc, models.SeverityLow, false, time.Duration(i)*time.Minute)
		_, err := svc.Irrigation.CreateEvent(ctx, EventInput{
			Trigger: models.TriggerScheduled, Duration: 5, WaterVolume: 15,
			ZoneIDs: []uuid.UUID{zone.ID}, StartedAt: jsonTime(testNow.Add(-time.Duration(i) * time.Hour)),
		})
		require.NoError(t, err)
	}
	_, err := svc.Photos.Create(ctx, PhotoInput{URL: "https://example.com/p.jpg", CropID: &crop.ID})
	require.NoError(t, err)

	activity, err := svc.Dashboard.RecentActivity(ctx)
	require.NoError(t, err)
	assert.Len(t, activity.Alerts, 5)
	require.Len(t, activity.Irrigation, 5)
	assert.Equal(t, []string{"North"}, activity.Irrigation[0].Zones)
	require.Len(t, activity.Photos, 1)
	assert.Equal(t, "Tomato", activity.Photos[0].CropName)
}
