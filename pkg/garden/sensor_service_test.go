package garden

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mallkisapan.io/garden/models"
)

func TestSensorCreateValidation(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Sensors.Create(ctx, SensorInput{Name: "Probe", Type: "co2", Unit: "ppm"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "type", verr.Fields[0].Field)
	assert.Equal(t, "must be one of: humidity_soil humidity_air temperature light ph", verr.Fields[0].Message)

	for _, typ := range models.SensorTypes {
		_, err := svc.Sensors.Create(ctx, SensorInput{Name: "Probe " + string(typ), Type: typ, Unit: "u"})
		require.NoError(t, err, typ)
	}

	_, err = svc.Sensors.Create(ctx, SensorInput{Type: models.SensorPH})
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
}

func TestRecordReadingUpdatesSensor(t *testing.T) {
	svc, db, spy := newTestServices(t)
	ctx := context.Background()

	sensor, err := svc.Sensors.Create(ctx, SensorInput{Name: "Bed A soil", Type: models.SensorSoilHumidity, Unit: "%"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNormal, sensor.Status)
	assert.Nil(t, sensor.LastValue)

	reading, err := svc.Sensors.RecordReading(ctx, sensor.ID, ReadingInput{Value: ptr(28.0)})
	require.NoError(t, err)
	assert.Equal(t, 28.0, reading.Value)
	assert.True(t, reading.Timestamp.Equal(testNow))

	var stored models.Sensor
	require.NoError(t, db.First(&stored, "id = ?", sensor.ID).Error)
	require.NotNil(t, stored.LastValue)
	assert.Equal(t, 28.0, *stored.LastValue)
	assert.Equal(t, models.StatusCritical, stored.Status)
	require.NotNil(t, stored.LastUpdate)
	assert.True(t, stored.LastUpdate.Equal(testNow))
	assert.Equal(t, 1, spy.readings)

	_, err = svc.Sensors.RecordReading(ctx, sensor.ID, ReadingInput{Value: ptr(55.0)})
	require.NoError(t, err)
	require.NoError(t, db.First(&stored, "id = ?", sensor.ID).Error)
	assert.Equal(t, models.StatusNormal, stored.Status)
}

func TestRecordReadingErrors(t *testing.T) {
	svc, db, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Sensors.RecordReading(ctx, uuid.New(), ReadingInput{Value: ptr(1.0)})
	assert.True(t, errors.Is(err, ErrNotFound))

	sensor, err := svc.Sensors.Create(ctx, SensorInput{Name: "pH", Type: models.SensorPH, Unit: "pH"})
	require.NoError(t, err)
	_, err = svc.Sensors.RecordReading(ctx, sensor.ID, ReadingInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "value", verr.Fields[0].Field)

	var n int64
	require.NoError(t, db.Model(&models.SensorReading{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSensorReadingsWindow(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	sensor, err := svc.Sensors.Create(ctx, SensorInput{Name: "Greenhouse temp", Type: models.SensorTemperature, Unit: "°C"})
	require.NoError(t, err)
	for _, ago := range []time.Duration{30 * time.Hour, 3 * time.Hour, 1 * time.Hour, 2 * time.Hour} {
		_, err := svc.Sensors.RecordReading(ctx, sensor.ID, ReadingInput{
			Value:     ptr(20.0),
			Timestamp: jsonTime(testNow.Add(-ago)),
		})
		require.NoError(t, err)
	}

	readings, err := svc.Sensors.Readings(ctx, sensor.ID, 24)
	require.NoError(t, err)
	require.Len(t, readings, 3)
	for i := 1; i < len(readings); i++ {
		assert.True(t, readings[i-1].Timestamp.Before(readings[i].Timestamp), "readings ascending")
	}

	detail, err := svc.Sensors.Get(ctx, sensor.ID)
	require.NoError(t, err)
	require.Len(t, detail.Readings, 4)
	assert.True(t, detail.Readings[0].Timestamp.Equal(testNow.Add(-time.Hour)), "newest first")

	_, err = svc.Sensors.Readings(ctx, uuid.New(), 24)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSensorReadingsWindowBounds(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	sensor, err := svc.Sensors.Create(ctx, SensorInput{Name: "Bed light", Type: models.SensorLight, Unit: "lux"})
	require.NoError(t, err)
	_, err = svc.Sensors.RecordReading(ctx, sensor.ID, ReadingInput{Value: ptr(12000.0)})
	require.NoError(t, err)

	readings, err := svc.Sensors.Readings(ctx, sensor.ID, MaxWindowHours)
	require.NoError(t, err)
	assert.Len(t, readings, 1)

	for _, hours := range []int{0, MaxWindowHours + 1, 3000000} {
		_, err := svc.Sensors.Readings(ctx, sensor.ID, hours)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "hours=%d", hours)
		assert.Equal(t, "hours", verr.Fields[0].Field)

		_, err = svc.Sensors.Stats(ctx, sensor.ID, hours)
		assert.ErrorAs(t, err, &verr, "hours=%d", hours)
	}
}

func TestReadingWithOffsetTimestampIsStoredInUTC(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	sensor, err := svc.Sensors.Create(ctx, SensorInput{Name: "Soil", Type: models.SensorSoilHumidity, Unit: "%"})
	require.NoError(t, err)
	tokyo := time.FixedZone("JST", 9*3600)
	for _, at := range []time.Time{
		testNow.Add(-time.Hour).In(tokyo),
		testNow.Add(-30 * time.Hour).In(time.FixedZone("HST", -10*3600)),
	} {
		_, err := svc.Sensors.RecordReading(ctx, sensor.ID, ReadingInput{Value: ptr(50.0), Timestamp: jsonTime(at)})
		require.NoError(t, err)
	}

	readings, err := svc.Sensors.Readings(ctx, sensor.ID, 24)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.True(t, readings[0].Timestamp.Equal(testNow.Add(-time.Hour)))
}

func TestSensorStats(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	sensor, err := svc.Sensors.Create(ctx, SensorInput{Name: "Soil", Type: models.SensorSoilHumidity, Unit: "%"})
	require.NoError(t, err)
	for i, v := range []float64{25, 45, 60, 75} {
		_, err := svc.Sensors.RecordReading(ctx, sensor.ID, ReadingInput{
			Value:     ptr(v),
			Timestamp: jsonTime(testNow.Add(-time.Duration(i+1) * time.Minute)),
		})
		require.NoError(t, err)
	}

	stats, err := svc.Sensors.Stats(ctx, sensor.ID, 24)
	require.NoError(t, err)
	require.NotNil(t, stats.Summary)
	assert.Equal(t, 4, stats.Summary.Count)
	assert.InDelta(t, 51.25, stats.Summary.Mean, 1e-9)
	assert.Equal(t, 1, stats.Statuses[models.StatusCritical])
	assert.Equal(t, 1, stats.Statuses[models.StatusWarning])
	assert.Equal(t, 2, stats.Statuses[models.StatusNormal])
}

func TestSensorUpdateReclassifies(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	sensor, err := svc.Sensors.Create(ctx, SensorInput{Name: "Probe", Type: models.SensorAirHumidity, Unit: "%"})
	require.NoError(t, err)
	_, err = svc.Sensors.RecordReading(ctx, sensor.ID, ReadingInput{Value: ptr(20.0)})
	require.NoError(t, err)

	updated, err := svc.Sensors.Update(ctx, sensor.ID, SensorUpdate{Type: ptr(models.SensorSoilHumidity)})
	require.NoError(t, err)
	assert.Equal(t, models.SensorSoilHumidity, updated.Type)
	assert.Equal(t, models.StatusCritical, updated.Status)

	_, err = svc.Sensors.Update(ctx, uuid.New(), SensorUpdate{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSensorDeleteKeepsCrops(t *testing.T) {
	svc, db, _ := newTestServices(t)
	ctx := context.Background()

	sensor, err := svc.Sensors.Create(ctx, SensorInput{Name: "Soil", Type: models.SensorSoilHumidity, Unit: "%"})
	require.NoError(t, err)
	_, err = svc.Sensors.RecordReading(ctx, sensor.ID, ReadingInput{Value: ptr(50.0)})
	require.NoError(t, err)
	crop, err := svc.Crops.Create(ctx, CropInput{
		Name:                "Tomato",
		Variety:             "Cherry",
		PlantedDate:         jsonTime(testNow.AddDate(0, -1, 0)),
		ExpectedHarvestDate: jsonTime(testNow.AddDate(0, 2, 0)),
		Location:            "Bed A",
		SensorIDs:           []uuid.UUID{sensor.ID},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Sensors.Delete(ctx, sensor.ID))

	var readings, links int64
	require.NoError(t, db.Model(&models.SensorReading{}).Count(&readings).Error)
	require.NoError(t, db.Table("crop_sensors").Count(&links).Error)
	assert.Zero(t, readings)
	assert.Zero(t, links)

	got, err := svc.Crops.Get(ctx, crop.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Sensors)

	assert.ErrorIs(t, svc.Sensors.Delete(ctx, sensor.ID), ErrNotFound)
}
