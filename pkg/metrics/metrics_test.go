package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mallkisapan.io/garden/models"
)

func TestGardenCounters(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	sensor := models.Sensor{ID: uuid.New(), Type: models.SensorPH, Status: models.StatusWarning}
	m.ReadingRecorded(sensor, 7.8)
	m.ReadingRecorded(sensor, 7.9)
	m.AlertCreated(models.SeverityHigh)
	m.IrrigationLogged(models.TriggerManual, 45)
	m.IrrigationLogged(models.TriggerManual, 15)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.readingsTotal.WithLabelValues("ph", "warning")))
	assert.Equal(t, 7.9, testutil.ToFloat64(m.sensorValue.WithLabelValues(sensor.ID.String(), "ph")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alertsCreatedTotal.WithLabelValues("high")))
	assert.Equal(t, 60.0, testutil.ToFloat64(m.irrigationLiters.WithLabelValues("manual")))
}

func TestObserveRequest(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.ObserveRequest(http.MethodGet, "/api/sensors", http.StatusOK, 15*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/sensors", "200")))
}
