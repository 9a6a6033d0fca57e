// Package metrics exposes Prometheus collectors for the HTTP layer and garden activity.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mallkisapan.io/garden/models"
)

// Metrics owns its registry so tests can create isolated instances.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	readingsTotal      *prometheus.CounterVec
	sensorValue        *prometheus.GaugeVec
	alertsCreatedTotal *prometheus.CounterVec
	irrigationLiters   *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)
	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time taken for HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	m.readingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garden_sensor_readings_total",
			Help: "Sensor readings recorded, by sensor type and derived status",
		},
		[]string{"type", "status"},
	)
	m.sensorValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "garden_sensor_last_value",
			Help: "Most recent value reported per sensor",
		},
		[]string{"sensor_id", "type"},
	)
	m.alertsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garden_alerts_created_total",
			Help: "Alerts created, by severity",
		},
		[]string{"severity"},
	)
	m.irrigationLiters = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garden_irrigation_water_liters_total",
			Help: "Water logged by irrigation events, by trigger",
		},
		[]string{"trigger"},
	)

	for _, c := range []prometheus.Collector{
		m.httpRequestsTotal, m.httpRequestDuration,
		m.readingsTotal, m.sensorValue, m.alertsCreatedTotal, m.irrigationLiters,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.Registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ReadingRecorded(sensor models.Sensor, value float64) {
	m.readingsTotal.WithLabelValues(string(sensor.Type), string(sensor.Status)).Inc()
	m.sensorValue.WithLabelValues(sensor.ID.String(), string(sensor.Type)).Set(value)
}

func (m *Metrics) AlertCreated(severity models.AlertSeverity) {
	m.alertsCreatedTotal.WithLabelValues(string(severity)).Inc()
}

func (m *Metrics) IrrigationLogged(trigger models.IrrigationTrigger, liters float64) {
	m.irrigationLiters.WithLabelValues(string(trigger)).Add(liters)
}
