package garden

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mallkisapan.io/garden/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		typ      models.SensorType
		value    float64
		expected models.SensorStatus
	}{
		// Soil humidity
		{"soil far below", models.SensorSoilHumidity, 12, models.StatusCritical},
		{"soil just below critical", models.SensorSoilHumidity, 29.9, models.StatusCritical},
		{"soil at critical low edge", models.SensorSoilHumidity, 30, models.StatusWarning},
		{"soil in low warning band", models.SensorSoilHumidity, 35, models.StatusWarning},
		{"soil at warning low edge", models.SensorSoilHumidity, 40, models.StatusNormal},
		{"soil interior", models.SensorSoilHumidity, 55, models.StatusNormal},
		{"soil at warning high edge", models.SensorSoilHumidity, 70, models.StatusNormal},
		{"soil in high warning band", models.SensorSoilHumidity, 75, models.StatusWarning},
		{"soil at critical high edge", models.SensorSoilHumidity, 80, models.StatusWarning},
		{"soil above critical", models.SensorSoilHumidity, 80.1, models.StatusCritical},

		// Temperature
		{"temperature freezing", models.SensorTemperature, -2, models.StatusCritical},
		{"temperature at 10", models.SensorTemperature, 10, models.StatusWarning},
		{"temperature cool", models.SensorTemperature, 12.5, models.StatusWarning},
		{"temperature at 15", models.SensorTemperature, 15, models.StatusNormal},
		{"temperature mild", models.SensorTemperature, 22, models.StatusNormal},
		{"temperature at 30", models.SensorTemperature, 30, models.StatusNormal},
		{"temperature hot", models.SensorTemperature, 33, models.StatusWarning},
		{"temperature at 35", models.SensorTemperature, 35, models.StatusWarning},
		{"temperature scorching", models.SensorTemperature, 41, models.StatusCritical},

		// pH
		{"ph very acidic", models.SensorPH, 4.2, models.StatusCritical},
		{"ph at 5", models.SensorPH, 5, models.StatusWarning},
		{"ph acidic", models.SensorPH, 5.2, models.StatusWarning},
		{"ph at 5.5", models.SensorPH, 5.5, models.StatusNormal},
		{"ph neutral", models.SensorPH, 6.5, models.StatusNormal},
		{"ph at 7.5", models.SensorPH, 7.5, models.StatusNormal},
		{"ph alkaline", models.SensorPH, 7.8, models.StatusWarning},
		{"ph at 8", models.SensorPH, 8, models.StatusWarning},
		{"ph very alkaline", models.SensorPH, 9.1, models.StatusCritical},

		// Types without thresholds
		{"air humidity low", models.SensorAirHumidity, 5, models.StatusNormal},
		{"air humidity high", models.SensorAirHumidity, 99, models.StatusNormal},
		{"light dark", models.SensorLight, 0, models.StatusNormal},
		{"light bright", models.SensorLight, 120000, models.StatusNormal},
		{"unknown type", models.SensorType("co2"), 5000, models.StatusNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.typ, tt.value))
		})
	}
}

func TestSeverityForHealth(t *testing.T) {
	tests := []struct {
		score    int
		expected models.AlertSeverity
	}{
		{0, models.SeverityHigh},
		{49, models.SeverityHigh},
		{50, models.SeverityMedium},
		{69, models.SeverityMedium},
		{70, models.SeverityLow},
		{100, models.SeverityLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SeverityForHealth(tt.score), "score %d", tt.score)
	}
}
