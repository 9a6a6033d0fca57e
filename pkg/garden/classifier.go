package garden

import "mallkisapan.io/garden/models"

// threshold bounds a healthy range. Values outside warnLow..warnHigh warn, values outside
// critLow..critHigh are critical. All comparisons are strict.
type threshold struct {
	critLow, warnLow, warnHigh, critHigh float64
}

var thresholds = map[models.SensorType]threshold{
	models.SensorSoilHumidity: {critLow: 30, warnLow: 40, warnHigh: 70, critHigh: 80},
	models.SensorTemperature:  {critLow: 10, warnLow: 15, warnHigh: 30, critHigh: 35},
	models.SensorPH:           {critLow: 5, warnLow: 5.5, warnHigh: 7.5, critHigh: 8},
}

// Classify maps a reading to a sensor status. Types without thresholds are always normal.
func Classify(t models.SensorType, value float64) models.SensorStatus {
	th, ok := thresholds[t]
	if !ok {
		return models.StatusNormal
	}
	switch {
	case value < th.critLow || value > th.critHigh:
		return models.StatusCritical
	case value < th.warnLow || value > th.warnHigh:
		return models.StatusWarning
	default:
		return models.StatusNormal
	}
}

// SeverityForHealth derives the severity of alerts raised from a photo analysis.
func SeverityForHealth(healthScore int) models.AlertSeverity {
	switch {
	case healthScore < 50:
		return models.SeverityHigh
	case healthScore < 70:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
