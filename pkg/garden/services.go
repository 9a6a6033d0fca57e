// Package garden implements the smart-garden domain: sensors and their readings, crops,
// alerts, photo analyses, irrigation and the dashboard aggregates over them.
package garden

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mallkisapan.io/garden/models"
)

// DefaultFlowRate is the liters per minute per zone assumed for manual irrigation.
const DefaultFlowRate = 3.0

// Upper bounds of the look-back windows accepted by the queries.
const (
	MaxWindowHours = 24 * 366
	MaxWindowDays  = 366
)

// Recorder receives domain events for metrics. A nil Recorder is replaced by a no-op.
type Recorder interface {
	ReadingRecorded(sensor models.Sensor, value float64)
	AlertCreated(severity models.AlertSeverity)
	IrrigationLogged(trigger models.IrrigationTrigger, liters float64)
}

type nopRecorder struct{}

func (nopRecorder) ReadingRecorded(models.Sensor, float64)             {}
func (nopRecorder) AlertCreated(models.AlertSeverity)                  {}
func (nopRecorder) IrrigationLogged(models.IrrigationTrigger, float64) {}

// Options tunes the services. Zero values select defaults.
type Options struct {
	Now      func() time.Time
	FlowRate float64
	Recorder Recorder
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.FlowRate <= 0 {
		o.FlowRate = DefaultFlowRate
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	return o
}

// utcClock reports now in UTC. Every persisted timestamp goes through it.
func utcClock(now func() time.Time) func() time.Time {
	return func() time.Time { return now().UTC() }
}

// checkWindow validates a look-back window of 1..max units.
func checkWindow(field string, n, max int) error {
	if n <= 0 {
		return InvalidField(field, "must be greater than 0")
	}
	if n > max {
		return InvalidField(field, fmt.Sprintf("must be at most %d", max))
	}
	return nil
}

// Services bundles every domain service over one database handle.
type Services struct {
	Sensors    *SensorService
	Crops      *CropService
	Alerts     *AlertService
	Photos     *PhotoService
	Irrigation *IrrigationService
	Dashboard  *DashboardService
}

// NewServices wires all services to db.
func NewServices(db *gorm.DB, opts Options) *Services {
	opts = opts.withDefaults()
	return &Services{
		Sensors:    NewSensorService(db, opts),
		Crops:      NewCropService(db),
		Alerts:     NewAlertService(db, opts),
		Photos:     NewPhotoService(db, opts),
		Irrigation: NewIrrigationService(db, opts),
		Dashboard:  NewDashboardService(db, opts),
	}
}

// Models lists every persisted type, in dependency order, for migrations and tests.
func Models() []any {
	return []any{
		&models.Sensor{}, &models.SensorReading{},
		&models.Crop{}, &models.Alert{},
		&models.Photo{}, &models.PhotoAnalysis{},
		&models.IrrigationZone{}, &models.IrrigationEvent{},
	}
}

// dbError wraps a database failure, translating a missing row into a NotFoundError.
func dbError(err error, resource string, id fmt.Stringer) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(resource, id)
	}
	return fmt.Errorf("%s %s: %w", resource, id.String(), err)
}
