package garden

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mallkisapan.io/garden/models"
)

var testNow = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

// recorderSpy counts the domain events reported by the services.
type recorderSpy struct {
	readings int
	alerts   []models.AlertSeverity
	liters   float64
}

func (r *recorderSpy) ReadingRecorded(models.Sensor, float64) { r.readings++ }

func (r *recorderSpy) AlertCreated(s models.AlertSeverity) { r.alerts = append(r.alerts, s) }

func (r *recorderSpy) IrrigationLogged(_ models.IrrigationTrigger, liters float64) {
	r.liters += liters
}

func newTestServices(t *testing.T) (*Services, *gorm.DB, *recorderSpy) {
	t.Helper()
	db := newTestDB(t)
	spy := &recorderSpy{}
	svc := NewServices(db, Options{
		Now:      func() time.Time { return testNow },
		Recorder: spy,
	})
	return svc, db, spy
}

func ptr[T any](v T) *T { return &v }

func jsonTime(t time.Time) *models.JSONTime {
	jt := models.JSONTime(t)
	return &jt
}
