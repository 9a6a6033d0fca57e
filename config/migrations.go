package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"mallkisapan.io/garden/models"
	"mallkisapan.io/garden/pkg/garden"
)

// Migrations brings the schema up to date. IDs are DDMMYYYY_description and must never change.
func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "02062025_create_garden_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(garden.Models()...)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					"irrigation_event_zones", "crop_sensors",
					&models.IrrigationEvent{}, &models.IrrigationZone{},
					&models.PhotoAnalysis{}, &models.Photo{}, &models.Alert{},
					&models.Crop{}, &models.SensorReading{}, &models.Sensor{},
				)
			},
		},
		{
			ID: "24062025_add_zone_boundaries",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.IrrigationZone{})
			},
			Rollback: func(tx *gorm.DB) error {
				if err := tx.Migrator().DropColumn(&models.IrrigationZone{}, "area_m2"); err != nil {
					return err
				}
				return tx.Migrator().DropColumn(&models.IrrigationZone{}, "boundary")
			},
		},
	})

	return m.Migrate()
}
