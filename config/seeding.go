package config

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mallkisapan.io/garden/models"
	"mallkisapan.io/garden/pkg/garden"
)

// seedHours is how much reading history each demo sensor gets.
const seedHours = 48

// RunAllSeeding replaces every garden table's content with the demo data set.
// Dates are relative to now so the dashboards show recent activity.
func RunAllSeeding(db *gorm.DB, now time.Time, log *zap.Logger) error {
	log.Info("=== Starting Database Seeding ===")

	err := db.Transaction(func(tx *gorm.DB) error {
		log.Info("[1/7] Clearing existing data")
		if err := clearGarden(tx); err != nil {
			return err
		}

		log.Info("[2/7] Seeding irrigation zones")
		zoneA := models.IrrigationZone{Name: "Zone A", IsActive: true}
		zoneB := models.IrrigationZone{Name: "Zone B", IsActive: true}
		if err := tx.Create([]*models.IrrigationZone{&zoneA, &zoneB}).Error; err != nil {
			return fmt.Errorf("seed zones: %w", err)
		}

		log.Info("[3/7] Seeding sensors and readings")
		sensors, err := seedSensors(tx, now)
		if err != nil {
			return err
		}

		log.Info("[4/7] Seeding crops")
		crops, err := seedCrops(tx, now, sensors)
		if err != nil {
			return err
		}

		log.Info("[5/7] Seeding alerts")
		if err := seedAlerts(tx, crops); err != nil {
			return err
		}

		log.Info("[6/7] Seeding photos and analyses")
		if err := seedPhotos(tx, now, crops); err != nil {
			return err
		}

		log.Info("[7/7] Seeding irrigation history")
		return seedIrrigation(tx, now, zoneA, zoneB)
	})
	if err != nil {
		return err
	}

	log.Info("=== Database Seeding Complete ===")
	return nil
}

func clearGarden(tx *gorm.DB) error {
	for _, table := range []string{"irrigation_event_zones", "crop_sensors"} {
		if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	// Children before parents.
	all := garden.Models()
	for i := len(all) - 1; i >= 0; i-- {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", all[i], err)
		}
	}
	return nil
}

type seedSensor struct {
	name  string
	typ   models.SensorType
	unit  string
	value float64
}

// sensor indexes into the seeded slice.
const (
	soilA = iota
	soilB
	airTemp
	airHumidity
	light
	phA
)

func seedSensors(tx *gorm.DB, now time.Time) ([]models.Sensor, error) {
	defs := []seedSensor{
		{"Soil humidity - Zone A", models.SensorSoilHumidity, "%", 65},
		{"Soil humidity - Zone B", models.SensorSoilHumidity, "%", 42},
		{"Air temperature", models.SensorTemperature, "°C", 24.5},
		{"Air humidity", models.SensorAirHumidity, "%", 58},
		{"Light", models.SensorLight, "lux", 850},
		{"Soil pH - Zone A", models.SensorPH, "pH", 6.8},
	}

	rng := rand.New(rand.NewPCG(42, 7))
	sensors := make([]models.Sensor, 0, len(defs))
	for _, def := range defs {
		value := def.value
		sensor := models.Sensor{
			Name:       def.name,
			Type:       def.typ,
			Unit:       def.unit,
			LastValue:  &value,
			LastUpdate: &now,
			Status:     garden.Classify(def.typ, value),
		}
		if err := tx.Create(&sensor).Error; err != nil {
			return nil, fmt.Errorf("seed sensor %s: %w", def.name, err)
		}

		readings := make([]models.SensorReading, 0, seedHours+1)
		for i := seedHours; i >= 0; i-- {
			readings = append(readings, models.SensorReading{
				SensorID:  sensor.ID,
				Value:     math.Round(syntheticValue(def.typ, i, rng)*10) / 10,
				Timestamp: now.Add(-time.Duration(i) * time.Hour),
			})
		}
		if err := tx.CreateInBatches(readings, 100).Error; err != nil {
			return nil, fmt.Errorf("seed readings for %s: %w", def.name, err)
		}
		sensors = append(sensors, sensor)
	}
	return sensors, nil
}

// syntheticValue draws a plausible reading hoursAgo hours back, with a daily cycle.
func syntheticValue(t models.SensorType, hoursAgo int, rng *rand.Rand) float64 {
	h := float64(hoursAgo)
	switch t {
	case models.SensorSoilHumidity:
		return 55 + math.Sin(h/4)*15 + rng.Float64()*5
	case models.SensorTemperature:
		return 20 + math.Sin((h-6)/4)*8 + rng.Float64()*2
	case models.SensorAirHumidity:
		return 50 + math.Cos(h/6)*15 + rng.Float64()*5
	case models.SensorLight:
		hour := hoursAgo % 24
		if hour >= 6 && hour <= 20 {
			return 400 + math.Sin(float64(hour-6)/4.5)*500 + rng.Float64()*100
		}
		return rng.Float64() * 50
	case models.SensorPH:
		return 6.5 + rng.Float64()*0.6
	default:
		return 50
	}
}

func seedCrops(tx *gorm.DB, now time.Time, sensors []models.Sensor) ([]models.Crop, error) {
	day := func(offset int) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	}
	pick := func(idx ...int) []models.Sensor {
		out := make([]models.Sensor, 0, len(idx))
		for _, i := range idx {
			out = append(out, sensors[i])
		}
		return out
	}

	crops := []models.Crop{
		{Name: "Cherry tomatoes", Variety: "Sweet Million", PlantedDate: day(-60), ExpectedHarvestDate: day(30),
			CurrentStage: models.StageFruiting, HealthScore: 92, Location: "Zone A - Row 1", ImageURL: "/crops/tomato.jpg",
			Sensors: pick(soilA, airTemp, phA)},
		{Name: "Lettuce", Variety: "Butterhead", PlantedDate: day(-25), ExpectedHarvestDate: day(17),
			CurrentStage: models.StageVegetative, HealthScore: 88, Location: "Zone A - Row 2", ImageURL: "/crops/lettuce.jpg",
			Sensors: pick(soilA, airHumidity)},
		{Name: "Peppers", Variety: "California Wonder", PlantedDate: day(-74), ExpectedHarvestDate: day(35),
			CurrentStage: models.StageFlowering, HealthScore: 75, Location: "Zone B - Row 1", ImageURL: "/crops/pepper.jpg",
			Sensors: pick(soilB, airTemp)},
		{Name: "Basil", Variety: "Genovese", PlantedDate: day(-44), ExpectedHarvestDate: day(15),
			CurrentStage: models.StageVegetative, HealthScore: 95, Location: "Zone A - Row 3", ImageURL: "/crops/basil.jpg",
			Sensors: pick(soilA, light)},
		{Name: "Carrots", Variety: "Nantes", PlantedDate: day(-91), ExpectedHarvestDate: day(10),
			CurrentStage: models.StageHarvest, HealthScore: 90, Location: "Zone B - Row 2", ImageURL: "/crops/carrot.jpg",
			Sensors: pick(soilB, phA)},
		{Name: "Spinach", Variety: "Bloomsdale", PlantedDate: day(-35), ExpectedHarvestDate: day(25),
			CurrentStage: models.StageSeedling, HealthScore: 82, Location: "Zone A - Row 4", ImageURL: "/crops/spinach.jpg",
			Sensors: pick(soilA, airHumidity)},
	}
	for i := range crops {
		// Sensors exist already; only the join rows are written.
		if err := tx.Omit("Sensors.*").Create(&crops[i]).Error; err != nil {
			return nil, fmt.Errorf("seed crop %s: %w", crops[i].Name, err)
		}
	}
	return crops, nil
}

// crop indexes into the seeded slice.
const (
	tomatoes = iota
	lettuce
	peppers
	basil
	carrots
	spinach
)

type seedAlert struct {
	typ      models.AlertType
	severity models.AlertSeverity
	crop     int
	read     bool
	title    string
	message  string
	advice   string
}

func seedAlerts(tx *gorm.DB, crops []models.Crop) error {
	defs := []seedAlert{
		{models.AlertIrrigation, models.SeverityMedium, peppers, false,
			"Low humidity in Zone B",
			"Soil humidity in Zone B dropped to 42%. Irrigation is recommended.",
			"Schedule a 15 minute irrigation within the next 2 hours. Consider watering more often given the forecast heat."},
		{models.AlertPest, models.SeverityHigh, tomatoes, false,
			"Possible aphids",
			"Image analysis detected possible aphids on the cherry tomato leaves.",
			"Inspect the plants by hand. If confirmed, apply potassium soap or neem oil. Consider ladybirds as biological control."},
		{models.AlertGrowth, models.SeverityLow, spinach, true,
			"Slow growth detected",
			"The spinach is growing more slowly than expected for this stage.",
			"Check soil nitrogen levels. Consider an organic nitrogen-rich fertiliser."},
		{models.AlertEnvironmental, models.SeverityLow, lettuce, true,
			"Optimal temperature exceeded",
			"Temperature reached 28°C at 14:00. Lettuce prefers cooler conditions.",
			"Consider shade cloth over the lettuce during peak sun hours."},
		{models.AlertNutrition, models.SeverityMedium, peppers, true,
			"Nutrient deficiency detected",
			"Pepper leaves show chlorosis, a possible iron deficiency.",
			"Apply iron chelate to the soil or as a foliar feed. Check soil pH, which may be blocking uptake."},
	}

	for _, def := range defs {
		cropID := crops[def.crop].ID
		advice := def.advice
		alert := models.Alert{
			Type:             def.typ,
			Severity:         def.severity,
			Title:            def.title,
			Message:          def.message,
			CropID:           &cropID,
			IsRead:           def.read,
			AIRecommendation: &advice,
		}
		if err := tx.Create(&alert).Error; err != nil {
			return fmt.Errorf("seed alert %q: %w", def.title, err)
		}
	}
	return nil
}

type seedPhoto struct {
	crop            int
	file            string
	hoursAgo        int
	healthScore     int
	stage           string
	issues          []string
	recommendations []string
}

func seedPhotos(tx *gorm.DB, now time.Time, crops []models.Crop) error {
	defs := []seedPhoto{
		{tomatoes, "tomato-1", 6, 85, "Early fruiting",
			[]string{"Possible aphids on lower leaves", "Slight yellowing of basal leaves"},
			[]string{"Inspect for aphids", "Prune yellow basal leaves", "Keep watering steady"}},
		{lettuce, "lettuce-1", 6, 92, "Head forming",
			[]string{},
			[]string{"Keep the current routine", "Harvest in 2-3 weeks"}},
		{peppers, "pepper-1", 6, 72, "Flowering",
			[]string{"Interveinal chlorosis on middle leaves", "Mild water stress"},
			[]string{"Water more often", "Apply iron chelate", "Check progress in 48h"}},
		{basil, "basil-1", 30, 96, "Healthy vegetative growth",
			[]string{},
			[]string{"Pinch tips to promote branching", "Ready for a first partial harvest"}},
		{carrots, "carrot-1", 30, 90, "Mature, ready for harvest",
			[]string{},
			[]string{"Harvest within 7-10 days", "Foliage suggests good root size"}},
		{spinach, "spinach-1", 30, 78, "Late seedling",
			[]string{"Slower growth than expected"},
			[]string{"Check soil nutrients", "Consider nitrogen fertilisation"}},
	}

	for _, def := range defs {
		captured := now.Add(-time.Duration(def.hoursAgo) * time.Hour)
		photo := models.Photo{
			URL:          "/photos/" + def.file + ".jpg",
			ThumbnailURL: "/photos/thumb-" + def.file + ".jpg",
			CropID:       crops[def.crop].ID,
			CapturedAt:   captured,
			Analysis: &models.PhotoAnalysis{
				HealthScore:     def.healthScore,
				GrowthStage:     def.stage,
				Issues:          datatypes.JSONSlice[string](def.issues),
				Recommendations: datatypes.JSONSlice[string](def.recommendations),
				AnalyzedAt:      captured.Add(5 * time.Minute),
			},
		}
		if err := tx.Create(&photo).Error; err != nil {
			return fmt.Errorf("seed photo %s: %w", def.file, err)
		}
	}
	return nil
}

func seedIrrigation(tx *gorm.DB, now time.Time, zoneA, zoneB models.IrrigationZone) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	events := []struct {
		trigger models.IrrigationTrigger
		start   time.Time
		minutes int
		liters  float64
		zones   []models.IrrigationZone
	}{
		{models.TriggerScheduled, today.Add(6 * time.Hour), 20, 45, []models.IrrigationZone{zoneA}},
		{models.TriggerAIDecision, today.Add(7*time.Hour + 30*time.Minute), 15, 30, []models.IrrigationZone{zoneB}},
		{models.TriggerScheduled, today.Add(-6 * time.Hour), 25, 55, []models.IrrigationZone{zoneA, zoneB}},
		{models.TriggerScheduled, today.Add(-18 * time.Hour), 20, 45, []models.IrrigationZone{zoneA}},
		{models.TriggerManual, today.Add(-33 * time.Hour), 10, 25, []models.IrrigationZone{zoneB}},
	}

	for _, e := range events {
		ended := e.start.Add(time.Duration(e.minutes) * time.Minute)
		event := models.IrrigationEvent{
			Trigger:     e.trigger,
			Duration:    e.minutes,
			WaterVolume: e.liters,
			StartedAt:   e.start,
			EndedAt:     &ended,
			Zones:       e.zones,
		}
		if err := tx.Omit("Zones.*").Create(&event).Error; err != nil {
			return fmt.Errorf("seed irrigation event: %w", err)
		}
	}
	return nil
}
