package garden

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mallkisapan.io/garden/models"
)

const (
	cropDetailReadings = 24
	cropDetailAlerts   = 10
	cropDetailPhotos   = 10
	defaultHealthScore = 100
)

// CropInput creates a crop. SensorIDs link existing sensors.
type CropInput struct {
	Name                string              `json:"name" validate:"required"`
	Variety             string              `json:"variety" validate:"required"`
	PlantedDate         *models.JSONTime    `json:"plantedDate" validate:"required"`
	ExpectedHarvestDate *models.JSONTime    `json:"expectedHarvestDate" validate:"required"`
	Location            string              `json:"location" validate:"required"`
	ImageURL            string              `json:"imageUrl"`
	Notes               *string             `json:"notes"`
	CurrentStage        *models.GrowthStage `json:"currentStage" validate:"omitempty,oneof=germination seedling vegetative flowering fruiting harvest"`
	HealthScore         *int                `json:"healthScore" validate:"omitempty,min=0,max=100"`
	SensorIDs           []uuid.UUID         `json:"sensorIds"`
}

// CropUpdate changes only the fields that are set. A non-nil SensorIDs replaces all links.
type CropUpdate struct {
	Name                *string             `json:"name" validate:"omitempty,min=1"`
	Variety             *string             `json:"variety" validate:"omitempty,min=1"`
	PlantedDate         *models.JSONTime    `json:"plantedDate"`
	ExpectedHarvestDate *models.JSONTime    `json:"expectedHarvestDate"`
	Location            *string             `json:"location" validate:"omitempty,min=1"`
	ImageURL            *string             `json:"imageUrl"`
	Notes               *string             `json:"notes"`
	CurrentStage        *models.GrowthStage `json:"currentStage" validate:"omitempty,oneof=germination seedling vegetative flowering fruiting harvest"`
	HealthScore         *int                `json:"healthScore" validate:"omitempty,min=0,max=100"`
	SensorIDs           []uuid.UUID         `json:"sensorIds"`
}

// CropSummary is a crop as listed, with counters.
type CropSummary struct {
	models.Crop
	ActiveAlerts int64 `json:"activeAlerts"`
	PhotoCount   int64 `json:"photoCount"`
}

// CropService manages crops and their sensor links.
type CropService struct {
	db *gorm.DB
}

// NewCropService creates a new crop service instance
func NewCropService(db *gorm.DB) *CropService {
	return &CropService{db: db}
}

type cropCount struct {
	CropID uuid.UUID
	N      int64
}

// List returns every crop, most recently planted first, with linked sensors,
// unread alert count and photo count.
func (s *CropService) List(ctx context.Context) ([]CropSummary, error) {
	db := s.db.WithContext(ctx)

	var crops []models.Crop
	if err := db.Preload("Sensors").Order("planted_date DESC").Find(&crops).Error; err != nil {
		return nil, fmt.Errorf("list crops: %w", err)
	}

	var alertCounts, photoCounts []cropCount
	err := db.Model(&models.Alert{}).
		Select("crop_id, COUNT(*) AS n").
		Where("is_read = ? AND crop_id IS NOT NULL", false).
		Group("crop_id").
		Scan(&alertCounts).Error
	if err != nil {
		return nil, fmt.Errorf("count crop alerts: %w", err)
	}
	err = db.Model(&models.Photo{}).
		Select("crop_id, COUNT(*) AS n").
		Group("crop_id").
		Scan(&photoCounts).Error
	if err != nil {
		return nil, fmt.Errorf("count crop photos: %w", err)
	}

	alerts := indexCounts(alertCounts)
	photos := indexCounts(photoCounts)
	out := make([]CropSummary, 0, len(crops))
	for _, c := range crops {
		out = append(out, CropSummary{Crop: c, ActiveAlerts: alerts[c.ID], PhotoCount: photos[c.ID]})
	}
	return out, nil
}

func indexCounts(rows []cropCount) map[uuid.UUID]int64 {
	m := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		m[r.CropID] = r.N
	}
	return m
}

// Get returns a crop with its sensors (and their latest readings), newest alerts and photos.
func (s *CropService) Get(ctx context.Context, id uuid.UUID) (*models.Crop, error) {
	db := s.db.WithContext(ctx)

	var crop models.Crop
	err := db.
		Preload("Sensors").
		Preload("Alerts", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at DESC").Limit(cropDetailAlerts)
		}).
		Preload("Photos", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("captured_at DESC").Limit(cropDetailPhotos)
		}).
		Preload("Photos.Analysis").
		First(&crop, "id = ?", id).Error
	if err != nil {
		return nil, dbError(err, "crop", id)
	}

	// Preload limits apply across all parents, so readings are fetched per sensor.
	for i := range crop.Sensors {
		readings := []models.SensorReading{}
		err := db.Where("sensor_id = ?", crop.Sensors[i].ID).
			Order("recorded_at DESC").
			Limit(cropDetailReadings).
			Find(&readings).Error
		if err != nil {
			return nil, fmt.Errorf("readings of sensor %s: %w", crop.Sensors[i].ID, err)
		}
		crop.Sensors[i].Readings = readings
	}
	return &crop, nil
}

func (s *CropService) Create(ctx context.Context, in CropInput) (*models.Crop, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	crop := models.Crop{
		Name:                in.Name,
		Variety:             in.Variety,
		PlantedDate:         in.PlantedDate.Time(),
		ExpectedHarvestDate: in.ExpectedHarvestDate.Time(),
		CurrentStage:        models.StageGermination,
		HealthScore:         defaultHealthScore,
		Location:            in.Location,
		ImageURL:            in.ImageURL,
		Notes:               in.Notes,
	}
	if in.CurrentStage != nil {
		crop.CurrentStage = *in.CurrentStage
	}
	if in.HealthScore != nil {
		crop.HealthScore = *in.HealthScore
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sensors, err := findSensors(tx, in.SensorIDs)
		if err != nil {
			return err
		}
		if err := tx.Create(&crop).Error; err != nil {
			return fmt.Errorf("create crop: %w", err)
		}
		if len(sensors) > 0 {
			if err := tx.Model(&crop).Association("Sensors").Append(sensors); err != nil {
				return fmt.Errorf("link sensors to crop %s: %w", crop.ID, err)
			}
		}
		crop.Sensors = sensors
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &crop, nil
}

// Update applies a partial update, replacing sensor links when SensorIDs is present.
func (s *CropService) Update(ctx context.Context, id uuid.UUID, in CropUpdate) (*models.Crop, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Variety != nil {
		updates["variety"] = *in.Variety
	}
	if in.PlantedDate != nil {
		updates["planted_date"] = in.PlantedDate.Time()
	}
	if in.ExpectedHarvestDate != nil {
		updates["expected_harvest_date"] = in.ExpectedHarvestDate.Time()
	}
	if in.Location != nil {
		updates["location"] = *in.Location
	}
	if in.ImageURL != nil {
		updates["image_url"] = *in.ImageURL
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.CurrentStage != nil {
		updates["current_stage"] = *in.CurrentStage
	}
	if in.HealthScore != nil {
		updates["health_score"] = *in.HealthScore
	}

	var crop models.Crop
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&crop, "id = ?", id).Error; err != nil {
			return dbError(err, "crop", id)
		}
		if len(updates) > 0 {
			if err := tx.Model(&crop).Updates(updates).Error; err != nil {
				return fmt.Errorf("update crop %s: %w", id, err)
			}
		}
		if in.SensorIDs != nil {
			sensors, err := findSensors(tx, in.SensorIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(&crop).Association("Sensors").Replace(sensors); err != nil {
				return fmt.Errorf("relink sensors of crop %s: %w", id, err)
			}
		}
		return tx.Preload("Sensors").First(&crop, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &crop, nil
}

// Delete removes a crop with its sensor links, photos and analyses. Alerts are detached,
// sensors are kept.
func (s *CropService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var crop models.Crop
		if err := tx.First(&crop, "id = ?", id).Error; err != nil {
			return dbError(err, "crop", id)
		}
		if err := tx.Model(&crop).Association("Sensors").Clear(); err != nil {
			return fmt.Errorf("unlink sensors of crop %s: %w", id, err)
		}
		photos := tx.Model(&models.Photo{}).Select("id").Where("crop_id = ?", id)
		if err := tx.Where("photo_id IN (?)", photos).Delete(&models.PhotoAnalysis{}).Error; err != nil {
			return fmt.Errorf("delete analyses of crop %s: %w", id, err)
		}
		if err := tx.Where("crop_id = ?", id).Delete(&models.Photo{}).Error; err != nil {
			return fmt.Errorf("delete photos of crop %s: %w", id, err)
		}
		if err := tx.Model(&models.Alert{}).Where("crop_id = ?", id).Update("crop_id", nil).Error; err != nil {
			return fmt.Errorf("detach alerts of crop %s: %w", id, err)
		}
		if err := tx.Delete(&crop).Error; err != nil {
			return fmt.Errorf("delete crop %s: %w", id, err)
		}
		return nil
	})
}

// findSensors loads sensors by id, failing with a NotFoundError for the first unknown one.
func findSensors(tx *gorm.DB, ids []uuid.UUID) ([]models.Sensor, error) {
	sensors := []models.Sensor{}
	if len(ids) == 0 {
		return sensors, nil
	}
	if err := tx.Where("id IN ?", ids).Find(&sensors).Error; err != nil {
		return nil, fmt.Errorf("look up sensors: %w", err)
	}
	found := make(map[uuid.UUID]bool, len(sensors))
	for _, s := range sensors {
		found[s.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, notFound("sensor", id)
		}
	}
	return sensors, nil
}
