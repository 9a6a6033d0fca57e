package garden

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mallkisapan.io/garden/models"
)

// PhotoInput registers a photo of a crop. CapturedAt defaults to now.
type PhotoInput struct {
	URL          string           `json:"url" validate:"required,uri"`
	ThumbnailURL string           `json:"thumbnailUrl" validate:"omitempty,uri"`
	CropID       *uuid.UUID       `json:"cropId" validate:"required"`
	CapturedAt   *models.JSONTime `json:"capturedAt"`
}

// PhotoUpdate changes only the fields that are set.
type PhotoUpdate struct {
	URL          *string          `json:"url" validate:"omitempty,uri"`
	ThumbnailURL *string          `json:"thumbnailUrl" validate:"omitempty,uri"`
	CropID       *uuid.UUID       `json:"cropId"`
	CapturedAt   *models.JSONTime `json:"capturedAt"`
}

// AnalysisInput is the result of an image analysis.
type AnalysisInput struct {
	HealthScore     *int     `json:"healthScore" validate:"required,min=0,max=100"`
	GrowthStage     string   `json:"growthStage" validate:"required"`
	Issues          []string `json:"issues" validate:"dive,required"`
	Recommendations []string `json:"recommendations" validate:"dive,required"`
}

// PhotoView is a photo with its crop name and analysis.
type PhotoView struct {
	models.Photo
	CropName string `json:"cropName"`
}

func newPhotoView(p models.Photo) PhotoView {
	v := PhotoView{Photo: p}
	if p.Crop != nil {
		v.CropName = p.Crop.Name
	}
	return v
}

// AnalysisResult is a stored analysis and the alerts its issues raised.
type AnalysisResult struct {
	Analysis models.PhotoAnalysis `json:"analysis"`
	Alerts   []models.Alert       `json:"alerts"`
}

// PhotoService manages photos and their analyses.
type PhotoService struct {
	db       *gorm.DB
	now      func() time.Time
	recorder Recorder
}

// NewPhotoService creates a new photo service instance
func NewPhotoService(db *gorm.DB, opts Options) *PhotoService {
	opts = opts.withDefaults()
	return &PhotoService{db: db, now: utcClock(opts.Now), recorder: opts.Recorder}
}

func (s *PhotoService) withCrop(db *gorm.DB) *gorm.DB {
	return db.Preload("Crop", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name")
	}).Preload("Analysis")
}

// List returns photos newest first, optionally for one crop.
func (s *PhotoService) List(ctx context.Context, cropID *uuid.UUID) ([]PhotoView, error) {
	q := s.withCrop(s.db.WithContext(ctx))
	if cropID != nil {
		q = q.Where("crop_id = ?", *cropID)
	}
	var photos []models.Photo
	if err := q.Order("captured_at DESC").Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	out := make([]PhotoView, 0, len(photos))
	for _, p := range photos {
		out = append(out, newPhotoView(p))
	}
	return out, nil
}

func (s *PhotoService) Get(ctx context.Context, id uuid.UUID) (*PhotoView, error) {
	var photo models.Photo
	if err := s.withCrop(s.db.WithContext(ctx)).First(&photo, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "photo", id)
	}
	v := newPhotoView(photo)
	return &v, nil
}

func (s *PhotoService) Create(ctx context.Context, in PhotoInput) (*PhotoView, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var crop models.Crop
	if err := db.Select("id", "name").First(&crop, "id = ?", *in.CropID).Error; err != nil {
		return nil, dbError(err, "crop", *in.CropID)
	}

	photo := models.Photo{
		URL:          in.URL,
		ThumbnailURL: in.ThumbnailURL,
		CropID:       crop.ID,
		CapturedAt:   s.now(),
	}
	if in.CapturedAt != nil {
		photo.CapturedAt = in.CapturedAt.Time()
	}
	if err := db.Create(&photo).Error; err != nil {
		return nil, fmt.Errorf("create photo: %w", err)
	}
	photo.Crop = &crop
	v := newPhotoView(photo)
	return &v, nil
}

func (s *PhotoService) Update(ctx context.Context, id uuid.UUID, in PhotoUpdate) (*PhotoView, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var photo models.Photo
	if err := db.First(&photo, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "photo", id)
	}

	updates := map[string]any{}
	if in.URL != nil {
		updates["url"] = *in.URL
	}
	if in.ThumbnailURL != nil {
		updates["thumbnail_url"] = *in.ThumbnailURL
	}
	if in.CapturedAt != nil {
		updates["captured_at"] = in.CapturedAt.Time()
	}
	if in.CropID != nil {
		var n int64
		if err := db.Model(&models.Crop{}).Where("id = ?", *in.CropID).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("look up crop %s: %w", *in.CropID, err)
		}
		if n == 0 {
			return nil, notFound("crop", *in.CropID)
		}
		updates["crop_id"] = *in.CropID
	}
	if len(updates) > 0 {
		if err := db.Model(&photo).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update photo %s: %w", id, err)
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a photo and its analysis.
func (s *PhotoService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var photo models.Photo
		if err := tx.Select("id").First(&photo, "id = ?", id).Error; err != nil {
			return dbError(err, "photo", id)
		}
		if err := tx.Where("photo_id = ?", id).Delete(&models.PhotoAnalysis{}).Error; err != nil {
			return fmt.Errorf("delete analysis of photo %s: %w", id, err)
		}
		if err := tx.Delete(&photo).Error; err != nil {
			return fmt.Errorf("delete photo %s: %w", id, err)
		}
		return nil
	})
}

// Analyze stores or replaces the analysis of a photo. Each issue raises one growth
// alert on the photo's crop, with severity following the health score.
func (s *PhotoService) Analyze(ctx context.Context, id uuid.UUID, in AnalysisInput) (*AnalysisResult, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	issues := in.Issues
	if issues == nil {
		issues = []string{}
	}
	recommendations := in.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}
	score := *in.HealthScore
	result := &AnalysisResult{Alerts: []models.Alert{}}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var photo models.Photo
		if err := tx.Preload("Crop").Preload("Analysis").First(&photo, "id = ?", id).Error; err != nil {
			return dbError(err, "photo", id)
		}

		analysis := models.PhotoAnalysis{PhotoID: photo.ID}
		if photo.Analysis != nil {
			analysis = *photo.Analysis
		}
		analysis.HealthScore = score
		analysis.GrowthStage = in.GrowthStage
		analysis.Issues = issues
		analysis.Recommendations = recommendations
		analysis.AnalyzedAt = s.now()
		if err := tx.Save(&analysis).Error; err != nil {
			return fmt.Errorf("save analysis of photo %s: %w", id, err)
		}
		result.Analysis = analysis

		if len(issues) == 0 {
			return nil
		}
		cropName := ""
		if photo.Crop != nil {
			cropName = photo.Crop.Name
		}
		recommendation := strings.Join(recommendations, ". ")
		severity := SeverityForHealth(score)
		cropID := photo.CropID
		for _, issue := range issues {
			alert := models.Alert{
				Type:             models.AlertGrowth,
				Severity:         severity,
				Title:            "Issue detected on " + cropName,
				Message:          issue,
				CropID:           &cropID,
				AIRecommendation: &recommendation,
			}
			if err := tx.Create(&alert).Error; err != nil {
				return fmt.Errorf("create alert for photo %s: %w", id, err)
			}
			result.Alerts = append(result.Alerts, alert)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, a := range result.Alerts {
		s.recorder.AlertCreated(a.Severity)
	}
	return result, nil
}
