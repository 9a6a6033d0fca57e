package garden

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mallkisapan.io/garden/models"
)

// severityRank orders alerts critical first when sorted descending.
const severityRank = `CASE alerts.severity
	WHEN 'critical' THEN 4
	WHEN 'high' THEN 3
	WHEN 'medium' THEN 2
	WHEN 'low' THEN 1
	ELSE 0 END`

// AlertInput creates an alert.
type AlertInput struct {
	Type             models.AlertType     `json:"type" validate:"required,oneof=pest disease irrigation nutrition environmental growth"`
	Severity         models.AlertSeverity `json:"severity" validate:"required,oneof=low medium high critical"`
	Title            string               `json:"title" validate:"required"`
	Message          string               `json:"message" validate:"required"`
	CropID           *uuid.UUID           `json:"cropId"`
	AIRecommendation *string              `json:"aiRecommendation"`
}

// AlertFilter narrows the alert list. Empty fields match everything.
type AlertFilter struct {
	Severity   models.AlertSeverity `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Type       models.AlertType     `json:"type" validate:"omitempty,oneof=pest disease irrigation nutrition environmental growth"`
	UnreadOnly bool                 `json:"unreadOnly"`
}

// AlertView is an alert with the name of its crop.
type AlertView struct {
	models.Alert
	CropName  *string   `json:"cropName,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func newAlertView(a models.Alert) AlertView {
	v := AlertView{Alert: a, Timestamp: a.CreatedAt}
	if a.Crop != nil {
		name := a.Crop.Name
		v.CropName = &name
	}
	return v
}

// AlertService manages alerts.
type AlertService struct {
	db       *gorm.DB
	recorder Recorder
}

// NewAlertService creates a new alert service instance
func NewAlertService(db *gorm.DB, opts Options) *AlertService {
	opts = opts.withDefaults()
	return &AlertService{db: db, recorder: opts.Recorder}
}

// List returns alerts unread first, then by severity, newest first.
func (s *AlertService) List(ctx context.Context, f AlertFilter) ([]AlertView, error) {
	if err := Validate(f); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Model(&models.Alert{}).Preload("Crop", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name")
	})
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var alerts []models.Alert
	err := q.Order("is_read ASC").
		Order(severityRank + " DESC").
		Order("created_at DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	out := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, newAlertView(a))
	}
	return out, nil
}

func (s *AlertService) Get(ctx context.Context, id uuid.UUID) (*AlertView, error) {
	var alert models.Alert
	if err := s.db.WithContext(ctx).Preload("Crop").First(&alert, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "alert", id)
	}
	v := newAlertView(alert)
	return &v, nil
}

// Create stores an alert. A referenced crop must exist.
func (s *AlertService) Create(ctx context.Context, in AlertInput) (*AlertView, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	alert := models.Alert{
		Type:             in.Type,
		Severity:         in.Severity,
		Title:            in.Title,
		Message:          in.Message,
		CropID:           in.CropID,
		AIRecommendation: in.AIRecommendation,
	}
	db := s.db.WithContext(ctx)
	if in.CropID != nil {
		var crop models.Crop
		if err := db.Select("id", "name").First(&crop, "id = ?", *in.CropID).Error; err != nil {
			return nil, dbError(err, "crop", *in.CropID)
		}
		alert.Crop = &crop
	}

	if err := db.Omit("Crop").Create(&alert).Error; err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	s.recorder.AlertCreated(alert.Severity)

	v := newAlertView(alert)
	return &v, nil
}

// MarkRead sets the read flag of one alert.
func (s *AlertService) MarkRead(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	db := s.db.WithContext(ctx)
	var alert models.Alert
	if err := db.First(&alert, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "alert", id)
	}
	if err := db.Model(&alert).Update("is_read", true).Error; err != nil {
		return nil, fmt.Errorf("mark alert %s read: %w", id, err)
	}
	alert.IsRead = true
	return &alert, nil
}

// MarkAllRead marks every unread alert as read and returns how many changed.
func (s *AlertService) MarkAllRead(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Alert{}).
		Where("is_read = ?", false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark all alerts read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *AlertService) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Alert{})
	if res.Error != nil {
		return fmt.Errorf("delete alert %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("alert", id)
	}
	return nil
}

func countUnreadAlerts(db *gorm.DB) (int64, error) {
	var n int64
	if err := db.Model(&models.Alert{}).Where("is_read = ?", false).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count unread alerts: %w", err)
	}
	return n, nil
}
