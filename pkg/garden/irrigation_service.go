package garden

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mallkisapan.io/garden/models"
	"mallkisapan.io/garden/utils"
)

const defaultManualMinutes = 15

// ZoneInput creates a zone. IsActive defaults to true.
type ZoneInput struct {
	Name     string          `json:"name" validate:"required"`
	IsActive *bool           `json:"isActive"`
	Boundary json.RawMessage `json:"boundary"`
}

// ZoneUpdate changes only the fields that are set. A JSON null boundary clears it.
type ZoneUpdate struct {
	Name     *string         `json:"name" validate:"omitempty,min=1"`
	IsActive *bool           `json:"isActive"`
	Boundary json.RawMessage `json:"boundary"`
}

// EventInput logs an irrigation event. EndedAt is derived from StartedAt and Duration.
type EventInput struct {
	Trigger     models.IrrigationTrigger `json:"trigger" validate:"required,oneof=scheduled ai_decision manual"`
	Duration    int                      `json:"duration" validate:"required,gt=0"`
	WaterVolume float64                  `json:"waterVolume" validate:"required,gt=0"`
	ZoneIDs     []uuid.UUID              `json:"zoneIds" validate:"required,min=1"`
	StartedAt   *models.JSONTime         `json:"startedAt"`
}

// EventUpdate changes only the fields that are set. A non-nil ZoneIDs replaces the zones.
type EventUpdate struct {
	Trigger     *models.IrrigationTrigger `json:"trigger" validate:"omitempty,oneof=scheduled ai_decision manual"`
	Duration    *int                      `json:"duration" validate:"omitempty,gt=0"`
	WaterVolume *float64                  `json:"waterVolume" validate:"omitempty,gt=0"`
	ZoneIDs     []uuid.UUID               `json:"zoneIds" validate:"omitempty,min=1"`
	StartedAt   *models.JSONTime          `json:"startedAt"`
	EndedAt     *models.JSONTime          `json:"endedAt"`
}

// StartInput starts a manual irrigation. Duration defaults to 15 minutes.
type StartInput struct {
	ZoneIDs  []uuid.UUID `json:"zoneIds" validate:"required,min=1"`
	Duration *int        `json:"duration" validate:"omitempty,gt=0"`
}

// EventView is an event with its zone names.
type EventView struct {
	models.IrrigationEvent
	Timestamp time.Time `json:"timestamp"`
	Zones     []string  `json:"zones"`
	Message   string    `json:"message,omitempty"`
}

func newEventView(e models.IrrigationEvent) EventView {
	return EventView{IrrigationEvent: e, Timestamp: e.StartedAt, Zones: e.ZoneNames()}
}

// IrrigationStats aggregates the events of a window of days.
type IrrigationStats struct {
	Days            int                              `json:"days"`
	TotalEvents     int                              `json:"totalEvents"`
	TotalWaterUsage float64                          `json:"totalWaterUsage"`
	TotalDuration   int                              `json:"totalDuration"`
	ByTrigger       map[models.IrrigationTrigger]int `json:"byTrigger"`
	AvgWaterPerDay  float64                          `json:"avgWaterPerDay"`
}

// IrrigationService manages zones and irrigation events.
type IrrigationService struct {
	db       *gorm.DB
	now      func() time.Time
	flowRate float64
	recorder Recorder
}

// NewIrrigationService creates a new irrigation service instance
func NewIrrigationService(db *gorm.DB, opts Options) *IrrigationService {
	opts = opts.withDefaults()
	return &IrrigationService{db: db, now: utcClock(opts.Now), flowRate: opts.FlowRate, recorder: opts.Recorder}
}

// ---- zones ----

func (s *IrrigationService) ListZones(ctx context.Context) ([]models.IrrigationZone, error) {
	zones := []models.IrrigationZone{}
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	return zones, nil
}

func (s *IrrigationService) GetZone(ctx context.Context, id uuid.UUID) (*models.IrrigationZone, error) {
	var zone models.IrrigationZone
	if err := s.db.WithContext(ctx).First(&zone, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "irrigation zone", id)
	}
	return &zone, nil
}

func (s *IrrigationService) CreateZone(ctx context.Context, in ZoneInput) (*models.IrrigationZone, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	zone := models.IrrigationZone{Name: in.Name, IsActive: true}
	if in.IsActive != nil {
		zone.IsActive = *in.IsActive
	}
	if err := applyBoundary(&zone, in.Boundary); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&zone).Error; err != nil {
		return nil, fmt.Errorf("create zone: %w", err)
	}
	return &zone, nil
}

func (s *IrrigationService) UpdateZone(ctx context.Context, id uuid.UUID, in ZoneUpdate) (*models.IrrigationZone, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var zone models.IrrigationZone
	if err := db.First(&zone, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "irrigation zone", id)
	}

	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.Boundary != nil {
		if err := applyBoundary(&zone, in.Boundary); err != nil {
			return nil, err
		}
		updates["boundary"] = zone.Boundary
		updates["area_m2"] = zone.AreaM2
	}
	if len(updates) > 0 {
		if err := db.Model(&zone).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update zone %s: %w", id, err)
		}
	}
	return s.GetZone(ctx, id)
}

// DeleteZone removes a zone and its event links. Events are kept.
func (s *IrrigationService) DeleteZone(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var zone models.IrrigationZone
		if err := tx.Select("id").First(&zone, "id = ?", id).Error; err != nil {
			return dbError(err, "irrigation zone", id)
		}
		if err := tx.Exec("DELETE FROM irrigation_event_zones WHERE zone_id = ?", id).Error; err != nil {
			return fmt.Errorf("unlink zone %s: %w", id, err)
		}
		if err := tx.Delete(&zone).Error; err != nil {
			return fmt.Errorf("delete zone %s: %w", id, err)
		}
		return nil
	})
}

// ImportZones creates one active zone per polygon in a KML or KMZ file, all or nothing.
func (s *IrrigationService) ImportZones(ctx context.Context, data []byte) ([]models.IrrigationZone, error) {
	shapes, err := utils.ParseZoneFile(data)
	if err != nil {
		return nil, InvalidField("file", err.Error())
	}

	zones := make([]models.IrrigationZone, 0, len(shapes))
	for _, shape := range shapes {
		raw, err := shape.Boundary()
		if err != nil {
			return nil, fmt.Errorf("encode boundary of %q: %w", shape.Name, err)
		}
		zone := models.IrrigationZone{Name: shape.Name, IsActive: true}
		if err := applyBoundary(&zone, raw); err != nil {
			return nil, err
		}
		zones = append(zones, zone)
	}
	if err := s.db.WithContext(ctx).Create(&zones).Error; err != nil {
		return nil, fmt.Errorf("import zones: %w", err)
	}
	return zones, nil
}

// applyBoundary validates a GeoJSON polygon and derives the zone's area.
// Empty input or JSON null clears the boundary.
func applyBoundary(zone *models.IrrigationZone, raw json.RawMessage) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		zone.Boundary = nil
		zone.AreaM2 = nil
		return nil
	}
	poly, err := utils.ParseBoundary(raw)
	if err != nil {
		return InvalidField("boundary", err.Error())
	}
	area := utils.Round(utils.AreaSquareMeters(poly), 1)
	zone.Boundary = datatypes.JSON(raw)
	zone.AreaM2 = &area
	return nil
}

// ---- events ----

// Events returns the events started in the last days, newest first.
func (s *IrrigationService) Events(ctx context.Context, days int) ([]EventView, error) {
	if err := checkWindow("days", days, MaxWindowDays); err != nil {
		return nil, err
	}
	since := s.now().AddDate(0, 0, -days)

	var events []models.IrrigationEvent
	err := s.db.WithContext(ctx).
		Preload("Zones").
		Where("started_at >= ?", since).
		Order("started_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list irrigation events: %w", err)
	}
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		out = append(out, newEventView(e))
	}
	return out, nil
}

func (s *IrrigationService) GetEvent(ctx context.Context, id uuid.UUID) (*EventView, error) {
	var event models.IrrigationEvent
	if err := s.db.WithContext(ctx).Preload("Zones").First(&event, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "irrigation event", id)
	}
	v := newEventView(event)
	return &v, nil
}

// CreateEvent logs a finished or running event over existing zones.
func (s *IrrigationService) CreateEvent(ctx context.Context, in EventInput) (*EventView, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	started := s.now()
	if in.StartedAt != nil {
		started = in.StartedAt.Time()
	}
	ended := started.Add(time.Duration(in.Duration) * time.Minute)

	event := models.IrrigationEvent{
		Trigger:     in.Trigger,
		Duration:    in.Duration,
		WaterVolume: in.WaterVolume,
		StartedAt:   started,
		EndedAt:     &ended,
	}
	if err := s.createEvent(ctx, &event, in.ZoneIDs); err != nil {
		return nil, err
	}
	v := newEventView(event)
	return &v, nil
}

func (s *IrrigationService) UpdateEvent(ctx context.Context, id uuid.UUID, in EventUpdate) (*EventView, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Trigger != nil {
		updates["trigger_type"] = *in.Trigger
	}
	if in.Duration != nil {
		updates["duration"] = *in.Duration
	}
	if in.WaterVolume != nil {
		updates["water_volume"] = *in.WaterVolume
	}
	if in.StartedAt != nil {
		updates["started_at"] = in.StartedAt.Time()
	}
	if in.EndedAt != nil {
		updates["ended_at"] = in.EndedAt.Time()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.IrrigationEvent
		if err := tx.First(&event, "id = ?", id).Error; err != nil {
			return dbError(err, "irrigation event", id)
		}
		if len(updates) > 0 {
			if err := tx.Model(&event).Updates(updates).Error; err != nil {
				return fmt.Errorf("update irrigation event %s: %w", id, err)
			}
		}
		if in.ZoneIDs != nil {
			zones, err := findZones(tx, in.ZoneIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(&event).Association("Zones").Replace(zones); err != nil {
				return fmt.Errorf("relink zones of event %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetEvent(ctx, id)
}

// DeleteEvent removes an event and its zone links.
func (s *IrrigationService) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.IrrigationEvent
		if err := tx.Select("id").First(&event, "id = ?", id).Error; err != nil {
			return dbError(err, "irrigation event", id)
		}
		if err := tx.Exec("DELETE FROM irrigation_event_zones WHERE event_id = ?", id).Error; err != nil {
			return fmt.Errorf("unlink event %s: %w", id, err)
		}
		if err := tx.Delete(&event).Error; err != nil {
			return fmt.Errorf("delete irrigation event %s: %w", id, err)
		}
		return nil
	})
}

// Start opens a manual event that stays active until Stop.
// The volume is duration x flow rate x number of zones.
func (s *IrrigationService) Start(ctx context.Context, in StartInput) (*EventView, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	minutes := defaultManualMinutes
	if in.Duration != nil {
		minutes = *in.Duration
	}
	zoneIDs := uniqueIDs(in.ZoneIDs)

	event := models.IrrigationEvent{
		Trigger:     models.TriggerManual,
		Duration:    minutes,
		WaterVolume: float64(minutes) * s.flowRate * float64(len(zoneIDs)),
		StartedAt:   s.now(),
	}
	if err := s.createEvent(ctx, &event, zoneIDs); err != nil {
		return nil, err
	}
	v := newEventView(event)
	v.Message = "Irrigation started in " + strings.Join(v.Zones, ", ")
	return &v, nil
}

// Stop ends the newest active event. An event is active while it has no end or ends in the future.
func (s *IrrigationService) Stop(ctx context.Context) (*EventView, error) {
	now := s.now()
	var event models.IrrigationEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("ended_at IS NULL OR ended_at > ?", now).
			Order("started_at DESC").
			Limit(1).
			Find(&event).Error
		if err != nil {
			return fmt.Errorf("find active irrigation: %w", err)
		}
		if event.ID == uuid.Nil {
			return Invalid("no active irrigation")
		}
		if err := tx.Model(&event).Update("ended_at", now).Error; err != nil {
			return fmt.Errorf("stop irrigation event %s: %w", event.ID, err)
		}
		return tx.Preload("Zones").First(&event, "id = ?", event.ID).Error
	})
	if err != nil {
		return nil, err
	}
	v := newEventView(event)
	v.Message = "Irrigation stopped"
	return &v, nil
}

// Stats aggregates the events started in the last days.
func (s *IrrigationService) Stats(ctx context.Context, days int) (*IrrigationStats, error) {
	if err := checkWindow("days", days, MaxWindowDays); err != nil {
		return nil, err
	}
	since := s.now().AddDate(0, 0, -days)

	var events []models.IrrigationEvent
	if err := s.db.WithContext(ctx).Where("started_at >= ?", since).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("irrigation stats: %w", err)
	}

	stats := &IrrigationStats{Days: days, TotalEvents: len(events), ByTrigger: map[models.IrrigationTrigger]int{}}
	for _, t := range models.IrrigationTriggers {
		stats.ByTrigger[t] = 0
	}
	for _, e := range events {
		stats.TotalWaterUsage += e.WaterVolume
		stats.TotalDuration += e.Duration
		stats.ByTrigger[e.Trigger]++
	}
	stats.AvgWaterPerDay = stats.TotalWaterUsage / float64(days)
	return stats, nil
}

func (s *IrrigationService) createEvent(ctx context.Context, event *models.IrrigationEvent, zoneIDs []uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		zones, err := findZones(tx, zoneIDs)
		if err != nil {
			return err
		}
		event.Zones = zones
		// Zones already exist; only the join rows are written.
		if err := tx.Omit("Zones.*").Create(event).Error; err != nil {
			return fmt.Errorf("create irrigation event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recorder.IrrigationLogged(event.Trigger, event.WaterVolume)
	return nil
}

// findZones loads zones by id in request order, failing for the first unknown one.
func findZones(tx *gorm.DB, ids []uuid.UUID) ([]models.IrrigationZone, error) {
	var zones []models.IrrigationZone
	if err := tx.Where("id IN ?", ids).Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("look up zones: %w", err)
	}
	byID := make(map[uuid.UUID]models.IrrigationZone, len(zones))
	for _, z := range zones {
		byID[z.ID] = z
	}
	out := make([]models.IrrigationZone, 0, len(ids))
	for _, id := range uniqueIDs(ids) {
		z, ok := byID[id]
		if !ok {
			return nil, notFound("irrigation zone", id)
		}
		out = append(out, z)
	}
	return out, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
