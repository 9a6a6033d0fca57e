package handlers

import (
	"io"
	"net/http"

	"mallkisapan.io/garden/pkg/garden"
)

// @Summary List irrigation zones
// @Tags irrigation
// @Produce json
// @Success 200 {array} models.IrrigationZone
// @Failure 500 {object} ErrorResponse
// @Router /api/irrigation/zones [get]
func (h *Handler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.svc.Irrigation.ListZones(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, zones)
}

// @Summary Get an irrigation zone
// @Tags irrigation
// @Produce json
// @Param id path string true "Zone ID"
// @Success 200 {object} models.IrrigationZone
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/irrigation/zones/{id} [get]
func (h *Handler) GetZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	zone, err := h.svc.Irrigation.GetZone(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, zone)
}

// CreateZone creates an irrigation zone. An optional GeoJSON polygon boundary
// sets the zone's area.
// @Summary Create an irrigation zone
// @Tags irrigation
// @Accept json
// @Produce json
// @Param zone body garden.ZoneInput true "Zone"
// @Success 201 {object} models.IrrigationZone
// @Failure 400 {object} ErrorResponse
// @Router /api/irrigation/zones [post]
func (h *Handler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var in garden.ZoneInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	zone, err := h.svc.Irrigation.CreateZone(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, zone)
}

// @Summary Update an irrigation zone
// @Tags irrigation
// @Accept json
// @Produce json
// @Param id path string true "Zone ID"
// @Param zone body garden.ZoneUpdate true "Fields to change"
// @Success 200 {object} models.IrrigationZone
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/irrigation/zones/{id} [put]
func (h *Handler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in garden.ZoneUpdate
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	zone, err := h.svc.Irrigation.UpdateZone(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, zone)
}

// @Summary Delete an irrigation zone
// @Tags irrigation
// @Produce json
// @Param id path string true "Zone ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/irrigation/zones/{id} [delete]
func (h *Handler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Irrigation.DeleteZone(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportZones creates zones from the polygons of an uploaded KML or KMZ "file".
// @Summary Import zones from KML or KMZ
// @Tags irrigation
// @Accept mpfd
// @Produce json
// @Param file formData file true "KML or KMZ file"
// @Success 201 {array} models.IrrigationZone
// @Failure 400 {object} ErrorResponse
// @Router /api/irrigation/zones/import [post]
func (h *Handler) ImportZones(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.fail(w, r, garden.InvalidField("file", "bad multipart form: "+err.Error()))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, garden.InvalidField("file", "is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, r, garden.InvalidField("file", "could not be read"))
		return
	}
	zones, err := h.svc.Irrigation.ImportZones(r.Context(), data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, zones)
}

// ListIrrigationEvents returns the events of the last ?days (default 7), newest first
// @Summary List irrigation events
// @Tags irrigation
// @Produce json
// @Param days query int false "Window in days (max 366)" default(7)
// @Success 200 {array} garden.EventView
// @Failure 400 {object} ErrorResponse
// @Router /api/irrigation/events [get]
func (h *Handler) ListIrrigationEvents(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 7)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	events, err := h.svc.Irrigation.Events(r.Context(), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// @Summary Get an irrigation event
// @Tags irrigation
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} garden.EventView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/irrigation/events/{id} [get]
func (h *Handler) GetIrrigationEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	event, err := h.svc.Irrigation.GetEvent(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// @Summary Log an irrigation event
// @Tags irrigation
// @Accept json
// @Produce json
// @Param event body garden.EventInput true "Event"
// @Success 201 {object} garden.EventView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "unknown zone"
// @Router /api/irrigation/events [post]
func (h *Handler) CreateIrrigationEvent(w http.ResponseWriter, r *http.Request) {
	var in garden.EventInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	event, err := h.svc.Irrigation.CreateEvent(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// @Summary Update an irrigation event
// @Tags irrigation
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param event body garden.EventUpdate true "Fields to change"
// @Success 200 {object} garden.EventView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/irrigation/events/{id} [put]
func (h *Handler) UpdateIrrigationEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in garden.EventUpdate
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	event, err := h.svc.Irrigation.UpdateEvent(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// @Summary Delete an irrigation event
// @Tags irrigation
// @Produce json
// @Param id path string true "Event ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/irrigation/events/{id} [delete]
func (h *Handler) DeleteIrrigationEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Irrigation.DeleteEvent(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartIrrigation opens a manual irrigation event over the given zones
// @Summary Start manual irrigation
// @Tags irrigation
// @Accept json
// @Produce json
// @Param request body garden.StartInput true "Zones and optional duration in minutes"
// @Success 201 {object} garden.EventView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/irrigation/start [post]
func (h *Handler) StartIrrigation(w http.ResponseWriter, r *http.Request) {
	var in garden.StartInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	event, err := h.svc.Irrigation.Start(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// StopIrrigation ends the newest running event. 400 when nothing is running.
// @Summary Stop the running irrigation
// @Tags irrigation
// @Produce json
// @Success 200 {object} garden.EventView
// @Failure 400 {object} ErrorResponse "nothing running"
// @Router /api/irrigation/stop [post]
func (h *Handler) StopIrrigation(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.Irrigation.Stop(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// @Summary Irrigation statistics
// @Tags irrigation
// @Produce json
// @Param days query int false "Window in days (max 366)" default(7)
// @Success 200 {object} garden.IrrigationStats
// @Failure 400 {object} ErrorResponse
// @Router /api/irrigation/stats [get]
func (h *Handler) IrrigationStats(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 7)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats, err := h.svc.Irrigation.Stats(r.Context(), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
