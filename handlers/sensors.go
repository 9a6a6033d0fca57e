package handlers

import (
	"net/http"

	"mallkisapan.io/garden/pkg/garden"
)

// ListSensors returns all sensors
// @Summary List sensors
// @Tags sensors
// @Produce json
// @Success 200 {array} models.Sensor
// @Failure 500 {object} ErrorResponse
// @Router /api/sensors [get]
func (h *Handler) ListSensors(w http.ResponseWriter, r *http.Request) {
	sensors, err := h.svc.Sensors.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sensors)
}

// GetSensor returns one sensor with its newest readings
// @Summary Get a sensor
// @Tags sensors
// @Produce json
// @Param id path string true "Sensor ID"
// @Success 200 {object} models.Sensor
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/sensors/{id} [get]
func (h *Handler) GetSensor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sensor, err := h.svc.Sensors.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sensor)
}

// CreateSensor registers a sensor
// @Summary Create a sensor
// @Tags sensors
// @Accept json
// @Produce json
// @Param sensor body garden.SensorInput true "Sensor"
// @Success 201 {object} models.Sensor
// @Failure 400 {object} ErrorResponse
// @Router /api/sensors [post]
func (h *Handler) CreateSensor(w http.ResponseWriter, r *http.Request) {
	var in garden.SensorInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	sensor, err := h.svc.Sensors.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sensor)
}

// @Summary Update a sensor
// @Tags sensors
// @Accept json
// @Produce json
// @Param id path string true "Sensor ID"
// @Param sensor body garden.SensorUpdate true "Fields to change"
// @Success 200 {object} models.Sensor
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/sensors/{id} [put]
func (h *Handler) UpdateSensor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in garden.SensorUpdate
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	sensor, err := h.svc.Sensors.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sensor)
}

// @Summary Delete a sensor
// @Tags sensors
// @Produce json
// @Param id path string true "Sensor ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/sensors/{id} [delete]
func (h *Handler) DeleteSensor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Sensors.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordReading stores a reading and reclassifies the sensor
// @Summary Record a sensor reading
// @Tags sensors
// @Accept json
// @Produce json
// @Param id path string true "Sensor ID"
// @Param reading body garden.ReadingInput true "Reading"
// @Success 201 {object} models.SensorReading
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/sensors/{id}/readings [post]
func (h *Handler) RecordReading(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in garden.ReadingInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	reading, err := h.svc.Sensors.RecordReading(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reading)
}

// SensorReadings returns readings of the last ?hours (default 24), oldest first.
// @Summary List sensor readings
// @Tags sensors
// @Produce json
// @Param id path string true "Sensor ID"
// @Param hours query int false "Window in hours (max 8784)" default(24)
// @Success 200 {array} models.SensorReading
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/sensors/{id}/readings [get]
func (h *Handler) SensorReadings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	hours, err := queryInt(r, "hours", 24)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	readings, err := h.svc.Sensors.Readings(r.Context(), id, hours)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

// @Summary Sensor reading statistics
// @Tags sensors
// @Produce json
// @Param id path string true "Sensor ID"
// @Param hours query int false "Window in hours (max 8784)" default(24)
// @Success 200 {object} garden.ReadingStats
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/sensors/{id}/stats [get]
func (h *Handler) SensorStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	hours, err := queryInt(r, "hours", 24)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats, err := h.svc.Sensors.Stats(r.Context(), id, hours)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
