package handlers

import (
	"net/http"
	"time"
)

// DashboardStats returns the headline garden figures
// @Summary Dashboard statistics
// @Tags dashboard
// @Produce json
// @Success 200 {object} garden.DashboardStats
// @Failure 500 {object} ErrorResponse
// @Router /api/dashboard/stats [get]
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Dashboard.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// @Summary Sensor history per chart series
// @Tags dashboard
// @Produce json
// @Param hours query int false "Window in hours (max 8784)" default(24)
// @Success 200 {object} map[string][]garden.HistoryPoint
// @Failure 400 {object} ErrorResponse
// @Router /api/dashboard/sensor-history [get]
func (h *Handler) SensorHistory(w http.ResponseWriter, r *http.Request) {
	hours, err := queryInt(r, "hours", 24)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	history, err := h.svc.Dashboard.SensorHistory(r.Context(), hours)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// @Summary Recent alerts, irrigation and photos
// @Tags dashboard
// @Produce json
// @Success 200 {object} garden.RecentActivity
// @Failure 500 {object} ErrorResponse
// @Router /api/dashboard/recent-activity [get]
func (h *Handler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.svc.Dashboard.RecentActivity(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}
