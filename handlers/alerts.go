package handlers

import (
	"net/http"
	"strconv"

	"mallkisapan.io/garden/models"
	"mallkisapan.io/garden/pkg/garden"
)

// ListAlerts returns alerts, unread first, then by severity and age
// @Summary List alerts
// @Tags alerts
// @Produce json
// @Param severity query string false "low, medium, high or critical"
// @Param type query string false "Alert type"
// @Param unreadOnly query bool false "Only unread alerts"
// @Success 200 {array} garden.AlertView
// @Failure 400 {object} ErrorResponse
// @Router /api/alerts [get]
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := garden.AlertFilter{
		Severity: models.AlertSeverity(q.Get("severity")),
		Type:     models.AlertType(q.Get("type")),
	}
	if raw := q.Get("unreadOnly"); raw != "" {
		unread, err := strconv.ParseBool(raw)
		if err != nil {
			h.fail(w, r, garden.InvalidField("unreadOnly", "must be true or false"))
			return
		}
		filter.UnreadOnly = unread
	}

	alerts, err := h.svc.Alerts.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// @Summary Get an alert
// @Tags alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} garden.AlertView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/alerts/{id} [get]
func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	alert, err := h.svc.Alerts.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

// @Summary Create an alert
// @Tags alerts
// @Accept json
// @Produce json
// @Param alert body garden.AlertInput true "Alert"
// @Success 201 {object} garden.AlertView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "unknown crop"
// @Router /api/alerts [post]
func (h *Handler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var in garden.AlertInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	alert, err := h.svc.Alerts.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

// MarkAlertRead sets the read flag, the only mutable field of an alert.
// @Summary Mark an alert read
// @Tags alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} models.Alert
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/alerts/{id}/read [patch]
func (h *Handler) MarkAlertRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	alert, err := h.svc.Alerts.MarkRead(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

// @Summary Mark all alerts read
// @Tags alerts
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 500 {object} ErrorResponse
// @Router /api/alerts/read-all [patch]
func (h *Handler) MarkAllAlertsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Alerts.MarkAllRead(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "All alerts marked as read",
		"updated": n,
	})
}

// @Summary Delete an alert
// @Tags alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/alerts/{id} [delete]
func (h *Handler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Alerts.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
