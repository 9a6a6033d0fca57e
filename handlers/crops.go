package handlers

import (
	"net/http"

	"mallkisapan.io/garden/pkg/garden"
)

// ListCrops returns crops with their sensors, unread alert and photo counts
// @Summary List crops
// @Tags crops
// @Produce json
// @Success 200 {array} garden.CropSummary
// @Failure 500 {object} ErrorResponse
// @Router /api/crops [get]
func (h *Handler) ListCrops(w http.ResponseWriter, r *http.Request) {
	crops, err := h.svc.Crops.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, crops)
}

// @Summary Get a crop
// @Tags crops
// @Produce json
// @Param id path string true "Crop ID"
// @Success 200 {object} models.Crop
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/crops/{id} [get]
func (h *Handler) GetCrop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	crop, err := h.svc.Crops.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, crop)
}

// CreateCrop creates a crop and links the given sensors
// @Summary Create a crop
// @Tags crops
// @Accept json
// @Produce json
// @Param crop body garden.CropInput true "Crop"
// @Success 201 {object} models.Crop
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "unknown sensor"
// @Router /api/crops [post]
func (h *Handler) CreateCrop(w http.ResponseWriter, r *http.Request) {
	var in garden.CropInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	crop, err := h.svc.Crops.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, crop)
}

// @Summary Update a crop
// @Tags crops
// @Accept json
// @Produce json
// @Param id path string true "Crop ID"
// @Param crop body garden.CropUpdate true "Fields to change"
// @Success 200 {object} models.Crop
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/crops/{id} [put]
func (h *Handler) UpdateCrop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in garden.CropUpdate
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	crop, err := h.svc.Crops.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, crop)
}

// @Summary Delete a crop
// @Tags crops
// @Produce json
// @Param id path string true "Crop ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/crops/{id} [delete]
func (h *Handler) DeleteCrop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Crops.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
