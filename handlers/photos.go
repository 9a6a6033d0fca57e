package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mallkisapan.io/garden/pkg/garden"
)

// ListPhotos returns photos newest first, optionally for one crop
// @Summary List photos
// @Tags photos
// @Produce json
// @Param cropId query string false "Crop ID"
// @Success 200 {array} garden.PhotoView
// @Failure 400 {object} ErrorResponse
// @Router /api/photos [get]
func (h *Handler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	var cropID *uuid.UUID
	if raw := r.URL.Query().Get("cropId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.fail(w, r, garden.InvalidField("cropId", "must be a UUID"))
			return
		}
		cropID = &id
	}
	photos, err := h.svc.Photos.List(r.Context(), cropID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

// @Summary Get a photo
// @Tags photos
// @Produce json
// @Param id path string true "Photo ID"
// @Success 200 {object} garden.PhotoView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/photos/{id} [get]
func (h *Handler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	photo, err := h.svc.Photos.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// @Summary Create a photo
// @Tags photos
// @Accept json
// @Produce json
// @Param photo body garden.PhotoInput true "Photo"
// @Success 201 {object} garden.PhotoView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "unknown crop"
// @Router /api/photos [post]
func (h *Handler) CreatePhoto(w http.ResponseWriter, r *http.Request) {
	var in garden.PhotoInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	photo, err := h.svc.Photos.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

// @Summary Update a photo
// @Tags photos
// @Accept json
// @Produce json
// @Param id path string true "Photo ID"
// @Param photo body garden.PhotoUpdate true "Fields to change"
// @Success 200 {object} garden.PhotoView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/photos/{id} [put]
func (h *Handler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in garden.PhotoUpdate
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	photo, err := h.svc.Photos.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// @Summary Delete a photo
// @Tags photos
// @Produce json
// @Param id path string true "Photo ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/photos/{id} [delete]
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Photos.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AnalyzePhoto stores the AI analysis of a photo and raises one growth alert per issue
// @Summary Save a photo analysis
// @Tags photos
// @Accept json
// @Produce json
// @Param id path string true "Photo ID"
// @Param analysis body garden.AnalysisInput true "Analysis"
// @Success 201 {object} models.PhotoAnalysis
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/photos/{id}/analysis [post]
func (h *Handler) AnalyzePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in garden.AnalysisInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Photos.Analyze(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res.Analysis)
}

// UploadPhoto stores a multipart "file" field and returns its URL. The URL is then
// used to create the photo record.
// @Summary Upload a photo file
// @Tags photos
// @Accept mpfd
// @Produce json
// @Param file formData file true "Image file"
// @Success 201 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/photos/upload [post]
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.fail(w, r, garden.InvalidField("file", "bad multipart form: "+err.Error()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, garden.InvalidField("file", "is required"))
		return
	}
	defer file.Close()

	url, err := h.store.Save(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info("photo uploaded", zap.String("url", url), zap.Int64("size", header.Size))
	writeJSON(w, http.StatusCreated, map[string]string{
		"url":      url,
		"filename": header.Filename,
	})
}
