package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"mallkisapan.io/garden/pkg/garden"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error      string              `json:"error"`
	StatusCode int                 `json:"statusCode"`
	Details    []garden.FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// fail maps a service error onto the response: validation errors are 400,
// missing entities 404, and everything else a logged 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *garden.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:      verr.Message,
			StatusCode: http.StatusBadRequest,
			Details:    verr.Fields,
		})
	case errors.Is(err, garden.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), StatusCode: http.StatusNotFound})
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:      "Internal server error",
			StatusCode: http.StatusInternalServerError,
		})
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return garden.Invalid("request body is required")
		}
		return &garden.ValidationError{
			Message: "invalid JSON body",
			Fields:  []garden.FieldError{{Field: "body", Message: err.Error()}},
		}
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, garden.InvalidField("id", "must be a UUID")
	}
	return id, nil
}

// queryInt reads a positive integer query parameter, falling back to def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, garden.InvalidField(name, "must be a positive integer")
	}
	return n, nil
}
