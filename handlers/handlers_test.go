package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mallkisapan.io/garden/pkg/garden"
	"mallkisapan.io/garden/pkg/storage"
)

var testNow = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

type testServer struct {
	router    *mux.Router
	db        *gorm.DB
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(garden.Models()...))

	dir := t.TempDir()
	store, err := storage.NewLocal(dir, "/uploads")
	require.NoError(t, err)
	store.Now = func() time.Time { return testNow }

	svc := garden.NewServices(db, garden.Options{Now: func() time.Time { return testNow }})
	return &testServer{router: newRouter(New(svc, store, zap.NewNop())), db: db, uploadDir: dir}
}

// newRouter mirrors the /api routes of the production router.
func newRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sensors", h.ListSensors).Methods("GET")
	api.HandleFunc("/sensors", h.CreateSensor).Methods("POST")
	api.HandleFunc("/sensors/{id}", h.GetSensor).Methods("GET")
	api.HandleFunc("/sensors/{id}", h.UpdateSensor).Methods("PUT")
	api.HandleFunc("/sensors/{id}", h.DeleteSensor).Methods("DELETE")
	api.HandleFunc("/sensors/{id}/readings", h.RecordReading).Methods("POST")
	api.HandleFunc("/sensors/{id}/readings", h.SensorReadings).Methods("GET")
	api.HandleFunc("/sensors/{id}/readings/export", h.ExportSensorReadings).Methods("GET")
	api.HandleFunc("/sensors/{id}/stats", h.SensorStats).Methods("GET")
	api.HandleFunc("/crops", h.CreateCrop).Methods("POST")
	api.HandleFunc("/crops", h.ListCrops).Methods("GET")
	api.HandleFunc("/crops/{id}", h.DeleteCrop).Methods("DELETE")
	api.HandleFunc("/alerts", h.ListAlerts).Methods("GET")
	api.HandleFunc("/alerts", h.CreateAlert).Methods("POST")
	api.HandleFunc("/alerts/read-all", h.MarkAllAlertsRead).Methods("PATCH")
	api.HandleFunc("/alerts/{id}/read", h.MarkAlertRead).Methods("PATCH")
	api.HandleFunc("/photos", h.CreatePhoto).Methods("POST")
	api.HandleFunc("/photos/upload", h.UploadPhoto).Methods("POST")
	api.HandleFunc("/photos/{id}/analysis", h.AnalyzePhoto).Methods("POST")
	api.HandleFunc("/irrigation/zones", h.CreateZone).Methods("POST")
	api.HandleFunc("/irrigation/start", h.StartIrrigation).Methods("POST")
	api.HandleFunc("/irrigation/stop", h.StopIrrigation).Methods("POST")
	api.HandleFunc("/irrigation/stats", h.IrrigationStats).Methods("GET")
	api.HandleFunc("/irrigation/events", h.CreateIrrigationEvent).Methods("POST")
	api.HandleFunc("/irrigation/events", h.ListIrrigationEvents).Methods("GET")
	api.HandleFunc("/irrigation/events/export", h.ExportIrrigationEvents).Methods("GET")
	api.HandleFunc("/dashboard/stats", h.DashboardStats).Methods("GET")
	return r
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

// create POSTs body and decodes the created entity's id.
func (s *testServer) create(t *testing.T, path, body string) string {
	t.Helper()
	rr := s.do(t, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out.ID
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestSensorEndpoints(t *testing.T) {
	s := newTestServer(t)
	id := s.create(t, "/api/sensors", `{"name":"Bed 1 soil","type":"humidity_soil","unit":"%"}`)

	rr := s.do(t, http.MethodPost, "/api/sensors/"+id+"/readings", `{"value":28}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodGet, "/api/sensors/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var sensor struct {
		Status    string  `json:"status"`
		LastValue float64 `json:"lastValue"`
		Readings  []any   `json:"readings"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sensor))
	assert.Equal(t, "critical", sensor.Status)
	assert.Equal(t, 28.0, sensor.LastValue)
	assert.Len(t, sensor.Readings, 1)

	rr = s.do(t, http.MethodGet, "/api/sensors/"+id+"/readings?hours=2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"value":28`)

	rr = s.do(t, http.MethodGet, "/api/sensors/"+id+"/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"critical":1`)

	rr = s.do(t, http.MethodDelete, "/api/sensors/"+id, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestErrorBoundary(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantError  string
		wantField  string
	}{
		{"unknown enum", "POST", "/api/sensors", `{"name":"x","type":"wind","unit":"m/s"}`, 400, "validation failed", "type"},
		{"missing field", "POST", "/api/sensors", `{"type":"light","unit":"lux"}`, 400, "validation failed", "name"},
		{"malformed json", "POST", "/api/sensors", `{"name":`, 400, "invalid JSON body", "body"},
		{"empty body", "POST", "/api/alerts", "", 400, "request body is required", ""},
		{"bad id", "GET", "/api/sensors/not-a-uuid", "", 400, "validation failed", "id"},
		{"bad hours", "GET", "/api/sensors/6f1c1a9e-4a8e-4c5e-9d7e-0b0b0b0b0b0b/readings?hours=-3", "", 400, "validation failed", "hours"},
		{"hours too large", "GET", "/api/sensors/6f1c1a9e-4a8e-4c5e-9d7e-0b0b0b0b0b0b/readings?hours=3000000", "", 400, "validation failed", "hours"},
		{"days too large", "GET", "/api/irrigation/events?days=200000", "", 400, "validation failed", "days"},
		{"history hours too large", "GET", "/api/dashboard/sensor-history?hours=9000", "", 400, "validation failed", "hours"},
		{"bad unreadOnly", "GET", "/api/alerts?unreadOnly=maybe", "", 400, "validation failed", "unreadOnly"},
		{"missing sensor", "GET", "/api/sensors/6f1c1a9e-4a8e-4c5e-9d7e-0b0b0b0b0b0b", "", 404, "", ""},
		{"reading for missing sensor", "POST", "/api/sensors/6f1c1a9e-4a8e-4c5e-9d7e-0b0b0b0b0b0b/readings", `{"value":1}`, 404, "", ""},
		{"crop with unknown sensor", "POST", "/api/crops",
			`{"name":"Tomato","variety":"Cherry","plantedDate":"2025-05-01","expectedHarvestDate":"2025-08-01","location":"Bed 1","sensorIds":["6f1c1a9e-4a8e-4c5e-9d7e-0b0b0b0b0b0b"]}`,
			404, "", ""},
		{"stop with nothing running", "POST", "/api/irrigation/stop", "", 400, "no active irrigation", ""},
		{"event without zones", "POST", "/api/irrigation/events", `{"trigger":"manual","duration":10,"waterVolume":30,"zoneIds":[]}`, 400, "validation failed", "zoneIds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, tt.method, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			body := decodeError(t, rr)
			assert.Equal(t, tt.wantStatus, body.StatusCode)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body.Error)
			} else {
				assert.Contains(t, body.Error, "not found")
			}
			if tt.wantField != "" {
				require.NotEmpty(t, body.Details)
				assert.Equal(t, tt.wantField, body.Details[0].Field)
			}
		})
	}
}

func TestAnalysisRaisesAlerts(t *testing.T) {
	s := newTestServer(t)
	cropID := s.create(t, "/api/crops",
		`{"name":"Tomato","variety":"Cherry","plantedDate":"2025-05-01","expectedHarvestDate":"2025-08-01","location":"Bed 1"}`)
	photoID := s.create(t, "/api/photos", `{"url":"https://example.com/t.jpg","cropId":"`+cropID+`"}`)

	rr := s.do(t, http.MethodPost, "/api/photos/"+photoID+"/analysis",
		`{"healthScore":42,"growthStage":"flowering","issues":["blight","aphids"],"recommendations":["Remove affected leaves","Apply neem oil"]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"healthScore":42`)

	rr = s.do(t, http.MethodGet, "/api/alerts?type=growth&unreadOnly=true", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var alerts []struct {
		Severity         string `json:"severity"`
		Title            string `json:"title"`
		CropName         string `json:"cropName"`
		AIRecommendation string `json:"aiRecommendation"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &alerts))
	require.Len(t, alerts, 2)
	for _, a := range alerts {
		assert.Equal(t, "high", a.Severity)
		assert.Equal(t, "Tomato", a.CropName)
		assert.Equal(t, "Remove affected leaves. Apply neem oil", a.AIRecommendation)
	}

	rr = s.do(t, http.MethodPatch, "/api/alerts/read-all", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"All alerts marked as read","updated":2}`, rr.Body.String())

	rr = s.do(t, http.MethodGet, "/api/dashboard/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"activeAlerts":0`)
}

func TestStartStopIrrigation(t *testing.T) {
	s := newTestServer(t)
	north := s.create(t, "/api/irrigation/zones", `{"name":"North"}`)
	south := s.create(t, "/api/irrigation/zones", `{"name":"South"}`)

	rr := s.do(t, http.MethodPost, "/api/irrigation/start", `{"zoneIds":["`+north+`","`+south+`"],"duration":10}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var started struct {
		Trigger     string   `json:"trigger"`
		WaterVolume float64  `json:"waterVolume"`
		Zones       []string `json:"zones"`
		Message     string   `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &started))
	assert.Equal(t, "manual", started.Trigger)
	assert.Equal(t, 60.0, started.WaterVolume)
	assert.ElementsMatch(t, []string{"North", "South"}, started.Zones)
	assert.NotEmpty(t, started.Message)

	rr = s.do(t, http.MethodPost, "/api/irrigation/stop", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "Irrigation stopped")

	rr = s.do(t, http.MethodGet, "/api/irrigation/stats?days=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"totalWaterUsage":60`)
}

func TestUploadPhoto(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "../../leaf spots.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/photos/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var out map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "/uploads/20250615-143000-leaf_spots.jpg", out["url"])

	data, err := os.ReadFile(filepath.Join(s.uploadDir, "20250615-143000-leaf_spots.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	rr = s.do(t, http.MethodPost, "/api/photos/upload", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExportIrrigationEvents(t *testing.T) {
	s := newTestServer(t)
	zone := s.create(t, "/api/irrigation/zones", `{"name":"North"}`)
	s.create(t, "/api/irrigation/events",
		`{"trigger":"scheduled","duration":20,"waterVolume":60,"zoneIds":["`+zone+`"],"startedAt":"2025-06-15T06:00:00Z"}`)

	rr := s.do(t, http.MethodGet, "/api/irrigation/events/export?days=7", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "irrigation-events.xlsx")

	f, err := excelize.OpenReader(rr.Body)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(exportSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Irrigation events, last 7 days", title)
	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Started", "Ended", "Trigger", "Duration (min)", "Water (L)", "Zones"}, rows[3])
	assert.Equal(t, "2025-06-15 06:00:00", rows[4][0])
	assert.Equal(t, "2025-06-15 06:20:00", rows[4][1])
	assert.Equal(t, "scheduled", rows[4][2])
	assert.Equal(t, "North", rows[4][5])
}

func TestExportSensorReadings(t *testing.T) {
	s := newTestServer(t)
	id := s.create(t, "/api/sensors", `{"name":"Greenhouse temp","type":"temperature","unit":"°C"}`)
	s.create(t, "/api/sensors/"+id+"/readings", `{"value":22.5,"timestamp":"2025-06-15T13:00:00Z"}`)
	s.create(t, "/api/sensors/"+id+"/readings", `{"value":24}`)

	rr := s.do(t, http.MethodGet, "/api/sensors/"+id+"/readings/export?hours=6", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	f, err := excelize.OpenReader(rr.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "Greenhouse temp, last 6 hours", rows[0][0])
	assert.Equal(t, []string{"2025-06-15 13:00:00", "22.5"}, rows[4])
	assert.Equal(t, []string{"2025-06-15 14:30:00", "24"}, rows[5])
}
