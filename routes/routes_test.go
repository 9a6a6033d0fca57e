package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mallkisapan.io/garden/handlers"
	"mallkisapan.io/garden/pkg/garden"
	"mallkisapan.io/garden/pkg/metrics"
	"mallkisapan.io/garden/pkg/storage"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(garden.Models()...))

	m, err := metrics.New()
	require.NoError(t, err)
	dir := t.TempDir()
	store, err := storage.NewLocal(dir, "/uploads")
	require.NoError(t, err)

	svc := garden.NewServices(db, garden.Options{Recorder: m})
	return RegisterRoutes(handlers.New(svc, store, nil), Options{
		UploadDir:      dir,
		AllowedOrigins: []string{"http://localhost:5173"},
		Metrics:        m,
	})
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func TestPublicRoutes(t *testing.T) {
	h := newTestRouter(t)

	rr := serve(h, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)

	rr = serve(h, http.MethodGet, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, rr.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Equal(t, "2.0", doc["swagger"])

	serve(h, http.MethodGet, "/api/sensors")
	rr = serve(h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `route="/api/sensors"`)
}

func TestRouteMatching(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/irrigation/events/export", http.StatusOK},
		{http.MethodGet, "/api/irrigation/events", http.StatusOK},
		{http.MethodPatch, "/api/alerts/read-all", http.StatusOK},
		{http.MethodPost, "/api/irrigation/stop", http.StatusBadRequest},
		{http.MethodGet, "/api/dashboard/stats", http.StatusOK},
		{http.MethodGet, "/api/dashboard/sensor-history", http.StatusOK},
		{http.MethodGet, "/api/dashboard/recent-activity", http.StatusOK},
		{http.MethodGet, "/api/crops/6f1c1a9e-4a8e-4c5e-9d7e-0b0b0b0b0b0b", http.StatusNotFound},
		{http.MethodGet, "/api/nothing-here", http.StatusNotFound},
		{http.MethodPut, "/api/alerts/6f1c1a9e-4a8e-4c5e-9d7e-0b0b0b0b0b0b", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(h, tt.method, tt.path).Code)
		})
	}
}

func TestPreflight(t *testing.T) {
	h := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/crops", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestSwaggerDescribesEveryAPIRoute(t *testing.T) {
	r := newRouter(handlers.New(nil, nil, nil), Options{})

	raw, err := swag.ReadDoc()
	require.NoError(t, err)
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	routed := map[string]bool{}
	err = r.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tpl, err := route.GetPathTemplate()
		if err != nil || !strings.HasPrefix(tpl, "/api/") {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			return nil
		}
		for _, m := range methods {
			m = strings.ToLower(m)
			routed[m+" "+tpl] = true
			_, ok := doc.Paths[tpl][m]
			assert.True(t, ok, "%s %s is not described", m, tpl)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, routed, 45)

	for path, ops := range doc.Paths {
		for method := range ops {
			assert.True(t, routed[method+" "+path], "%s %s is described but not routed", method, path)
		}
	}
}
