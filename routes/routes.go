package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
	"go.uber.org/zap"

	_ "mallkisapan.io/garden/docs"
	"mallkisapan.io/garden/handlers"
	"mallkisapan.io/garden/middleware"
	"mallkisapan.io/garden/pkg/metrics"
)

// Options configures the router around the API handlers.
type Options struct {
	UploadDir      string
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	Log            *zap.Logger
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(h *handlers.Handler, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := newRouter(h, opts)

	// CORS wraps the router so preflight requests are answered before route matching.
	var handler http.Handler = r
	handler = middleware.RequestLogger(log)(handler)
	handler = middleware.Recoverer(log)(handler)
	handler = middleware.CORS(opts.AllowedOrigins...)(handler)
	return handler
}

func newRouter(h *handlers.Handler, opts Options) *mux.Router {
	r := mux.NewRouter()
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
		r.Handle("/metrics", promhttp.HandlerFor(opts.Metrics.Registry, promhttp.HandlerOpts{})).Methods("GET")
	}

	// =====================================================
	// Public Routes
	// =====================================================
	r.HandleFunc("/health", handlers.Health).Methods("GET")
	r.HandleFunc("/swagger/doc.json", serveSwagger).Methods("GET")
	if opts.UploadDir != "" {
		r.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadDir))),
		)
	}

	// =====================================================
	// API Routes
	// =====================================================
	api := r.PathPrefix("/api").Subrouter()
	registerSensorRoutes(api, h)
	registerCropRoutes(api, h)
	registerAlertRoutes(api, h)
	registerPhotoRoutes(api, h)
	registerIrrigationRoutes(api, h)
	registerDashboardRoutes(api, h)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Route not found","statusCode":404}`))
	})
	return r
}

func registerSensorRoutes(api *mux.Router, h *handlers.Handler) {
	api.HandleFunc("/sensors/{id}/readings", h.RecordReading).Methods("POST")
	api.HandleFunc("/sensors/{id}/readings", h.SensorReadings).Methods("GET")
	api.HandleFunc("/sensors/{id}/readings/export", h.ExportSensorReadings).Methods("GET")
	api.HandleFunc("/sensors/{id}/stats", h.SensorStats).Methods("GET")
	registerCRUDRoutes(api, "/sensors", crudHandlers{
		getAll: h.ListSensors,
		create: h.CreateSensor,
		getOne: h.GetSensor,
		update: h.UpdateSensor,
		delete: h.DeleteSensor,
	})
}

func registerCropRoutes(api *mux.Router, h *handlers.Handler) {
	registerCRUDRoutes(api, "/crops", crudHandlers{
		getAll: h.ListCrops,
		create: h.CreateCrop,
		getOne: h.GetCrop,
		update: h.UpdateCrop,
		delete: h.DeleteCrop,
	})
}

func registerAlertRoutes(api *mux.Router, h *handlers.Handler) {
	// read-all must be registered before /alerts/{id} routes
	api.HandleFunc("/alerts/read-all", h.MarkAllAlertsRead).Methods("PATCH")
	api.HandleFunc("/alerts/{id}/read", h.MarkAlertRead).Methods("PATCH")
	registerCRUDRoutes(api, "/alerts", crudHandlers{
		getAll: h.ListAlerts,
		create: h.CreateAlert,
		getOne: h.GetAlert,
		delete: h.DeleteAlert,
	})
}

func registerPhotoRoutes(api *mux.Router, h *handlers.Handler) {
	api.HandleFunc("/photos/upload", h.UploadPhoto).Methods("POST")
	api.HandleFunc("/photos/{id}/analysis", h.AnalyzePhoto).Methods("POST")
	registerCRUDRoutes(api, "/photos", crudHandlers{
		getAll: h.ListPhotos,
		create: h.CreatePhoto,
		getOne: h.GetPhoto,
		update: h.UpdatePhoto,
		delete: h.DeletePhoto,
	})
}

func registerIrrigationRoutes(api *mux.Router, h *handlers.Handler) {
	api.HandleFunc("/irrigation/start", h.StartIrrigation).Methods("POST")
	api.HandleFunc("/irrigation/stop", h.StopIrrigation).Methods("POST")
	api.HandleFunc("/irrigation/stats", h.IrrigationStats).Methods("GET")
	api.HandleFunc("/irrigation/events/export", h.ExportIrrigationEvents).Methods("GET")
	api.HandleFunc("/irrigation/zones/import", h.ImportZones).Methods("POST")

	registerCRUDRoutes(api, "/irrigation/zones", crudHandlers{
		getAll: h.ListZones,
		create: h.CreateZone,
		getOne: h.GetZone,
		update: h.UpdateZone,
		delete: h.DeleteZone,
	})
	registerCRUDRoutes(api, "/irrigation/events", crudHandlers{
		getAll: h.ListIrrigationEvents,
		create: h.CreateIrrigationEvent,
		getOne: h.GetIrrigationEvent,
		update: h.UpdateIrrigationEvent,
		delete: h.DeleteIrrigationEvent,
	})
}

func registerDashboardRoutes(api *mux.Router, h *handlers.Handler) {
	api.HandleFunc("/dashboard/stats", h.DashboardStats).Methods("GET")
	api.HandleFunc("/dashboard/sensor-history", h.SensorHistory).Methods("GET")
	api.HandleFunc("/dashboard/recent-activity", h.RecentActivity).Methods("GET")
}

// crudHandlers holds handlers for a CRUD resource. Nil handlers are not routed.
type crudHandlers struct {
	getAll http.HandlerFunc
	create http.HandlerFunc
	getOne http.HandlerFunc
	update http.HandlerFunc
	delete http.HandlerFunc
}

// registerCRUDRoutes registers standard CRUD routes for a resource
func registerCRUDRoutes(router *mux.Router, path string, h crudHandlers) {
	if h.getAll != nil {
		router.HandleFunc(path, h.getAll).Methods("GET")
	}
	if h.create != nil {
		router.HandleFunc(path, h.create).Methods("POST")
	}
	if h.getOne != nil {
		router.HandleFunc(path+"/{id}", h.getOne).Methods("GET")
	}
	if h.update != nil {
		router.HandleFunc(path+"/{id}", h.update).Methods("PUT")
	}
	if h.delete != nil {
		router.HandleFunc(path+"/{id}", h.delete).Methods("DELETE")
	}
}

func serveSwagger(w http.ResponseWriter, _ *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}
