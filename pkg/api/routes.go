package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/gilchrisn/satgirg-clustering/pkg/config"
)

// SetupRoutes registers the API under /api/v1 and metrics under /metrics.
func SetupRoutes(router *mux.Router, handlers *Handlers) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/clustering", handlers.ComputeClustering).Methods("POST")

	runs := api.PathPrefix("/runs").Subrouter()
	runs.HandleFunc("", handlers.CreateRun).Methods("POST")
	runs.HandleFunc("", handlers.ListRuns).Methods("GET")
	runs.HandleFunc("/{runId}", handlers.GetRun).Methods("GET")

	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// NewHandler builds the router with its middleware stack and CORS.
func NewHandler(handlers *Handlers) http.Handler {
	router := mux.NewRouter()
	SetupRoutes(router, handlers)

	router.Use(LoggingMiddleware)
	router.Use(RecoveryMiddleware)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}).Handler(router)
}

// NewServer creates the HTTP server from configuration.
func NewServer(cfg *config.Config) *http.Server {
	runService := NewRunService(cfg.MaxConcurrentRuns(), cfg.MaxStoredRuns())
	return &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      NewHandler(NewHandlers(runService, cfg.MaxNodes())),
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
}
