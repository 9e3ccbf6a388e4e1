package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/quijoterun/tracker/internal/api/handler"
	"github.com/quijoterun/tracker/internal/api/middleware"
	"github.com/quijoterun/tracker/internal/api/response"
	"github.com/quijoterun/tracker/internal/dependencies/clock"
	"github.com/quijoterun/tracker/internal/dependencies/random"
	"github.com/quijoterun/tracker/internal/services/catalog"
	"github.com/quijoterun/tracker/internal/services/console"
	"github.com/quijoterun/tracker/internal/services/plan"
	"github.com/quijoterun/tracker/internal/services/session"
	"github.com/quijoterun/tracker/internal/web/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger     *slog.Logger
	Clock      clock.Clock
	Random     random.Random
	Sessions   *session.Manager
	Catalog    *catalog.Service
	Plans      *plan.Service
	Console    *console.Service
	HubManager *sse.HubManager
	// Configured is reported by the health check
	Configured bool
	// SessionWait bounds how long a request waits for a token's session check
	SessionWait time.Duration
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	registerRoutes(r, cfg)
	return r
}

// Mount registers the API routes on an existing router
func Mount(r *mux.Router, cfg RouterConfig) {
	registerRoutes(r, cfg)
}

func registerRoutes(r *mux.Router, cfg RouterConfig) {
	sessionWait := cfg.SessionWait
	if sessionWait <= 0 {
		sessionWait = middleware.DefaultSessionWait
	}

	// Create handlers
	sessionHandler := handler.NewSessionHandler(cfg.Sessions, cfg.Random, cfg.Logger)
	planHandler := handler.NewPlanHandler(cfg.Plans, cfg.Catalog, cfg.Clock, cfg.Logger)
	consoleHandler := handler.NewConsoleHandler(cfg.Console, cfg.Catalog, cfg.HubManager, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.Sessions, sessionWait)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	// Credentials (no auth required)
	api.HandleFunc("/session", sessionHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/register", sessionHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/health", healthHandler(cfg.Configured)).Methods(http.MethodGet)

	// Runner routes
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/session", sessionHandler.Logout).Methods(http.MethodDelete)
	protected.HandleFunc("/me", sessionHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/events", planHandler.Events).Methods(http.MethodGet)
	protected.HandleFunc("/events/{id}/plan", planHandler.EventPlan).Methods(http.MethodGet)
	protected.HandleFunc("/plan", planHandler.Plan).Methods(http.MethodGet)
	protected.HandleFunc("/workouts/{id}/toggle", planHandler.Toggle).Methods(http.MethodPost)
	protected.HandleFunc("/workouts/{id}/notes", planHandler.Notes).Methods(http.MethodPut)
	protected.HandleFunc("/workouts/{id}/discomfort", planHandler.Discomfort).Methods(http.MethodPut)

	// Operator routes
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequirePrivileged)
	admin.HandleFunc("/events/{id}/workouts", consoleHandler.Workouts).Methods(http.MethodGet)
	admin.HandleFunc("/workouts", consoleHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/workouts/{id}", consoleHandler.Update).Methods(http.MethodPut)
	admin.HandleFunc("/workouts/{id}", consoleHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/runners", consoleHandler.Runners).Methods(http.MethodGet)
}

type healthResponse struct {
	Status     string `json:"status"`
	Configured bool   `json:"configured"`
}

func healthHandler(configured bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, healthResponse{Status: "ok", Configured: configured})
	}
}
