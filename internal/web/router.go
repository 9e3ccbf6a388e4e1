package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/quijoterun/tracker/internal/dependencies/clock"
	"github.com/quijoterun/tracker/internal/dependencies/random"
	"github.com/quijoterun/tracker/internal/services/catalog"
	"github.com/quijoterun/tracker/internal/services/console"
	"github.com/quijoterun/tracker/internal/services/plan"
	"github.com/quijoterun/tracker/internal/services/session"
	"github.com/quijoterun/tracker/internal/web/handler"
	"github.com/quijoterun/tracker/internal/web/middleware"
	"github.com/quijoterun/tracker/internal/web/sse"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger         *slog.Logger
	Clock          clock.Clock
	Random         random.Random
	Sessions       *session.Manager
	Catalog        *catalog.Service
	Plans          *plan.Service
	Console        *console.Service
	HubManager     *sse.HubManager
	// Configured is false when the backend settings are missing
	Configured bool
	// CSRFKey enables form protection when set (32 bytes)
	CSRFKey        []byte
	TrustedOrigins []string
	// SecureCookies marks cookies Secure; set it when served over HTTPS
	SecureCookies bool
	// SessionWait bounds how long a request waits for the session check
	SessionWait time.Duration
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	sessionWait := cfg.SessionWait
	if sessionWait <= 0 {
		sessionWait = middleware.DefaultSessionWait
	}

	hubManager := cfg.HubManager
	if hubManager == nil {
		hubManager = sse.NewHubManager(cfg.Clock, sse.DefaultTickInterval, cfg.Logger)
	}

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Handlers
	authHandler := handler.NewAuthHandler(cfg.Configured, cfg.Logger)
	planHandler := handler.NewPlanHandler(cfg.Plans, cfg.Catalog, hubManager, cfg.Clock, cfg.Logger)
	consoleHandler := handler.NewConsoleHandler(cfg.Console, cfg.Catalog, hubManager, cfg.Logger)

	// Every page belongs to a browser session
	base := r.NewRoute().Subrouter()
	base.Use(middleware.Session(cfg.Sessions, cfg.Random, cfg.SecureCookies))
	if len(cfg.CSRFKey) > 0 {
		base.Use(middleware.CSRF(cfg.CSRFKey, cfg.SecureCookies, cfg.TrustedOrigins))
	}
	base.Use(middleware.Flash())

	// Credential forms
	public := base.NewRoute().Subrouter()
	public.Use(middleware.OptionalIdentity(sessionWait))
	public.HandleFunc("/login", authHandler.LoginPage).Methods(http.MethodGet)
	public.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	public.HandleFunc("/register", authHandler.RegisterPage).Methods(http.MethodGet)
	public.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	public.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	// Runner routes
	protected := base.NewRoute().Subrouter()
	protected.Use(middleware.RequireIdentity(sessionWait))
	protected.HandleFunc("/", planHandler.View).Methods(http.MethodGet)
	protected.HandleFunc("/plan/workouts/{id}/toggle", planHandler.Toggle).Methods(http.MethodPost)
	protected.HandleFunc("/plan/workouts/{id}/notes", planHandler.Notes).Methods(http.MethodPost)
	protected.HandleFunc("/plan/workouts/{id}/discomfort", planHandler.Discomfort).Methods(http.MethodPost)
	protected.HandleFunc("/plan/events/{id}/countdown", planHandler.Countdown).Methods(http.MethodGet)

	// Operator console
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequirePrivileged())
	admin.HandleFunc("", consoleHandler.View).Methods(http.MethodGet)
	admin.HandleFunc("/workouts", consoleHandler.Save).Methods(http.MethodPost)
	admin.HandleFunc("/workouts/{id}/delete", consoleHandler.ConfirmDelete).Methods(http.MethodGet)
	admin.HandleFunc("/workouts/{id}/delete", consoleHandler.Delete).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)

	return r
}
