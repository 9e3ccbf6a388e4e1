package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/quijoterun/tracker/internal/backend"
	membackend "github.com/quijoterun/tracker/internal/backend/memory"
	"github.com/quijoterun/tracker/internal/backend/rest"
	"github.com/quijoterun/tracker/internal/config"
	"github.com/quijoterun/tracker/internal/dependencies/clock"
	"github.com/quijoterun/tracker/internal/dependencies/random"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/observability"
	"github.com/quijoterun/tracker/internal/services/catalog"
	"github.com/quijoterun/tracker/internal/services/console"
	"github.com/quijoterun/tracker/internal/services/plan"
	"github.com/quijoterun/tracker/internal/services/session"
	"github.com/quijoterun/tracker/internal/storage"
	"github.com/quijoterun/tracker/internal/storage/memory"
	redisstorage "github.com/quijoterun/tracker/internal/storage/redis"
	"github.com/quijoterun/tracker/internal/web/sse"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Backend
	Backend *backend.Client
	// Memory is the in-process backend, nil when talking to a hosted one
	Memory *membackend.Backend

	// Services
	Sessions   *session.Manager
	Catalog    *catalog.Service
	Plans      *plan.Service
	Console    *console.Service
	HubManager *sse.HubManager
	Metrics    *observability.Metrics
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger

	// Backend selects the data backend (config.BackendREST or config.BackendMemory)
	// If empty, defaults to rest
	Backend string
	// REST holds the hosted backend settings
	REST rest.Config
	// Memory holds the in-process backend settings
	Memory membackend.Config
	// Seed loads demo data into the in-process backend when set
	Seed *membackend.SeedConfig

	// StorageType selects the session storage ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SessionTTL bounds how long a stored backend session survives
	SessionTTL time.Duration

	// Session holds the privilege policy and username domain
	// If zero value, defaults to session.DefaultConfig()
	Session session.Config

	// TickInterval is how often countdown streams push an update
	TickInterval time.Duration
}

// ConfigFrom maps the process configuration onto factory settings
func ConfigFrom(cfg config.Config, logger *slog.Logger) Config {
	out := Config{
		Logger:  logger,
		Backend: cfg.Backend,
		REST: rest.Config{
			URL:     cfg.SupabaseURL,
			APIKey:  cfg.SupabaseAnonKey,
			Timeout: cfg.BackendTimeout,
		},
		Memory: membackend.Config{
			JWTSecret: cfg.JWTSecret,
			TokenTTL:  membackend.DefaultConfig().TokenTTL,
		},
		StorageType: cfg.StorageType,
		SessionTTL:  cfg.SessionTTL,
		Session: session.Config{
			Policy:     cfg.Policy(),
			Normalizer: session.Normalizer{Domain: cfg.UsernameDomain},
		},
		TickInterval: sse.DefaultTickInterval,
	}

	if cfg.StorageType == StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.SessionTTL = cfg.SessionTTL
		out.RedisConfig = &redisCfg
	}

	if cfg.Backend == config.BackendMemory && cfg.SeedDemo {
		out.Seed = &membackend.SeedConfig{
			OperatorEmail:    cfg.OperatorEmail,
			OperatorPassword: cfg.OperatorPassword,
			AdminRole:        cfg.AdminRole,
		}
	}
	return out
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()
	rnd := random.New()

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New(cfg.SessionTTL, clk)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	var (
		tables     backend.Tables
		transport  backend.AuthTransport
		mem        *membackend.Backend
		configured bool
	)

	switch cfg.Backend {
	case config.BackendMemory:
		mem = membackend.New(cfg.Memory, clk, rnd)
		if cfg.Seed != nil {
			if err := membackend.SeedDemo(context.Background(), mem, *cfg.Seed, clk.Now()); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("seed demo data: %w", err)
			}
		}
		tables, transport, configured = mem, mem, true
	case "", config.BackendREST:
		client := rest.New(cfg.REST)
		tables, transport, configured = client, client, client.Configured()
	default:
		_ = store.Close()
		return nil, errors.New("invalid Backend: must be 'rest' or 'memory'")
	}

	app := newWithDependencies(store, tables, transport, configured, clk, rnd, cfg, logger)
	app.Memory = mem
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	tables backend.Tables,
	transport backend.AuthTransport,
	configured bool,
	clk clock.Clock,
	rnd random.Random,
	cfg Config,
	logger *slog.Logger,
) *App {
	metrics := observability.New()
	tables = observability.InstrumentTables(tables, metrics)

	auth := backend.NewAuth(transport, store, clk, logger)
	auth.OnAuthStateChange(metrics.RecordAuthChange)

	sessionCfg := cfg.Session
	if sessionCfg.Policy.OperatorEmail == "" && sessionCfg.Policy.AdminRole == "" {
		sessionCfg.Policy = model.DefaultPrivilegePolicy()
	}
	if sessionCfg.Normalizer.Domain == "" {
		sessionCfg.Normalizer.Domain = session.DefaultDomain
	}

	sessions := session.NewManager(auth, sessionCfg, clk, logger)
	sessions.Start()

	catalogService := catalog.New(tables)
	planService := plan.New(tables, catalogService, clk, logger)
	consoleService := console.New(tables, catalogService, logger)

	interval := cfg.TickInterval
	if interval <= 0 {
		interval = sse.DefaultTickInterval
	}
	hubManager := sse.NewHubManager(clk, interval, logger)
	hubManager.SetObserver(metrics)

	return &App{
		Storage:    store,
		Clock:      clk,
		Random:     rnd,
		Backend:    backend.NewClient(tables, auth, configured),
		Sessions:   sessions,
		Catalog:    catalogService,
		Plans:      planService,
		Console:    consoleService,
		HubManager: hubManager,
		Metrics:    metrics,
	}
}

// Close stops background work and releases the session storage
func (a *App) Close() error {
	a.HubManager.Close()
	a.Sessions.Close()
	return a.Storage.Close()
}
