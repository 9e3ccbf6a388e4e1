// Package config reads the server configuration from the environment.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quijoterun/tracker/internal/model"
)

// Backend kinds
const (
	BackendREST   = "rest"
	BackendMemory = "memory"
)

// Config captures runtime configuration values for the server.
type Config struct {
	HTTPAddress string
	LogLevel    slog.Level

	// Backend selects the data and auth backend ("rest" or "memory")
	Backend         string
	SupabaseURL     string
	SupabaseAnonKey string
	BackendTimeout  time.Duration
	// JWTSecret verifies access tokens when set; the memory backend also signs with it
	JWTSecret string

	// StorageType selects where browser sessions are kept ("memory" or "redis")
	StorageType string
	RedisURL    string
	SessionTTL  time.Duration
	SessionIdle time.Duration

	OperatorEmail    string
	OperatorPassword string
	AdminRole        string
	UsernameDomain   string

	// SeedDemo loads demo events into the memory backend
	SeedDemo bool

	// CSRFKey is the hex-encoded 32 byte key for form protection; empty disables it
	CSRFKey        string
	TrustedOrigins []string
	SecureCookies  bool
}

// Load reads environment variables into Config, applying defaults for local dev.
func Load() Config {
	return Config{
		HTTPAddress:      getEnv("HTTP_ADDRESS", ":8080"),
		LogLevel:         getLevelEnv("LOG_LEVEL", slog.LevelInfo),
		Backend:          getEnv("BACKEND", BackendREST),
		SupabaseURL:      getEnv("SUPABASE_URL", getEnv("VITE_SUPABASE_URL", "")),
		SupabaseAnonKey:  getEnv("SUPABASE_ANON_KEY", getEnv("VITE_SUPABASE_ANON_KEY", "")),
		BackendTimeout:   getDurationEnv("BACKEND_TIMEOUT", 30*time.Second),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		StorageType:      getEnv("STORAGE_TYPE", "memory"),
		RedisURL:         getEnv("REDIS_URL", ""),
		SessionTTL:       getDurationEnv("SESSION_TTL", 7*24*time.Hour),
		SessionIdle:      getDurationEnv("SESSION_IDLE", 24*time.Hour),
		OperatorEmail:    getEnv("OPERATOR_EMAIL", model.DefaultOperatorEmail),
		OperatorPassword: getEnv("OPERATOR_PASSWORD", ""),
		AdminRole:        getEnv("ADMIN_ROLE", model.DefaultAdminRole),
		UsernameDomain:   getEnv("USERNAME_DOMAIN", "quijoterun.com"),
		SeedDemo:         getBoolEnv("SEED_DEMO", true),
		CSRFKey:          getEnv("CSRF_KEY", ""),
		TrustedOrigins:   getListEnv("TRUSTED_ORIGINS"),
		SecureCookies:    getBoolEnv("SECURE_COOKIES", false),
	}
}

// Validate reports settings that cannot work together
func (c Config) Validate() error {
	switch c.Backend {
	case BackendREST, BackendMemory:
	default:
		return fmt.Errorf("invalid BACKEND %q: must be %q or %q", c.Backend, BackendREST, BackendMemory)
	}
	if c.StorageType == "redis" && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL required when STORAGE_TYPE=redis")
	}
	if _, err := c.CSRFKeyBytes(); err != nil {
		return err
	}
	return nil
}

// Policy returns the privilege policy built from the operator settings
func (c Config) Policy() model.PrivilegePolicy {
	return model.PrivilegePolicy{
		OperatorEmail: c.OperatorEmail,
		AdminRole:     c.AdminRole,
	}
}

// CSRFKeyBytes decodes CSRFKey. It returns nil when no key is set.
func (c Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.CSRFKey)
	if err != nil || len(key) != 32 {
		return nil, fmt.Errorf("CSRF_KEY must be 64 hex characters (32 bytes)")
	}
	return key, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getListEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getLevelEnv(key string, fallback slog.Level) slog.Level {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.ToUpper(value))); err == nil {
			return level
		}
	}
	return fallback
}
