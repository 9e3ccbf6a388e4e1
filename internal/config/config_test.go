package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_ADDRESS", "BACKEND", "SUPABASE_URL", "VITE_SUPABASE_URL", "SUPABASE_ANON_KEY",
		"VITE_SUPABASE_ANON_KEY", "STORAGE_TYPE", "OPERATOR_EMAIL", "ADMIN_ROLE", "SEED_DEMO", "CSRF_KEY",
		"SESSION_TTL", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTPAddress)
	assert.Equal(t, BackendREST, cfg.Backend)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, "admin@quijoterun.com", cfg.OperatorEmail)
	assert.Equal(t, "admin", cfg.AdminRole)
	assert.Equal(t, "quijoterun.com", cfg.UsernameDomain)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.True(t, cfg.SeedDemo)
	assert.Empty(t, cfg.SupabaseURL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ViteFallback(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")
	t.Setenv("VITE_SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("VITE_SUPABASE_ANON_KEY", "anon")

	cfg := Load()

	assert.Equal(t, "https://abc.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "anon", cfg.SupabaseAnonKey)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://primary.supabase.co")
	t.Setenv("VITE_SUPABASE_URL", "https://ignored.supabase.co")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SEED_DEMO", "false")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OPERATOR_EMAIL", "coach@example.com")

	cfg := Load()

	assert.Equal(t, "https://primary.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.SeedDemo)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "coach@example.com", cfg.Policy().OperatorEmail)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("SEED_DEMO", "maybe")
	t.Setenv("LOG_LEVEL", "loud")

	cfg := Load()

	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.SeedDemo)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"unknown backend", func(c *Config) { c.Backend = "sqlite" }, "invalid BACKEND"},
		{"redis without url", func(c *Config) { c.StorageType = "redis" }, "REDIS_URL required"},
		{"short csrf key", func(c *Config) { c.CSRFKey = "abcd" }, "CSRF_KEY"},
		{"non hex csrf key", func(c *Config) { c.CSRFKey = "zz" }, "CSRF_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Backend: BackendMemory, StorageType: "memory"}
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCSRFKeyBytes(t *testing.T) {
	cfg := Config{CSRFKey: "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"}

	key, err := cfg.CSRFKeyBytes()

	require.NoError(t, err)
	assert.Len(t, key, 32)
	assert.Equal(t, byte(0x1f), key[31])

	key, err = Config{}.CSRFKeyBytes()
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestLoad_TrustedOrigins(t *testing.T) {
	t.Setenv("TRUSTED_ORIGINS", " run.example.com, ,app.example.com")
	t.Setenv("SECURE_COOKIES", "true")

	cfg := Load()

	assert.Equal(t, []string{"run.example.com", "app.example.com"}, cfg.TrustedOrigins)
	assert.True(t, cfg.SecureCookies)
}
