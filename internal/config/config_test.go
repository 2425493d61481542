package config

import (
	"testing"
	"time"

	"github.com/dimitrije/capacity-planner/internal/capacity"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendFile, cfg.StorageBackend)
	assert.Equal(t, "data/db.json", cfg.DataFile)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 200*time.Millisecond, cfg.SaveDebounce)
	assert.Equal(t, persist.DefaultPolicy(), cfg.SavePolicy)
	assert.Equal(t, capacity.DefaultThresholds, cfg.Thresholds)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/planner")
	t.Setenv("SAVE_DEBOUNCE", "1s")
	t.Setenv("SAVE_POLICY_UPDATE", "Immediate")
	t.Setenv("SAVE_POLICY_DELETE", "debounced")
	t.Setenv("UNDER_THRESHOLD", "60")
	t.Setenv("OVER_THRESHOLD", "110.5")
	t.Setenv("THRESHOLD_MODE", "absolute")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, BackendPostgres, cfg.StorageBackend)
	assert.Equal(t, time.Second, cfg.SaveDebounce)
	assert.Equal(t, persist.Immediate, cfg.SavePolicy.For(persist.Create))
	assert.Equal(t, persist.Immediate, cfg.SavePolicy.For(persist.Update))
	assert.Equal(t, persist.Debounced, cfg.SavePolicy.For(persist.Delete))
	assert.Equal(t, capacity.Thresholds{Under: 60, Over: 110.5, Mode: capacity.Absolute}, cfg.Thresholds)
}

func TestLoad_InvalidDebounceFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("SAVE_DEBOUNCE", "soon")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, persist.DefaultDelay, cfg.SaveDebounce)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		error string
	}{
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "redis"}, "unknown STORAGE_BACKEND"},
		{"postgres without url", map[string]string{"STORAGE_BACKEND": "postgres"}, "DATABASE_URL is required"},
		{"bad policy", map[string]string{"SAVE_POLICY_CREATE": "later"}, "SAVE_POLICY_CREATE"},
		{"bad threshold", map[string]string{"UNDER_THRESHOLD": "low"}, "UNDER_THRESHOLD"},
		{"inverted thresholds", map[string]string{"UNDER_THRESHOLD": "120"}, "must not exceed"},
		{"bad mode", map[string]string{"THRESHOLD_MODE": "sideways"}, "THRESHOLD_MODE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.error)
		})
	}
}

func TestLoad_MissingSecretPanics(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	assert.PanicsWithValue(t, "required environment variable not set: JWT_SECRET", func() {
		_, _ = Load()
	})
}
