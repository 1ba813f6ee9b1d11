package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("data", "marine-navigator.db"), cfg.Data.DBPath)
	assert.Equal(t, "https://overpass-api.de/api/interpreter", cfg.Overpass.URL)
	assert.Equal(t, 30*time.Second, cfg.Overpass.Timeout())
	assert.InDelta(t, 1.0, cfg.Overpass.RequestsPerSecond, 1e-9)
	assert.Equal(t, "https://nominatim.openstreetmap.org/search", cfg.Nominatim.URL)
	assert.Contains(t, cfg.UserAgent, "MarineNavigator")
	assert.InDelta(t, 2.0, cfg.Vessel.DraftMeters, 1e-9)
	assert.InDelta(t, 500, cfg.Vessel.SafetyMarginMeters, 1e-9)
	assert.InDelta(t, 5, cfg.Vessel.AverageSpeedKnots, 1e-9)
	assert.InDelta(t, 0.1, cfg.Navigation.ArrivalThresholdNM, 1e-9)
	assert.InDelta(t, 0.5, cfg.Navigation.ApproachThresholdNM, 1e-9)
	assert.InDelta(t, 45, cfg.Navigation.CourseDeviationDegrees, 1e-9)
	assert.InDelta(t, 0.5, cfg.Navigation.LowSpeedKnots, 1e-9)
	assert.Equal(t, 5, cfg.Navigation.AlertLogSize)
	assert.Equal(t, 7*24*time.Hour, cfg.Hazards.CacheMaxAge())
	assert.Equal(t, "@every 6h", cfg.Hazards.PruneSchedule)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Log.File)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
vessel:
  draft_meters: 1.2
navigation:
  course_deviation_degrees: 30
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 1.2, cfg.Vessel.DraftMeters, 1e-9)
	assert.InDelta(t, 30, cfg.Navigation.CourseDeviationDegrees, 1e-9)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.InDelta(t, 500, cfg.Vessel.SafetyMarginMeters, 1e-9)
}

func TestLoadFromHomeDirectory(t *testing.T) {
	home := chdirTemp(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".marine-navigator"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".marine-navigator", "config.yaml"),
		[]byte("vessel:\n  average_speed_knots: 7\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.InDelta(t, 7, cfg.Vessel.AverageSpeedKnots, 1e-9)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0644))
	t.Setenv("MARINE_NAV_LOG_LEVEL", "warn")
	t.Setenv("MARINE_NAV_VESSEL_DRAFT_METERS", "3.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.InDelta(t, 3.5, cfg.Vessel.DraftMeters, 1e-9)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MARINE_NAV_HAZARDS_PRUNE_SCHEDULE=@hourly\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("MARINE_NAV_HAZARDS_PRUNE_SCHEDULE") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "@hourly", cfg.Hazards.PruneSchedule)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("vessel: [unterminated"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "navigator.log")
	logger, err := NewLogger(LogConfig{Level: "info", Format: "json", File: path})
	require.NoError(t, err)

	logger.Info("hello", zap.String("who", "sailor"))
	logger.Debug("filtered")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"who":"sailor"`)
	assert.NotContains(t, string(data), "filtered")
}
