package config

import (
	"os"
	"path/filepath"
	"testing"

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
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "sitescore.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://geocoding.geo.census.gov/geocoder", cfg.Geocode.BaseURL)
	assert.Equal(t, "Public_AR_Current", cfg.Geocode.Benchmark)
	assert.Equal(t, 3, cfg.Geocode.MaxAttempts)
	assert.Equal(t, 500, cfg.Geocode.InitialBackoffMs)
	assert.Equal(t, 5, cfg.Geocode.BreakerThreshold)
	assert.Equal(t, "data", cfg.Datasets.Dir)
	assert.Equal(t, "designations.csv", cfg.Datasets.Designations)
	assert.Equal(t, "counties.yaml", cfg.Datasets.Counties)
	assert.Equal(t, "utf-8", cfg.Datasets.Encoding)
	assert.InDelta(t, 1.0, cfg.Rules.OneMileRadius, 0.001)
	assert.InDelta(t, 2.0, cfg.Rules.TwoMileRadius, 0.001)
	assert.Equal(t, 3, cfg.Rules.LookbackYears)
	assert.Zero(t, cfg.Rules.CycleYear)
	assert.InDelta(t, 25, cfg.Scoring.HighDensityMinPerAcre, 0.001)
	assert.InDelta(t, 0.090, cfg.Scoring.ExceptionalRatio, 0.0001)
	assert.InDelta(t, 0.085, cfg.Scoring.HighPotentialRatio, 0.0001)
	assert.InDelta(t, 0.078, cfg.Scoring.GoodRatio, 0.0001)
	assert.InDelta(t, 1450, cfg.Viability.DefaultRentMonthly, 0.001)
	assert.InDelta(t, 0.05, cfg.Viability.VacancyRate, 0.001)
	assert.InDelta(t, 0.38, cfg.Viability.OpexRatio, 0.001)
	assert.InDelta(t, 215000, cfg.Viability.ConstructionPerUnitUSD, 0.001)
	assert.InDelta(t, 0.40, cfg.Viability.BasisEquityShare, 0.001)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.Equal(t, 25, cfg.Batch.ProgressInterval)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/sitescore
log:
  level: debug
  format: console
rules:
  lookback_years: 5
  cycle_year: 2026
batch:
  concurrency: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sitescore.yaml"), []byte(yaml), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/sitescore", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Rules.LookbackYears)
	assert.Equal(t, 2026, cfg.Rules.CycleYear)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Geocode.MaxAttempts)
	assert.InDelta(t, 1.0, cfg.Rules.OneMileRadius, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
rules:
  lookback_years: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sitescore.yaml"), []byte(yaml), 0644))
	t.Setenv("SITESCORE_RULES_LOOKBACK_YEARS", "2")
	t.Setenv("SITESCORE_GEOCODE_MAX_ATTEMPTS", "6")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Rules.LookbackYears)
	assert.Equal(t, 6, cfg.Geocode.MaxAttempts)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()

	yaml := `
rules:
  cycle_year: 2027
`
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2027, cfg.Rules.CycleYear)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sitescore.yaml"), []byte("rules: ["), 0644))

	_, err := Load("")
	require.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
		assert.NotNil(t, zap.L())
	})

	t.Run("console format", func(t *testing.T) {
		require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
		assert.NotNil(t, zap.L())
	})

	t.Run("bad level", func(t *testing.T) {
		require.Error(t, InitLogger(LogConfig{Level: "shouty", Format: "json"}))
	})
}
