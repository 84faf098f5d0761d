package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv pins every config variable to unset so ambient runner environment
// cannot leak into default-value tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OUTPUT_DIR", "CACHE_DIR", "HTTP_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
		"METRICS_ADDR", "AUSTRO_CATALOG_URL", "AUSTRO_LIST_INDEX",
		"AUSTRO_OVERWRITE", "NOE_GEOJSON_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.OutputDir)
	assert.Equal(t, "data", cfg.CacheDir)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, defaultCatalogURL, cfg.AustroCatalogURL)
	assert.Equal(t, 0, cfg.AustroListIndex)
	assert.False(t, cfg.AustroOverwrite)
	assert.Equal(t, defaultNOEURL, cfg.NOEGeoJSONURL)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/srv/assets")
	t.Setenv("CACHE_DIR", "/tmp/scratch")
	t.Setenv("HTTP_TIMEOUT", "2m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("METRICS_ADDR", ":9091")
	t.Setenv("AUSTRO_CATALOG_URL", "https://example.test/catalog")
	t.Setenv("AUSTRO_LIST_INDEX", "2")
	t.Setenv("AUSTRO_OVERWRITE", "true")
	t.Setenv("NOE_GEOJSON_URL", "https://example.test/wka.geojson")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/assets", cfg.OutputDir)
	assert.Equal(t, "/tmp/scratch", cfg.CacheDir)
	assert.Equal(t, 2*time.Minute, cfg.HTTPTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":9091", cfg.MetricsAddr)
	assert.Equal(t, "https://example.test/catalog", cfg.AustroCatalogURL)
	assert.Equal(t, 2, cfg.AustroListIndex)
	assert.True(t, cfg.AustroOverwrite)
	assert.Equal(t, "https://example.test/wka.geojson", cfg.NOEGeoJSONURL)
}

func TestLoad_CacheDirFollowsOutputDir(t *testing.T) {
	clearEnv(t)
	t.Setenv("OUTPUT_DIR", "/srv/assets")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/assets", cfg.CacheDir)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad timeout", "HTTP_TIMEOUT", "soon"},
		{"negative timeout", "HTTP_TIMEOUT", "-5s"},
		{"bad list index", "AUSTRO_LIST_INDEX", "first"},
		{"negative list index", "AUSTRO_LIST_INDEX", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
