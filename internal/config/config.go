package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for the two upstream sources. Both are open government data
// endpoints; overridable for tests and mirror deployments.
const (
	defaultCatalogURL = "https://www.austrocontrol.at/piloten/vor_dem_flug/aim_produkte/hindernisdatensaetze_icao"
	defaultNOEURL     = "https://gis.noe.gv.at/gisdata/ogd/windkraftanlagen.geojson"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	OutputDir   string
	CacheDir    string
	HTTPTimeout time.Duration
	LogLevel    string
	LogFormat   string

	// MetricsAddr enables the /metrics listener when non-empty. Scheduled
	// one-shot runs normally leave it unset.
	MetricsAddr string

	AustroCatalogURL string
	AustroListIndex  int
	AustroOverwrite  bool

	NOEGeoJSONURL string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	httpTimeout, err := parseDuration("HTTP_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}

	listIndex, err := parseInt("AUSTRO_LIST_INDEX", 0)
	if err != nil {
		return nil, err
	}

	outputDir := envOrDefault("OUTPUT_DIR", "data")

	cfg := &Config{
		OutputDir:   outputDir,
		CacheDir:    envOrDefault("CACHE_DIR", outputDir),
		HTTPTimeout: httpTimeout,
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogFormat:   envOrDefault("LOG_FORMAT", "text"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),

		AustroCatalogURL: envOrDefault("AUSTRO_CATALOG_URL", defaultCatalogURL),
		AustroListIndex:  listIndex,
		AustroOverwrite:  os.Getenv("AUSTRO_OVERWRITE") == "true",

		NOEGeoJSONURL: envOrDefault("NOE_GEOJSON_URL", defaultNOEURL),
	}

	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.AustroCatalogURL == "" {
		return nil, errors.New("AUSTRO_CATALOG_URL is required")
	}
	if cfg.NOEGeoJSONURL == "" {
		return nil, errors.New("NOE_GEOJSON_URL is required")
	}
	if cfg.AustroListIndex < 0 {
		return nil, errors.New("AUSTRO_LIST_INDEX must not be negative")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
