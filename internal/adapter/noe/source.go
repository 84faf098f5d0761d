package noe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/windgrid/gis-assets-etl/internal/domain"
	"github.com/windgrid/gis-assets-etl/internal/observability"
)

// Source fetches and normalizes the permitting dataset. It implements
// pipeline.Source.
type Source struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewSource creates the permitting dataset source. metrics may be nil.
func NewSource(url string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Source {
	return &Source{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// Name returns the dataset name used for output files.
func (s *Source) Name() string { return DatasetName }

// Fetch downloads the GeoJSON export and normalizes it into the fixed
// permitting schema.
func (s *Source) Fetch(ctx context.Context) (*domain.Dataset, error) {
	fc, err := s.download(ctx)
	if err != nil {
		return nil, err
	}

	ds, stats, err := Normalize(fc)
	if err != nil {
		return nil, err
	}

	for _, key := range stats.DuplicateKeys {
		s.logger.Warn("duplicate permitting key dropped", "key", key)
	}
	if s.metrics != nil && len(stats.DuplicateKeys) > 0 {
		s.metrics.DuplicatesDropped.WithLabelValues(DatasetName).Add(float64(len(stats.DuplicateKeys)))
	}
	s.logger.Info("permitting dataset normalized",
		"features", stats.Features,
		"records", stats.Records,
		"duplicates_dropped", len(stats.DuplicateKeys),
	)

	return ds, nil
}

func (s *Source) download(ctx context.Context) (*geojson.FeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &domain.RetrievalError{Op: "build dataset request", URL: s.url, Err: err}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &domain.RetrievalError{Op: "fetch permitting dataset", URL: s.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.RetrievalError{
			Op:  "fetch permitting dataset",
			URL: s.url,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.RetrievalError{Op: "read permitting dataset", URL: s.url, Err: err}
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, &domain.RetrievalError{Op: "decode permitting dataset", URL: s.url, Err: err}
	}
	if len(fc.Features) == 0 {
		return nil, &domain.RetrievalError{
			Op:  "decode permitting dataset",
			URL: s.url,
			Err: fmt.Errorf("feature collection is empty"),
		}
	}
	return &fc, nil
}
