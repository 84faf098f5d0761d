package austro

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/windgrid/gis-assets-etl/internal/domain"
	"github.com/windgrid/gis-assets-etl/internal/observability"
)

// Config holds the source settings.
type Config struct {
	CatalogURL string
	CacheDir   string
	ListIndex  int  // which catalog publication to use, 0 = newest
	Overwrite  bool // refetch even when a cached file exists
	Timeout    time.Duration
}

// Source fetches and parses the obstacle dataset. It implements
// pipeline.Source; the scratch cache file it writes is single-run state,
// removed via Cleanup after a successful run.
type Source struct {
	cfg        Config
	catalog    *Catalog
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics

	scratch string
}

// NewSource creates the obstacle dataset source. metrics may be nil.
func NewSource(cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Source {
	return &Source{
		cfg:        cfg,
		catalog:    NewCatalog(cfg.CatalogURL, cfg.Timeout, logger),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// Name returns the dataset name used for output files.
func (s *Source) Name() string { return DatasetName }

// Fetch resolves the configured catalog publication, obtains its XML (from
// the scratch cache when present, otherwise from the zipped download), and
// parses it into the obstacle dataset.
func (s *Source) Fetch(ctx context.Context) (*domain.Dataset, error) {
	links, err := s.catalog.Links(ctx)
	if err != nil {
		return nil, err
	}
	if s.cfg.ListIndex >= len(links) {
		return nil, &domain.RetrievalError{
			Op:  "select publication",
			URL: s.cfg.CatalogURL,
			Err: fmt.Errorf("list index %d out of range, catalog has %d publications", s.cfg.ListIndex, len(links)),
		}
	}
	link := links[s.cfg.ListIndex]

	s.logger.Info("requesting obstacle dataset", "publication", link.Publication, "url", link.URL)

	data, err := s.obtainXML(ctx, link)
	if err != nil {
		return nil, err
	}

	ds, stats, err := ParseICAO(data, link.Publication)
	if err != nil {
		return nil, err
	}

	for code, n := range stats.UnmappedStatus {
		s.logger.Warn("unmapped construction status passed through", "status", code, "records", n)
		if s.metrics != nil {
			s.metrics.UnmappedStatus.Add(float64(n))
		}
	}
	s.logger.Info("obstacle dataset parsed",
		"structures", stats.Structures,
		"records", stats.Records,
		"publication", link.Publication,
	)

	return ds, nil
}

// obtainXML reads the publication's XML from the scratch cache when a
// non-empty file exists and overwrite is off; otherwise it downloads the
// archive, extracts the XML, and persists it to the scratch path.
func (s *Source) obtainXML(ctx context.Context, link PublicationLink) ([]byte, error) {
	path := filepath.Join(s.cfg.CacheDir, expectedFileName(link.URL))

	if !s.cfg.Overwrite {
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			s.logger.Info("using existing file", "path", path)
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, &domain.RetrievalError{Op: "read cached dataset", URL: path, Err: err}
			}
			s.scratch = path
			return data, nil
		}
	}

	data, err := fetchArchiveXML(ctx, s.httpClient, link.URL)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, &domain.RetrievalError{Op: "persist dataset scratch file", URL: path, Err: err}
	}
	s.scratch = path
	return data, nil
}

// Cleanup removes the scratch cache file. Missing files are not an error;
// the scratch is best-effort single-run state.
func (s *Source) Cleanup() error {
	if s.scratch == "" {
		return nil
	}
	if err := os.Remove(s.scratch); err != nil && !os.IsNotExist(err) {
		return err
	}
	s.scratch = ""
	return nil
}

// expectedFileName derives the scratch file name from the URL's embedded
// dataset identifier, e.g. ".../LO_OBS_DS_AREA1_20240418_XML.zip" ->
// "LO_OBS_DS_AREA1_20240418.xml".
func expectedFileName(url string) string {
	base := filepath.Base(url)
	if _, rest, found := strings.Cut(base, fileToken); found {
		date, _, _ := strings.Cut(rest, "_")
		return fileToken + date + ".xml"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".xml"
}
