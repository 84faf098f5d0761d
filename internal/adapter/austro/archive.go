package austro

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/windgrid/gis-assets-etl/internal/domain"
)

// fetchArchiveXML downloads the zip archive at url and returns the bytes of
// its single XML member. The archive contract is strict: zero or multiple XML
// members mean the source changed shape, and nothing is cached in that case.
func fetchArchiveXML(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.RetrievalError{Op: "build dataset request", URL: url, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.RetrievalError{Op: "fetch dataset archive", URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.RetrievalError{
			Op:  "fetch dataset archive",
			URL: url,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.RetrievalError{Op: "read dataset archive", URL: url, Err: err}
	}

	return extractSingleXML(raw, url)
}

func extractSingleXML(archive []byte, url string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, &domain.RetrievalError{Op: "open dataset archive", URL: url, Err: err}
	}

	var xmlFiles []*zip.File
	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".xml") {
			xmlFiles = append(xmlFiles, f)
		}
	}
	if len(xmlFiles) != 1 {
		return nil, &domain.RetrievalError{
			Op:  "extract dataset archive",
			URL: url,
			Err: fmt.Errorf("expected exactly one XML member, found %d", len(xmlFiles)),
		}
	}

	rc, err := xmlFiles[0].Open()
	if err != nil {
		return nil, &domain.RetrievalError{Op: "extract dataset archive", URL: url, Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &domain.RetrievalError{Op: "extract dataset archive", URL: url, Err: err}
	}
	return data, nil
}
