package austro

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windgrid/gis-assets-etl/internal/domain"
)

const catalogPage = `<html><body>
<h2>Downloads</h2>
<table class="download_liste">
  <tr><td><a href="../downloads/LO_OBS_DS_AREA1_20240321_XML.zip">21.03.2024</a></td></tr>
  <tr><td><a href="../downloads/LO_OBS_DS_AREA1_20240418_XML.zip">18.04.2024</a></td></tr>
  <tr><td><a href="../downloads/terms.pdf">Nutzungsbedingungen</a></td></tr>
</table>
</body></html>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseCatalog(t *testing.T) {
	links, err := parseCatalog(strings.NewReader(catalogPage))
	require.NoError(t, err)
	require.Len(t, links, 2)

	// Newest publication first.
	assert.Equal(t, "20240418", links[0].Publication)
	assert.Equal(t, "20240321", links[1].Publication)
	assert.Equal(t, baseURL+"../downloads/LO_OBS_DS_AREA1_20240418_XML.zip", links[0].URL)
}

func TestParseCatalog_MissingTable(t *testing.T) {
	page := `<html><body><table class="sonstiges"><tr><td>x</td></tr></table></body></html>`

	_, err := parseCatalog(strings.NewReader(page))
	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Detail, "download_liste")
}

func TestParseCatalog_NoDatasetLinks(t *testing.T) {
	page := `<html><body>
<table class="download_liste">
  <tr><td><a href="../downloads/readme.pdf">Hinweise</a></td></tr>
</table>
</body></html>`

	_, err := parseCatalog(strings.NewReader(page))
	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestCatalogLinks_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	catalog := NewCatalog(srv.URL, time.Second, discardLogger())
	_, err := catalog.Links(context.Background())

	var retrievalErr *domain.RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, "fetch catalog", retrievalErr.Op)
}

func TestExpectedFileName(t *testing.T) {
	assert.Equal(t, "LO_OBS_DS_AREA1_20240418.xml",
		expectedFileName("https://example.test/downloads/LO_OBS_DS_AREA1_20240418_XML.zip"))
	assert.Equal(t, "other.xml", expectedFileName("https://example.test/other.zip"))
}
