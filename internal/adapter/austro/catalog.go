// Package austro ingests the Austro Control "Hindernisdatensatz (ICAO)"
// obstacle dataset: it resolves download links from the catalog page, fetches
// the zipped AIXM XML export, and parses wind-turbine obstacle records into a
// normalized dataset.
package austro

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/windgrid/gis-assets-etl/internal/domain"
)

const (
	// baseURL is prepended to the relative hrefs in the catalog table.
	baseURL = "https://www.austrocontrol.at/jart/prj3/ac/"

	// fileToken precedes the 8-digit publication date in every dataset
	// file name, e.g. LO_OBS_DS_AREA1_20240418_XML.zip.
	fileToken = "LO_OBS_DS_AREA1_"

	// catalogTableClass marks the download table on the catalog page.
	catalogTableClass = "download_liste"
)

// PublicationLink is one downloadable dataset publication.
type PublicationLink struct {
	Publication string // 8-digit date token, e.g. "20240418"
	URL         string
}

// Catalog resolves the list of available obstacle dataset publications.
type Catalog struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewCatalog creates a catalog resolver for the given catalog page URL.
func NewCatalog(url string, timeout time.Duration, logger *slog.Logger) *Catalog {
	return &Catalog{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Links fetches the catalog page and returns its publications sorted
// descending by publication date, newest first.
func (c *Catalog) Links(ctx context.Context) ([]PublicationLink, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &domain.RetrievalError{Op: "build catalog request", URL: c.url, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.RetrievalError{Op: "fetch catalog", URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.RetrievalError{
			Op:  "fetch catalog",
			URL: c.url,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	links, err := parseCatalog(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("catalog resolved", "publications", len(links), "newest", links[0].Publication)
	return links, nil
}

// parseCatalog extracts publication links from the catalog page HTML.
func parseCatalog(r io.Reader) ([]PublicationLink, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, &domain.SchemaError{Dataset: DatasetName, Detail: "unparseable catalog page", Err: err}
	}

	table := findTable(doc, catalogTableClass)
	if table == nil {
		return nil, &domain.SchemaError{
			Dataset: DatasetName,
			Detail:  fmt.Sprintf("catalog page has no %q table", catalogTableClass),
		}
	}

	var links []PublicationLink
	for _, href := range collectHrefs(table) {
		url := href
		if !strings.HasPrefix(url, "http") {
			url = baseURL + url
		}
		_, rest, found := strings.Cut(url, fileToken)
		if !found {
			continue
		}
		pub, _, _ := strings.Cut(rest, "_")
		links = append(links, PublicationLink{Publication: pub, URL: url})
	}

	if len(links) == 0 {
		return nil, &domain.SchemaError{Dataset: DatasetName, Detail: "catalog table contains no dataset links"}
	}

	sort.Slice(links, func(i, j int) bool {
		return links[i].Publication > links[j].Publication
	})
	return links, nil
}

// findTable walks the node tree for the first <table> whose class attribute
// contains the given class.
func findTable(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == "table" {
		for _, attr := range n.Attr {
			if attr.Key == "class" && containsClass(attr.Val, class) {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTable(c, class); found != nil {
			return found
		}
	}
	return nil
}

func containsClass(attr, class string) bool {
	for _, c := range strings.Fields(attr) {
		if c == class {
			return true
		}
	}
	return false
}

// collectHrefs gathers the href values of all anchors below n in document order.
func collectHrefs(n *html.Node) []string {
	var hrefs []string
	if n.Type == html.ElementNode && n.Data == "a" {
		for _, attr := range n.Attr {
			if attr.Key == "href" && attr.Val != "" {
				hrefs = append(hrefs, attr.Val)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		hrefs = append(hrefs, collectHrefs(c)...)
	}
	return hrefs
}
