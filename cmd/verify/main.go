// Command verify performs offline integrity checks on a written data
// directory: it reads each dataset's GeoJSON output back, recomputes the
// content fingerprint, and compares it against the sidecar .hash file.
//
// Usage:
//
//	go run ./cmd/verify -data-dir data
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/windgrid/gis-assets-etl/internal/adapter/austro"
	"github.com/windgrid/gis-assets-etl/internal/adapter/noe"
	"github.com/windgrid/gis-assets-etl/internal/domain"
	"github.com/windgrid/gis-assets-etl/internal/geofile"
)

// datasetSpec names one dataset's files and schema.
type datasetSpec struct {
	name   string
	schema []domain.Column
}

var specs = []datasetSpec{
	{name: austro.DatasetName, schema: austro.Columns()},
	{name: noe.DatasetName, schema: noe.Schema()},
}

// phase tracks pass/fail for one dataset's checks.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "data", "directory containing output and hash files")
	flag.Parse()

	failed := false
	for _, spec := range specs {
		p := verifyDataset(*dataDir, spec)
		if p.passed() {
			fmt.Printf("PASS %s\n", p.name)
			continue
		}
		failed = true
		fmt.Printf("FAIL %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	if failed {
		os.Exit(1)
	}
}

func verifyDataset(dataDir string, spec datasetSpec) *phase {
	p := &phase{name: spec.name}

	geojsonPath := filepath.Join(dataDir, spec.name+".geojson")
	hashPath := filepath.Join(dataDir, spec.name+".hash")

	if _, err := os.Stat(geojsonPath); os.IsNotExist(err) {
		p.errorf("missing output file %s", geojsonPath)
		return p
	}

	ds, err := geofile.ReadGeoJSON(geojsonPath, spec.name, spec.schema)
	if err != nil {
		p.errorf("read back failed: %v", err)
		return p
	}
	if len(ds.Rows) == 0 {
		p.errorf("output file %s has no features", geojsonPath)
	}

	stored, err := os.ReadFile(hashPath)
	if err != nil {
		p.errorf("read hash file: %v", err)
		return p
	}

	computed := domain.Fingerprint(ds)
	if got := strings.TrimSpace(string(stored)); got != computed {
		p.errorf("fingerprint mismatch: hash file has %s, recomputed %s", got, computed)
	}
	return p
}
