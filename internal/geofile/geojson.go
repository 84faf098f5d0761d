// Package geofile persists normalized datasets to standard geodata file
// formats (GeoJSON and GPKG) and reads GeoJSON back for offline verification.
package geofile

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/windgrid/gis-assets-etl/internal/domain"
)

// crsURN names EPSG:4326 the way GDAL-produced GeoJSON does.
const crsURN = "urn:ogc:def:crs:EPSG::4326"

type crsDoc struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

type featureCollectionDoc struct {
	Type     string             `json:"type"`
	Name     string             `json:"name"`
	CRS      *crsDoc            `json:"crs,omitempty"`
	Features []*geojson.Feature `json:"features"`
}

// GeoJSONWriter persists a dataset as a GeoJSON feature collection. Output is
// indented so diffs stay readable in a version-controlled data repository.
type GeoJSONWriter struct{}

func (GeoJSONWriter) Format() string { return "GeoJSON" }
func (GeoJSONWriter) Ext() string    { return ".geojson" }

func (GeoJSONWriter) Write(ds *domain.Dataset, path string) error {
	doc := featureCollectionDoc{
		Type:     "FeatureCollection",
		Name:     ds.Name,
		CRS:      &crsDoc{Type: "name"},
		Features: make([]*geojson.Feature, 0, len(ds.Rows)),
	}
	doc.CRS.Properties.Name = crsURN

	for _, row := range ds.Rows {
		props := make(map[string]any, len(ds.Columns))
		for i, col := range ds.Columns {
			props[col.Name] = propertyValue(row.Cells[i])
		}
		doc.Features = append(doc.Features, &geojson.Feature{
			Geometry:   row.Geometry,
			Properties: props,
		})
	}

	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s geojson: %w", ds.Name, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s geojson: %w", ds.Name, err)
	}
	return nil
}

// propertyValue maps a cell to its GeoJSON property representation.
func propertyValue(v domain.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind {
	case domain.KindFloat:
		return v.Num
	case domain.KindInt:
		return v.Int
	case domain.KindDate:
		return v.Date.Format(domain.DateLayout)
	default:
		return v.Str
	}
}

// ReadGeoJSON reads a previously written GeoJSON file back into a dataset
// with the given schema. Used by the verify tool and round-trip tests.
func ReadGeoJSON(path, name string, schema []domain.Column) (*domain.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc featureCollectionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	ds := domain.NewDataset(name, schema)
	for _, f := range doc.Features {
		point, ok := f.Geometry.(*geom.Point)
		if !ok || point == nil {
			return nil, fmt.Errorf("%s: feature geometry is %T, want point", path, f.Geometry)
		}
		cells := make([]domain.Value, len(schema))
		for i, col := range schema {
			v, err := fileValue(col, f.Properties[col.Name])
			if err != nil {
				return nil, fmt.Errorf("%s: column %q: %w", path, col.Name, err)
			}
			cells[i] = v
		}
		ds.Rows = append(ds.Rows, domain.Row{Cells: cells, Geometry: point})
	}
	return ds, nil
}

// fileValue decodes one GeoJSON property back into a typed cell. The file
// representation differs from the upstream source formats: dates are
// ISO-rendered and numbers are plain JSON numbers.
func fileValue(col domain.Column, raw any) (domain.Value, error) {
	if raw == nil {
		return domain.Null(col.Kind), nil
	}
	switch col.Kind {
	case domain.KindFloat:
		f, ok := raw.(float64)
		if !ok {
			return domain.Value{}, fmt.Errorf("value %v (%T) is not a number", raw, raw)
		}
		return domain.Float(f), nil
	case domain.KindInt:
		f, ok := raw.(float64)
		if !ok {
			return domain.Value{}, fmt.Errorf("value %v (%T) is not a number", raw, raw)
		}
		return domain.Integer(int64(f)), nil
	case domain.KindDate:
		s, ok := raw.(string)
		if !ok {
			return domain.Value{}, fmt.Errorf("value %v (%T) is not a date string", raw, raw)
		}
		t, err := time.Parse(domain.DateLayout, s)
		if err != nil {
			return domain.Value{}, err
		}
		return domain.Date(t), nil
	default:
		s, ok := raw.(string)
		if !ok {
			return domain.Value{}, fmt.Errorf("value %v (%T) is not a string", raw, raw)
		}
		return domain.Category(s), nil
	}
}
