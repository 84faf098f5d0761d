package noe

import (
	"fmt"
	"sort"
	"strings"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/windgrid/gis-assets-etl/internal/domain"
)

// NormalizeStats reports non-fatal observations from one normalization.
type NormalizeStats struct {
	Features      int
	Records       int
	DuplicateKeys []string
}

// Normalize converts a decoded permitting feature collection into the fixed
// dataset schema. It validates the column set, coerces every cell to its
// declared type, overwrites longitude/latitude from the geometry, drops
// later duplicate-key records, and sorts by (project, turbine name) for
// deterministic output.
func Normalize(fc *geojson.FeatureCollection) (*domain.Dataset, NormalizeStats, error) {
	stats := NormalizeStats{Features: len(fc.Features)}
	schema := Schema()

	if err := validateColumns(fc, schema); err != nil {
		return nil, stats, err
	}

	ds := domain.NewDataset(DatasetName, schema)
	lonIdx := ds.ColumnIndex(colLongitude)
	latIdx := ds.ColumnIndex(colLatitude)

	for _, f := range fc.Features {
		point, ok := f.Geometry.(*geom.Point)
		if !ok || point == nil {
			return nil, stats, &domain.SchemaError{
				Dataset: DatasetName,
				Detail:  fmt.Sprintf("feature geometry is %T, want point", f.Geometry),
			}
		}

		cells := make([]domain.Value, len(schema))
		for i, col := range schema {
			v, err := coerce(col, f.Properties[col.Name])
			if err != nil {
				return nil, stats, &domain.SchemaError{
					Dataset: DatasetName,
					Detail:  fmt.Sprintf("column %q", col.Name),
					Err:     err,
				}
			}
			cells[i] = v
		}

		// The raw coordinate attributes are advisory; the geometry is
		// authoritative.
		cells[lonIdx] = domain.Float(domain.Round(point.X(), domain.CoordinatePrecision))
		cells[latIdx] = domain.Float(domain.Round(point.Y(), domain.CoordinatePrecision))

		ds.Rows = append(ds.Rows, domain.Row{Cells: cells, Geometry: point})
	}

	stats.DuplicateKeys = dropDuplicates(ds)
	sortRows(ds)
	stats.Records = len(ds.Rows)

	return ds, stats, nil
}

// coerce applies the declared-type coercion for one cell.
func coerce(col domain.Column, raw any) (domain.Value, error) {
	switch col.Kind {
	case domain.KindInt:
		return domain.CoerceInt(raw)
	case domain.KindFloat:
		return domain.CoerceFloat(raw)
	case domain.KindDate:
		return domain.CoerceDate(raw)
	default:
		return domain.CoerceCategory(raw)
	}
}

// validateColumns checks the union of feature property names against the
// declared schema as a set-equality check. Housekeeping columns are ignored;
// any other difference is fatal schema drift, reported with every offending
// column named.
func validateColumns(fc *geojson.FeatureCollection, schema []domain.Column) error {
	declared := make(map[string]bool, len(schema))
	for _, col := range schema {
		declared[col.Name] = true
	}

	present := map[string]bool{}
	for _, f := range fc.Features {
		for name := range f.Properties {
			if !housekeepingColumns[name] {
				present[name] = true
			}
		}
	}

	var extra, missing []string
	for name := range present {
		if !declared[name] {
			extra = append(extra, name)
		}
	}
	for name := range declared {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(extra)
	sort.Strings(missing)

	if len(extra) > 0 {
		return &domain.SchemaError{Dataset: DatasetName, Detail: "unmapped columns found", Columns: extra}
	}
	if len(missing) > 0 {
		return &domain.SchemaError{Dataset: DatasetName, Detail: "declared columns missing", Columns: missing}
	}
	return nil
}

// dropDuplicates removes all but the first occurrence of each identity key
// (project, turbine name, longitude, latitude) and returns the keys that
// collided, for operator visibility.
func dropDuplicates(ds *domain.Dataset) []string {
	seen := map[string]bool{}
	var dropped []string
	kept := ds.Rows[:0]

	for i := range ds.Rows {
		key := identityKey(ds, i)
		if seen[key] {
			dropped = append(dropped, key)
			continue
		}
		seen[key] = true
		kept = append(kept, ds.Rows[i])
	}
	ds.Rows = kept
	return dropped
}

func identityKey(ds *domain.Dataset, row int) string {
	return strings.Join([]string{
		ds.Cell(row, colProject).Render(),
		ds.Cell(row, colTurbine).Render(),
		ds.Cell(row, colLongitude).Render(),
		ds.Cell(row, colLatitude).Render(),
	}, "|")
}

// sortRows orders the dataset by (project, turbine name). The ordering is
// load-bearing: the content fingerprint includes row order, so a stable sort
// is what makes unchanged data hash identically across runs.
func sortRows(ds *domain.Dataset) {
	projectIdx := ds.ColumnIndex(colProject)
	turbineIdx := ds.ColumnIndex(colTurbine)

	sort.SliceStable(ds.Rows, func(i, j int) bool {
		pi := ds.Rows[i].Cells[projectIdx].Render()
		pj := ds.Rows[j].Cells[projectIdx].Render()
		if pi != pj {
			return pi < pj
		}
		return ds.Rows[i].Cells[turbineIdx].Render() < ds.Rows[j].Cells[turbineIdx].Render()
	})
}
