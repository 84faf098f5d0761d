package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	geom "github.com/twpayne/go-geom"
)

func testDataset(rows ...[2]string) *Dataset {
	ds := NewDataset("test", []Column{
		{Name: "Project", Kind: KindCategory},
		{Name: "Turbine", Kind: KindCategory},
	})
	for i, r := range rows {
		point := geom.NewPointFlat(geom.XY, []float64{16.0 + float64(i), 48.0})
		point.SetSRID(4326)
		ds.Rows = append(ds.Rows, Row{
			Cells:    []Value{Category(r[0]), Category(r[1])},
			Geometry: point,
		})
	}
	return ds
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := testDataset([2]string{"Nord", "WKA 1"}, [2]string{"Nord", "WKA 2"})
	b := testDataset([2]string{"Nord", "WKA 1"}, [2]string{"Nord", "WKA 2"})

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_CellChange(t *testing.T) {
	a := testDataset([2]string{"Nord", "WKA 1"})
	b := testDataset([2]string{"Nord", "WKA 2"})

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_RowOrderMatters(t *testing.T) {
	a := testDataset([2]string{"Nord", "WKA 1"}, [2]string{"Sued", "WKA 1"})
	b := testDataset([2]string{"Sued", "WKA 1"}, [2]string{"Nord", "WKA 1"})

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_GeometryChange(t *testing.T) {
	a := testDataset([2]string{"Nord", "WKA 1"})
	b := testDataset([2]string{"Nord", "WKA 1"})
	b.Rows[0].Geometry = geom.NewPointFlat(geom.XY, []float64{15.5, 48.0})

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_IgnoresDatasetName(t *testing.T) {
	a := testDataset([2]string{"Nord", "WKA 1"})
	b := testDataset([2]string{"Nord", "WKA 1"})
	b.Name = "renamed"

	// Only content enters the hash, never file or dataset metadata.
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_NullAndTypedCells(t *testing.T) {
	ds := NewDataset("typed", []Column{
		{Name: "Power", Kind: KindFloat},
		{Name: "KG", Kind: KindInt},
		{Name: "Decided", Kind: KindDate},
	})
	ds.Rows = append(ds.Rows, Row{Cells: []Value{
		Float(3.3),
		Null(KindInt),
		Date(time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC)),
	}})

	withValue := NewDataset("typed", ds.Columns)
	withValue.Rows = append(withValue.Rows, Row{Cells: []Value{
		Float(3.3),
		Integer(0),
		Date(time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC)),
	}})

	// Null and zero are distinct content.
	assert.NotEqual(t, Fingerprint(ds), Fingerprint(withValue))
}
