package domain

import (
	geom "github.com/twpayne/go-geom"
)

// CRSWGS84 is the coordinate reference system of every dataset produced by
// this pipeline: geographic latitude/longitude on WGS 84.
const CRSWGS84 = "EPSG:4326"

// FieldKind is the declared type of a dataset column.
type FieldKind int

const (
	KindCategory FieldKind = iota
	KindFloat
	KindInt
	KindDate
)

func (k FieldKind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Column is one entry of a dataset's ordered schema.
type Column struct {
	Name string
	Kind FieldKind
}

// Row holds one record's cells, parallel to the dataset's Columns, plus its
// point geometry.
type Row struct {
	Cells    []Value
	Geometry *geom.Point
}

// Dataset is a normalized tabular dataset with point geometry.
type Dataset struct {
	Name    string
	CRS     string
	Columns []Column
	Rows    []Row
}

// NewDataset creates an empty dataset with the given schema in EPSG:4326.
func NewDataset(name string, columns []Column) *Dataset {
	return &Dataset{
		Name:    name,
		CRS:     CRSWGS84,
		Columns: columns,
	}
}

// ColumnIndex returns the position of the named column, or -1 if absent.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, column name). It panics on an unknown
// column, which is a programming error against a fixed schema.
func (d *Dataset) Cell(row int, column string) Value {
	i := d.ColumnIndex(column)
	if i < 0 {
		panic("domain: unknown column " + column)
	}
	return d.Rows[row].Cells[i]
}
