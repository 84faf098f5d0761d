package domain

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint computes a whole-content hash of the dataset, rendered as a
// decimal string for the sidecar hash file. Every cell contributes the
// 64-bit xxhash of (rowIndex | columnName | renderedValue); rows with
// geometry contribute an additional (rowIndex | geometry | "lon lat") term.
// The digests are combined with wrapping addition, so the result is stable
// for identical content and changes when any cell value or the row order
// changes. File-level metadata never enters the hash.
func Fingerprint(d *Dataset) string {
	var sum uint64
	buf := make([]byte, 0, 128)
	for i, row := range d.Rows {
		for j, col := range d.Columns {
			buf = buf[:0]
			buf = strconv.AppendInt(buf, int64(i), 10)
			buf = append(buf, '|')
			buf = append(buf, col.Name...)
			buf = append(buf, '|')
			buf = append(buf, row.Cells[j].Render()...)
			sum += xxhash.Sum64(buf)
		}
		if row.Geometry != nil {
			buf = buf[:0]
			buf = strconv.AppendInt(buf, int64(i), 10)
			buf = append(buf, "|geometry|"...)
			buf = strconv.AppendFloat(buf, row.Geometry.X(), 'f', CoordinatePrecision, 64)
			buf = append(buf, ' ')
			buf = strconv.AppendFloat(buf, row.Geometry.Y(), 'f', CoordinatePrecision, 64)
			sum += xxhash.Sum64(buf)
		}
	}
	return strconv.FormatUint(sum, 10)
}
