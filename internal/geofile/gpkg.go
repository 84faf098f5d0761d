package geofile

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/windgrid/gis-assets-etl/internal/domain"
)

const (
	// gpkgApplicationID is "GPKG" as a big-endian uint32, required by the
	// GeoPackage spec for format identification.
	gpkgApplicationID = 0x47504B47
	// gpkgUserVersion declares GeoPackage 1.3.0.
	gpkgUserVersion = 10300

	wgs84WKT = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`
)

// GPKGWriter persists a dataset as a GeoPackage: a sqlite database carrying
// the gpkg_* metadata tables and one point-feature table named after the
// dataset. The file is rewritten from scratch on every write; the change
// gate upstream decides whether a write happens at all.
type GPKGWriter struct{}

func (GPKGWriter) Format() string { return "GPKG" }
func (GPKGWriter) Ext() string    { return ".gpkg" }

func (GPKGWriter) Write(ds *domain.Dataset, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("open gpkg %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("open gpkg %s: %w", path, err)
	}
	defer sqlDB.Close()

	if err := writeGPKG(db, ds); err != nil {
		return fmt.Errorf("write gpkg %s: %w", path, err)
	}
	return nil
}

func writeGPKG(db *gorm.DB, ds *domain.Dataset) error {
	stmts := []string{
		fmt.Sprintf("PRAGMA application_id = %d", gpkgApplicationID),
		fmt.Sprintf("PRAGMA user_version = %d", gpkgUserVersion),
		`CREATE TABLE gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT
		)`,
		`CREATE TABLE gpkg_contents (
			table_name TEXT PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT UNIQUE,
			description TEXT DEFAULT '',
			last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
			srs_id INTEGER,
			CONSTRAINT fk_gc_r_srs_id FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
		)`,
		`CREATE TABLE gpkg_geometry_columns (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL,
			z TINYINT NOT NULL,
			m TINYINT NOT NULL,
			CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name)
		)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	srs := [][]any{
		{"Undefined Cartesian SRS", -1, "NONE", -1, "undefined", "undefined Cartesian coordinate reference system"},
		{"Undefined Geographic SRS", 0, "NONE", 0, "undefined", "undefined geographic coordinate reference system"},
		{"WGS 84 geodetic", 4326, "EPSG", 4326, wgs84WKT, "longitude/latitude coordinates in decimal degrees on the WGS 84 spheroid"},
	}
	for _, row := range srs {
		if err := db.Exec(
			"INSERT INTO gpkg_spatial_ref_sys VALUES (?, ?, ?, ?, ?, ?)", row...,
		).Error; err != nil {
			return err
		}
	}

	if err := createFeatureTable(db, ds); err != nil {
		return err
	}
	if err := insertRows(db, ds); err != nil {
		return err
	}

	minX, minY, maxX, maxY := bounds(ds)
	if err := db.Exec(
		`INSERT INTO gpkg_contents (table_name, data_type, identifier, description, last_change, min_x, min_y, max_x, max_y, srs_id)
		 VALUES (?, 'features', ?, '', ?, ?, ?, ?, ?, 4326)`,
		ds.Name, ds.Name, domain.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		minX, minY, maxX, maxY,
	).Error; err != nil {
		return err
	}
	return db.Exec(
		"INSERT INTO gpkg_geometry_columns VALUES (?, 'geom', 'POINT', 4326, 0, 0)", ds.Name,
	).Error
}

func createFeatureTable(db *gorm.DB, ds *domain.Dataset) error {
	cols := make([]string, 0, len(ds.Columns)+2)
	cols = append(cols,
		`"fid" INTEGER PRIMARY KEY AUTOINCREMENT`,
		`"geom" POINT`,
	)
	for _, col := range ds.Columns {
		cols = append(cols, fmt.Sprintf("%s %s", quoteIdent(col.Name), sqliteType(col.Kind)))
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(ds.Name), strings.Join(cols, ", "))
	return db.Exec(stmt).Error
}

func insertRows(db *gorm.DB, ds *domain.Dataset) error {
	names := make([]string, 0, len(ds.Columns)+1)
	marks := make([]string, 0, len(ds.Columns)+1)
	names = append(names, `"geom"`)
	marks = append(marks, "?")
	for _, col := range ds.Columns {
		names = append(names, quoteIdent(col.Name))
		marks = append(marks, "?")
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(ds.Name), strings.Join(names, ", "), strings.Join(marks, ", "))

	for _, row := range ds.Rows {
		args := make([]any, 0, len(ds.Columns)+1)
		blob, err := geometryBlob(row.Geometry)
		if err != nil {
			return err
		}
		args = append(args, blob)
		for _, cell := range row.Cells {
			args = append(args, bindValue(cell))
		}
		if err := db.Exec(stmt, args...).Error; err != nil {
			return err
		}
	}
	return nil
}

// geometryBlob encodes a point as a GeoPackage geometry blob: the "GP"
// header (version 0, little-endian flags, no envelope, SRID 4326) followed
// by the little-endian WKB point.
func geometryBlob(point *geom.Point) ([]byte, error) {
	if point == nil {
		return nil, nil
	}
	wkbData, err := wkb.Marshal(point, wkb.NDR)
	if err != nil {
		return nil, err
	}
	header := []byte{'G', 'P', 0x00, 0x01, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(header[4:], 4326)
	return append(header, wkbData...), nil
}

func bindValue(v domain.Value) any {
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

func sqliteType(kind domain.FieldKind) string {
	switch kind {
	case domain.KindFloat:
		return "DOUBLE"
	case domain.KindInt:
		return "INTEGER"
	case domain.KindDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func bounds(ds *domain.Dataset) (minX, minY, maxX, maxY float64) {
	first := true
	for _, row := range ds.Rows {
		if row.Geometry == nil {
			continue
		}
		x, y := row.Geometry.X(), row.Geometry.Y()
		if first {
			minX, maxX, minY, maxY = x, x, y, y
			first = false
			continue
		}
		minX = min(minX, x)
		maxX = max(maxX, x)
		minY = min(minY, y)
		maxY = max(maxY, y)
	}
	return minX, minY, maxX, maxY
}
