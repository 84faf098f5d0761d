// Package domain models normalized wind-turbine asset datasets.
//
// # Data Sources
//
// Two upstream sources feed the pipeline:
//
//   - The Austro Control "Hindernisdatensatz (ICAO)" obstacle dataset: an
//     AIXM 5.1.1 XML export of aeronautical vertical structures, published as
//     zipped XML files on a catalog page. Only WINDMILL and WINDMILL_FARMS
//     structures are relevant; every VerticalStructurePart inside a kept
//     structure is one turbine record.
//   - The Lower Austria (NOE) wind-turbine permitting dataset: a GeoJSON
//     feature collection with a fixed set of German-named attribute columns
//     describing permitting cases.
//
// # Dataset Model
//
// A Dataset is an ordered column schema plus rows of typed nullable cells and
// one point geometry per row, always in EPSG:4326. Cells are one of four
// kinds: category (trimmed string), float, int, or date. Nulls are
// first-class and never collapse to zero values.
//
// # Source Conventions
//
// Obstacle record names look like "OBST_12345_WKA1"; the numeric second
// segment is the record UID and must be unique across the dataset. Farm
// names carry noise prefixes ("Windpark ", "WP ", "WKA ", "Windturbine ",
// "Windkraftanlage ") that are stripped. Construction status codes map
// through a fixed table (e.g. "OTHER:CONSTRUCTION_PLANNED" -> "Plan");
// unknown codes pass through unchanged.
//
// gml:pos coordinates are "latitude longitude": EPSG:4326 as referenced from
// GML declares lat,lon axis order, so the first token is latitude.
//
// Permitting float cells use decimal commas ("1,23") and dates are strict
// "DD.MM.YYYY". Both are normalized during coercion; anything unparseable is
// a schema error because it signals upstream format drift.
//
// # Fingerprinting
//
// Fingerprint hashes every cell as (rowIndex | columnName | renderedValue)
// plus a per-row geometry term and sums the 64-bit digests with wrapping
// arithmetic. Row order is part of the fingerprint, so deterministic sorting
// upstream of the change gate is load-bearing, not cosmetic.
package domain
