// Package noe ingests the Lower Austria wind-turbine permitting dataset: a
// GeoJSON feature collection with a fixed German-named attribute schema. The
// normalizer enforces that schema strictly so upstream format drift fails the
// run instead of leaking into the outputs.
package noe

import (
	"github.com/windgrid/gis-assets-etl/internal/domain"
)

// DatasetName is the output name of the permitting dataset.
const DatasetName = "windkraftanlagen"

// Attribute columns overwritten from the authoritative geometry and used in
// the identity key.
const (
	colProject   = "Vorhaben"
	colTurbine   = "Name der WKA"
	colLongitude = "Koordinaten Länge [WGS 84]"
	colLatitude  = "Koordinaten Breite [WGS 84]"
)

// housekeepingColumns are viewer artifacts in the source export, dropped
// before schema validation when present.
var housekeepingColumns = map[string]bool{
	"_fulltext":  true,
	"_title":     true,
	"_zoomscale": true,
}

// Schema returns the fixed, ordered column schema of the permitting dataset.
// The actual column set of the source must equal it exactly (geometry aside).
func Schema() []domain.Column {
	return []domain.Column{
		{Name: "Kennzeichen (UVP)", Kind: domain.KindCategory},
		{Name: "Kennzeichen (ER)", Kind: domain.KindCategory},
		{Name: "Rechtsmaterie", Kind: domain.KindCategory},
		{Name: "Betreiber", Kind: domain.KindCategory},
		{Name: colProject, Kind: domain.KindCategory},
		{Name: "Datum Genehmigungsantrag", Kind: domain.KindDate},
		{Name: "Datum Entscheidung 1. Instanz (Bescheid)", Kind: domain.KindDate},
		{Name: "Datum Fertigstellungsmeldung", Kind: domain.KindDate},
		{Name: "Status", Kind: domain.KindCategory},
		{Name: "Änderung", Kind: domain.KindCategory},
		{Name: "Repowering", Kind: domain.KindCategory},
		{Name: colTurbine, Kind: domain.KindCategory},
		{Name: "Leistung der WKA [MW]", Kind: domain.KindFloat},
		{Name: "Gesamtleistung [MW]", Kind: domain.KindFloat},
		{Name: "Gesamthöhe der WKA [m]", Kind: domain.KindFloat},
		{Name: "Type", Kind: domain.KindCategory},
		{Name: "Grundstücks-Nummer", Kind: domain.KindCategory},
		{Name: "Katastralgemeinde", Kind: domain.KindCategory},
		{Name: "Gemeinde", Kind: domain.KindCategory},
		{Name: "Bezirk", Kind: domain.KindCategory},
		{Name: "Hauptregion", Kind: domain.KindCategory},
		{Name: "KG-Nummer", Kind: domain.KindInt},
		{Name: colLongitude, Kind: domain.KindFloat},
		{Name: colLatitude, Kind: domain.KindFloat},
		{Name: "Zusatzinformation", Kind: domain.KindCategory},
		{Name: "Stand", Kind: domain.KindCategory},
	}
}
