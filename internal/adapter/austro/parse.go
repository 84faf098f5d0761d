package austro

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	geom "github.com/twpayne/go-geom"

	"github.com/windgrid/gis-assets-etl/internal/domain"
)

// DatasetName is the output name of the obstacle dataset.
const DatasetName = "austro_control_icao"

// Namespaces of the elements the parser reads. Field captures are
// namespace-checked so e.g. a gml:name never shadows aixm:name.
const (
	aixmNS = "http://www.aixm.aero/schema/5.1.1"
	gmlNS  = "http://www.opengis.net/gml/3.2"
)

// statusNames maps AIXM construction status codes to the normalized labels
// used downstream. Codes absent from the table pass through unchanged; the
// source is known to emit occasional unexpected codes and those are noise,
// not drift.
var statusNames = map[string]string{
	"COMPLETED":                  "Operating",
	"IN_CONSTRUCTION":            "UnderConstruction",
	"MODIFICATION_APPRVD":        "ModificationApproved",
	"DEMOLITION_PLANNED":         "DemolitionPlanned",
	"CONSTRUCTION_PLANNED":       "Plan",
	"CONSTRUCTION_APPRVD":        "Approved",
	"OTHER:IN_CONSTRUCTION":      "UnderConstruction",
	"OTHER:MODIFICATION_APPRVD":  "ModificationApproved",
	"OTHER:DEMOLITION_PLANNED":   "DemolitionPlanned",
	"OTHER:CONSTRUCTION_PLANNED": "Plan",
	"OTHER:MODIFICATION_PLANNED": "ModificationPlanned",
	"OTHER:CONSTRUCTION_APPRVD":  "Approved",
}

// farmPrefixes are stripped from the annotated wind-farm name.
var farmPrefixes = []string{
	"Windpark ",
	"WP ",
	"WKA ",
	"Windturbine ",
	"Windkraftanlage ",
}

// structureTypes are the only VerticalStructure types kept by the parser.
var structureTypes = map[string]bool{
	"WINDMILL_FARMS": true,
	"WINDMILL":       true,
}

// Columns returns the ordered output schema of the obstacle dataset.
func Columns() []domain.Column {
	return []domain.Column{
		{Name: "Name", Kind: domain.KindCategory},
		{Name: "WPID", Kind: domain.KindCategory},
		{Name: "WindFarm", Kind: domain.KindCategory},
		{Name: "HorizontalAccuracy", Kind: domain.KindFloat},
		{Name: "TerrainElevation", Kind: domain.KindFloat},
		{Name: "Elevation", Kind: domain.KindFloat},
		{Name: "VerticalExtent", Kind: domain.KindFloat},
		{Name: "VerticalAccuracy", Kind: domain.KindFloat},
		{Name: "Type", Kind: domain.KindCategory},
		{Name: "Status", Kind: domain.KindCategory},
		{Name: "Longitude", Kind: domain.KindFloat},
		{Name: "Latitude", Kind: domain.KindFloat},
		{Name: "UID", Kind: domain.KindInt},
		{Name: "PublicationDate", Kind: domain.KindCategory},
	}
}

// ParseStats reports non-fatal observations from one parse.
type ParseStats struct {
	Structures     int
	Records        int
	UnmappedStatus map[string]int
}

// rawStructure and rawPart mirror the AIXM elements the parser cares about,
// collected as text so numeric noise can be coerced leniently afterwards.
type rawStructure struct {
	Type   string
	Status string
	Name   string
	Note   string
	Parts  []rawPart
}

type rawPart struct {
	ID                 string // gml:id attribute
	VerticalExtent     string
	VerticalAccuracy   string
	HorizontalAccuracy string
	Elevation          string
	Type               string
	Pos                string // gml:pos, "lat lon"
}

// ParseICAO parses the AIXM obstacle XML into the obstacle dataset. Only
// WINDMILL and WINDMILL_FARMS structures are kept; each nested
// VerticalStructurePart becomes one turbine record inheriting the parent's
// farm identity and status. The caller-supplied publication date is attached
// to every record.
func ParseICAO(data []byte, publicationDate string) (*domain.Dataset, ParseStats, error) {
	stats := ParseStats{UnmappedStatus: map[string]int{}}

	structures, err := decodeStructures(data)
	if err != nil {
		return nil, stats, err
	}

	ds := domain.NewDataset(DatasetName, Columns())
	seen := map[int64]string{}

	for _, st := range structures {
		if !structureTypes[st.Type] {
			continue
		}
		stats.Structures++

		farm := cleanFarmName(st.Note)
		status := st.Status
		if mapped, ok := statusNames[status]; ok {
			status = mapped
		} else if status != "" {
			stats.UnmappedStatus[status]++
		}

		for _, part := range st.Parts {
			row, uid, err := buildRecord(st, part, farm, status, publicationDate)
			if err != nil {
				return nil, stats, err
			}
			if prev, dup := seen[uid]; dup {
				return nil, stats, &domain.IntegrityError{
					Dataset: DatasetName,
					Detail:  fmt.Sprintf("duplicate UID %d derived from %q and %q", uid, prev, part.ID),
				}
			}
			seen[uid] = part.ID
			ds.Rows = append(ds.Rows, row)
			stats.Records++
		}
	}

	return ds, stats, nil
}

// buildRecord converts one VerticalStructurePart into a dataset row.
func buildRecord(st rawStructure, part rawPart, farm, status, publicationDate string) (domain.Row, int64, error) {
	uid, err := parseUID(part.ID)
	if err != nil {
		return domain.Row{}, 0, &domain.SchemaError{
			Dataset: DatasetName,
			Detail:  fmt.Sprintf("record name %q has no numeric UID segment", part.ID),
			Err:     err,
		}
	}

	lat, lon, err := parsePos(part.Pos)
	if err != nil {
		return domain.Row{}, 0, &domain.SchemaError{
			Dataset: DatasetName,
			Detail:  fmt.Sprintf("record %q has malformed position %q", part.ID, part.Pos),
			Err:     err,
		}
	}

	elevation := domain.FloatOrNull(part.Elevation)
	verticalExtent := domain.FloatOrNull(part.VerticalExtent)

	terrain := domain.Null(domain.KindFloat)
	if !elevation.IsNull() && !verticalExtent.IsNull() {
		terrain = domain.Float(domain.Round(elevation.Num-verticalExtent.Num, 1))
	}

	point := geom.NewPointFlat(geom.XY, []float64{lon, lat})
	point.SetSRID(4326)

	return domain.Row{
		Cells: []domain.Value{
			domain.Category(part.ID),
			domain.Category(st.Name),
			domain.Category(farm),
			domain.FloatOrNull(part.HorizontalAccuracy),
			terrain,
			elevation,
			verticalExtent,
			domain.FloatOrNull(part.VerticalAccuracy),
			domain.Category(part.Type),
			domain.Category(status),
			domain.Float(lon),
			domain.Float(lat),
			domain.Integer(uid),
			domain.Category(publicationDate),
		},
		Geometry: point,
	}, uid, nil
}

// parseUID derives the integer UID from the second underscore-separated
// segment of a record name, e.g. "OBST_12345_WKA1" -> 12345.
func parseUID(name string) (int64, error) {
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return 0, fmt.Errorf("name %q has fewer than two segments", name)
	}
	return strconv.ParseInt(parts[1], 10, 64)
}

// parsePos splits a gml:pos string into latitude and longitude. The source
// publishes EPSG:4326 positions in lat,lon axis order.
func parsePos(pos string) (lat, lon float64, err error) {
	fields := strings.Fields(pos)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected two coordinate tokens, got %d", len(fields))
	}
	lat, err = strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func cleanFarmName(s string) string {
	for _, prefix := range farmPrefixes {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(s, prefix))
		}
	}
	return strings.TrimSpace(s)
}

// decodeStructures walks the document and collects every VerticalStructure
// element regardless of nesting depth.
func decodeStructures(data []byte) ([]rawStructure, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []rawStructure

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, &domain.SchemaError{Dataset: DatasetName, Detail: "unparseable XML document", Err: err}
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Space != aixmNS || se.Name.Local != "VerticalStructure" {
			continue
		}

		st, err := decodeStructure(dec)
		if err != nil {
			return nil, &domain.SchemaError{Dataset: DatasetName, Detail: "unparseable VerticalStructure element", Err: err}
		}
		out = append(out, st)
	}
}

// decodeStructure consumes one VerticalStructure subtree. Descendant AIXM
// fields are captured first-wins, mirroring an XPath ".//" lookup; elements
// from other namespaces never set a capture, and part subtrees are consumed
// separately so their fields never leak into the structure.
func decodeStructure(dec *xml.Decoder) (rawStructure, error) {
	var st rawStructure
	var field string
	depth := 1

	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return st, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == aixmNS && t.Name.Local == "VerticalStructurePart" {
				part, err := decodePart(dec, t)
				if err != nil {
					return st, err
				}
				st.Parts = append(st.Parts, part)
				continue
			}
			depth++
			field = ""
			if t.Name.Space == aixmNS {
				field = t.Name.Local
			}
		case xml.EndElement:
			depth--
			field = ""
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			switch field {
			case "type":
				if st.Type == "" {
					st.Type = text
				}
			case "constructionStatus":
				if st.Status == "" {
					st.Status = text
				}
			case "name":
				if st.Name == "" {
					st.Name = text
				}
			case "note":
				if st.Note == "" {
					st.Note = text
				}
			}
		}
	}
	return st, nil
}

// decodePart consumes one VerticalStructurePart subtree.
func decodePart(dec *xml.Decoder, start xml.StartElement) (rawPart, error) {
	var part rawPart
	for _, attr := range start.Attr {
		if attr.Name.Space == gmlNS && attr.Name.Local == "id" {
			part.ID = attr.Value
		}
	}

	var field string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return part, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			field = ""
			switch {
			case t.Name.Space == aixmNS:
				field = t.Name.Local
			case t.Name.Space == gmlNS && t.Name.Local == "pos":
				field = "pos"
			}
		case xml.EndElement:
			depth--
			field = ""
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			switch field {
			case "verticalExtent":
				if part.VerticalExtent == "" {
					part.VerticalExtent = text
				}
			case "verticalExtentAccuracy":
				if part.VerticalAccuracy == "" {
					part.VerticalAccuracy = text
				}
			case "horizontalAccuracy":
				if part.HorizontalAccuracy == "" {
					part.HorizontalAccuracy = text
				}
			case "elevation":
				if part.Elevation == "" {
					part.Elevation = text
				}
			case "type":
				if part.Type == "" {
					part.Type = text
				}
			case "pos":
				if part.Pos == "" {
					part.Pos = text
				}
			}
		}
	}
	return part, nil
}
