package austro

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windgrid/gis-assets-etl/internal/domain"
)

// aixmDocument wraps structure fragments in the AIXM message envelope.
func aixmDocument(structures ...string) []byte {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<message:AIXMBasicMessage
    xmlns:message="http://www.aixm.aero/schema/5.1.1/message"
    xmlns:aixm="http://www.aixm.aero/schema/5.1.1"
    xmlns:gml="http://www.opengis.net/gml/3.2">`
	for _, s := range structures {
		doc += "\n<message:hasMember>\n" + s + "\n</message:hasMember>"
	}
	return []byte(doc + "\n</message:AIXMBasicMessage>")
}

// aixmStructure renders one VerticalStructure with the given parts.
func aixmStructure(name, structType, status, note string, parts ...string) string {
	s := fmt.Sprintf(`<aixm:VerticalStructure gml:id="VS_%s">
  <aixm:timeSlice>
    <aixm:VerticalStructureTimeSlice gml:id="VS_%s_TS">
      <aixm:name>%s</aixm:name>
      <aixm:type>%s</aixm:type>
      <aixm:constructionStatus>%s</aixm:constructionStatus>`, name, name, name, structType, status)
	for _, p := range parts {
		s += "\n      <aixm:part>\n" + p + "\n      </aixm:part>"
	}
	s += fmt.Sprintf(`
      <aixm:annotation>
        <aixm:Note gml:id="N_%s">
          <aixm:translatedNote>
            <aixm:LinguisticNote gml:id="LN_%s">
              <aixm:note>%s</aixm:note>
            </aixm:LinguisticNote>
          </aixm:translatedNote>
        </aixm:Note>
      </aixm:annotation>
    </aixm:VerticalStructureTimeSlice>
  </aixm:timeSlice>
</aixm:VerticalStructure>`, name, name, note)
	return s
}

// aixmPart renders one VerticalStructurePart.
func aixmPart(id, verticalExtent, elevation, pos string) string {
	return fmt.Sprintf(`<aixm:VerticalStructurePart gml:id="%s">
  <aixm:verticalExtent>%s</aixm:verticalExtent>
  <aixm:verticalExtentAccuracy>1.0</aixm:verticalExtentAccuracy>
  <aixm:horizontalAccuracy>0.5</aixm:horizontalAccuracy>
  <aixm:type>WINDMILL</aixm:type>
  <aixm:horizontalProjection_location>
    <aixm:ElevatedPoint gml:id="EP_%s">
      <gml:pos>%s</gml:pos>
      <aixm:elevation>%s</aixm:elevation>
    </aixm:ElevatedPoint>
  </aixm:horizontalProjection_location>
</aixm:VerticalStructurePart>`, id, verticalExtent, id, pos, elevation)
}

func TestParseICAO(t *testing.T) {
	doc := aixmDocument(
		aixmStructure("WKAGRP_NOE01", "WINDMILL_FARMS", "COMPLETED", "Windpark Musterberg",
			aixmPart("OBST_77001_A", "120.0", "598.3", "48.1030 15.4205"),
			aixmPart("OBST_77002_A", "150.0", "601.1", "48.1041 15.4260"),
		),
		aixmStructure("WKA_NOE02", "WINDMILL", "OTHER:CONSTRUCTION_PLANNED", "WKA Felddorf",
			aixmPart("OBST_77100_A", "200.0", "321.5", "48.3300 16.5500"),
		),
	)

	ds, stats, err := ParseICAO(doc, "20240418")
	require.NoError(t, err)
	require.Len(t, ds.Rows, 3)
	assert.Equal(t, 2, stats.Structures)
	assert.Equal(t, 3, stats.Records)
	assert.Empty(t, stats.UnmappedStatus)
	assert.Equal(t, DatasetName, ds.Name)
	assert.Equal(t, domain.CRSWGS84, ds.CRS)

	assert.Equal(t, "OBST_77001_A", ds.Cell(0, "Name").Str)
	assert.Equal(t, "WKAGRP_NOE01", ds.Cell(0, "WPID").Str)
	assert.Equal(t, "Musterberg", ds.Cell(0, "WindFarm").Str)
	assert.Equal(t, int64(77001), ds.Cell(0, "UID").Int)
	assert.Equal(t, "Operating", ds.Cell(0, "Status").Str)
	assert.Equal(t, "WINDMILL", ds.Cell(0, "Type").Str)
	assert.Equal(t, "20240418", ds.Cell(0, "PublicationDate").Str)
	assert.InDelta(t, 478.3, ds.Cell(0, "TerrainElevation").Num, 1e-9)

	// gml:pos is "lat lon"; an Austrian turbine must land near lat 48, lon 15.
	assert.InDelta(t, 48.1030, ds.Cell(0, "Latitude").Num, 1e-9)
	assert.InDelta(t, 15.4205, ds.Cell(0, "Longitude").Num, 1e-9)
	assert.InDelta(t, 15.4205, ds.Rows[0].Geometry.X(), 1e-9)
	assert.InDelta(t, 48.1030, ds.Rows[0].Geometry.Y(), 1e-9)

	// Single-turbine structure inherits status mapped through the table.
	assert.Equal(t, "Plan", ds.Cell(2, "Status").Str)
	assert.Equal(t, "Felddorf", ds.Cell(2, "WindFarm").Str)
	assert.Equal(t, int64(77100), ds.Cell(2, "UID").Int)
}

func TestParseICAO_FiltersOtherStructureTypes(t *testing.T) {
	doc := aixmDocument(
		aixmStructure("TOWER_01", "OTHER", "COMPLETED", "Sendemast",
			aixmPart("OBST_50000_A", "80.0", "400.0", "47.5000 14.0000"),
		),
	)

	ds, stats, err := ParseICAO(doc, "20240418")
	require.NoError(t, err)
	assert.Empty(t, ds.Rows)
	assert.Equal(t, 0, stats.Structures)
}

func TestParseICAO_ZeroPartStructure(t *testing.T) {
	doc := aixmDocument(
		aixmStructure("WKAGRP_EMPTY", "WINDMILL_FARMS", "COMPLETED", "Windpark Leer"),
	)

	ds, _, err := ParseICAO(doc, "20240418")
	require.NoError(t, err)
	assert.Empty(t, ds.Rows)
}

func TestParseICAO_DuplicateUID(t *testing.T) {
	doc := aixmDocument(
		aixmStructure("WKAGRP_DUP", "WINDMILL_FARMS", "COMPLETED", "Windpark Doppelt",
			aixmPart("OBST_9_1", "120.0", "500.0", "48.0000 15.0000"),
			aixmPart("OBST_9_2", "120.0", "501.0", "48.0100 15.0100"),
		),
	)

	_, _, err := ParseICAO(doc, "20240418")
	var integrityErr *domain.IntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Contains(t, integrityErr.Detail, "duplicate UID 9")
}

func TestParseICAO_UnparseableUID(t *testing.T) {
	doc := aixmDocument(
		aixmStructure("WKAGRP_BAD", "WINDMILL_FARMS", "COMPLETED", "Windpark Kaputt",
			aixmPart("LO_OBST_A", "120.0", "500.0", "48.0000 15.0000"),
		),
	)

	_, _, err := ParseICAO(doc, "20240418")
	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestParseICAO_NumericNoiseBecomesNull(t *testing.T) {
	doc := aixmDocument(
		aixmStructure("WKAGRP_NOISE", "WINDMILL_FARMS", "COMPLETED", "Windpark Rauschen",
			aixmPart("OBST_80001_A", "120.0", "UNKNOWN", "48.0000 15.0000"),
		),
	)

	ds, _, err := ParseICAO(doc, "20240418")
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
	assert.True(t, ds.Cell(0, "Elevation").IsNull())
	// Terrain elevation cannot be derived without elevation.
	assert.True(t, ds.Cell(0, "TerrainElevation").IsNull())
	assert.InDelta(t, 120.0, ds.Cell(0, "VerticalExtent").Num, 1e-9)
}

func TestParseICAO_UnmappedStatusPassesThrough(t *testing.T) {
	doc := aixmDocument(
		aixmStructure("WKAGRP_NEW", "WINDMILL_FARMS", "OTHER:SOMETHING_NEW", "Windpark Neu",
			aixmPart("OBST_80101_A", "120.0", "500.0", "48.0000 15.0000"),
		),
	)

	ds, stats, err := ParseICAO(doc, "20240418")
	require.NoError(t, err)
	assert.Equal(t, "OTHER:SOMETHING_NEW", ds.Cell(0, "Status").Str)
	assert.Equal(t, 1, stats.UnmappedStatus["OTHER:SOMETHING_NEW"])
}

func TestParseICAO_ForeignNamespaceElementsIgnored(t *testing.T) {
	doc := aixmDocument(`<aixm:VerticalStructure gml:id="VS_NS">
  <gml:name>GML_LABEL</gml:name>
  <aixm:timeSlice>
    <aixm:VerticalStructureTimeSlice gml:id="VS_NS_TS">
      <gml:name>TS_LABEL</gml:name>
      <aixm:name>WKAGRP_NS</aixm:name>
      <aixm:type>WINDMILL_FARMS</aixm:type>
      <aixm:constructionStatus>COMPLETED</aixm:constructionStatus>
      <aixm:part>
` + aixmPart("OBST_81001_A", "120.0", "500.0", "48.1000 15.5000") + `
      </aixm:part>
      <aixm:annotation>
        <aixm:Note gml:id="N_NS">
          <aixm:translatedNote>
            <aixm:LinguisticNote gml:id="LN_NS">
              <aixm:note>Windpark Namensraum</aixm:note>
            </aixm:LinguisticNote>
          </aixm:translatedNote>
        </aixm:Note>
      </aixm:annotation>
    </aixm:VerticalStructureTimeSlice>
  </aixm:timeSlice>
</aixm:VerticalStructure>`)

	ds, _, err := ParseICAO(doc, "20240418")
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)

	// gml:name appears before aixm:name twice; the AIXM field still wins.
	assert.Equal(t, "WKAGRP_NS", ds.Cell(0, "WPID").Str)
	assert.Equal(t, "Namensraum", ds.Cell(0, "WindFarm").Str)
	assert.Equal(t, "Operating", ds.Cell(0, "Status").Str)
}

func TestCleanFarmName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Windpark Musterberg", "Musterberg"},
		{"WP Felddorf", "Felddorf"},
		{"WKA Hügelland 3", "Hügelland 3"},
		{"Windturbine Alt", "Alt"},
		{"Windkraftanlage Grenzhof", "Grenzhof"},
		{"  Bergwiese  ", "Bergwiese"},
		{"Musterberg", "Musterberg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanFarmName(tt.in), "input %q", tt.in)
	}
}

func TestParseUID(t *testing.T) {
	uid, err := parseUID("OBST_12345_WKA1")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), uid)

	_, err = parseUID("OBST12345")
	require.Error(t, err)

	_, err = parseUID("LO_OBST_1")
	require.Error(t, err)
}

func TestParsePos(t *testing.T) {
	lat, lon, err := parsePos("48.1030 15.4205")
	require.NoError(t, err)
	assert.Equal(t, 48.1030, lat)
	assert.Equal(t, 15.4205, lon)

	_, _, err = parsePos("48.1030")
	require.Error(t, err)

	_, _, err = parsePos("north east")
	require.Error(t, err)
}
