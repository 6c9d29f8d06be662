package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/dgs-reports/internal/config"
)

const fontSize = 8.0

// text lays s out one glyph per rune starting at x, the way the PDF reader
// reports most fonts.
func text(x, top float64, s string) []glyph {
	var out []glyph
	for _, r := range s {
		out = append(out, glyph{X: x, Top: top, W: fontSize / 2, Size: fontSize, S: string(r)})
		x += fontSize / 2
	}
	return out
}

func page(parts ...[]glyph) []glyph {
	var out []glyph
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// reportRegion is one region of the 2020 report: a two-line header above the
// data, and a name wrapped onto two lines with its count on the last one.
func reportRegion() []glyph {
	return page(
		text(40, 200, "CONCELHO"),
		text(100, 200, "NÚMERO"),
		text(100, 210, "DE CASOS"),
		text(40, 225, "Abrantes"),
		text(120, 225, "123"),
		text(40, 235, "Vila Nova"),
		text(40, 245, "de Gaia"),
		text(120, 245, "4 567"),
		text(40, 255, "Águeda"),
		text(120, 255, "87"),
	)
}

func TestBuildTable_WithHeader(t *testing.T) {
	table := buildTable(reportRegion(), true)

	named, ok := table.(NamedTable)
	require.True(t, ok, "got %T, want NamedTable", table)
	assert.Equal(t, []string{"CONCELHO", "NÚMERO\rDE CASOS"}, named.Header)
	assert.Equal(t, [][]string{
		{"Abrantes", "123"},
		{"Vila Nova\rde Gaia", "4 567"},
		{"Águeda", "87"},
	}, named.Rows)

	records, err := Normalize([]RegionTable{table}, reportColumns)
	require.NoError(t, err)
	assert.Equal(t, "Vila Nova de Gaia", records[1].Concelho)
}

func TestBuildTable_Positional(t *testing.T) {
	// Glyphs arrive out of order; the table is still read top to bottom.
	glyphs := page(
		text(120, 235, "9"),
		text(40, 235, "Alcácer do Sal"),
		text(40, 225, "Abrantes"),
		text(120, 225, "123"),
	)

	table := buildTable(glyphs, false)

	pos, ok := table.(PositionalTable)
	require.True(t, ok, "got %T, want PositionalTable", table)
	assert.Equal(t, [][]string{
		{"Abrantes", "123"},
		{"Alcácer do Sal", "9"},
	}, pos.Rows)
}

func TestBuildTable_PositionalDiscardsHeader(t *testing.T) {
	layout := config.DefaultLayouts()["v1-positional"]
	table := buildTable(reportRegion(), layout.Header)

	pos, ok := table.(PositionalTable)
	require.True(t, ok, "got %T, want PositionalTable", table)
	assert.Equal(t, [][]string{
		{"Abrantes", "123"},
		{"Vila Nova\rde Gaia", "4 567"},
		{"Águeda", "87"},
	}, pos.Rows)

	records, err := Normalize([]RegionTable{table}, Columns{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Record{Concelho: "Abrantes", Confirmados: "123"}, records[0])
	assert.Equal(t, "Vila Nova de Gaia", records[1].Concelho)
}

func TestBuildTable_NamedAndPositionalRowsAgree(t *testing.T) {
	named := buildTable(reportRegion(), true).(NamedTable)
	pos := buildTable(reportRegion(), false).(PositionalTable)
	assert.Equal(t, named.Rows, pos.Rows)
}

func TestBuildTable_CountCentredOnWrappedName(t *testing.T) {
	tests := []struct {
		name   string
		header bool
		glyphs []glyph
		want   [][]string
	}{
		{
			name: "count between the two name lines",
			glyphs: page(
				text(40, 225, "Vila Nova"),
				text(120, 230, "4567"),
				text(40, 235, "de Gaia"),
				text(40, 245, "Viseu"),
				text(120, 245, "87"),
			),
			want: [][]string{{"Vila Nova\rde Gaia", "4567"}, {"Viseu", "87"}},
		},
		{
			name: "centred rows back to back",
			glyphs: page(
				text(40, 225, "Abrantes"),
				text(120, 225, "123"),
				text(40, 235, "Montemor-"),
				text(120, 240, "12"),
				text(40, 245, "-o-Novo"),
				text(40, 255, "Vila Real de"),
				text(120, 260, "9"),
				text(40, 265, "Santo António"),
			),
			want: [][]string{
				{"Abrantes", "123"},
				{"Montemor-\r-o-Novo", "12"},
				{"Vila Real de\rSanto António", "9"},
			},
		},
		{
			name:   "centred first row under a header",
			header: true,
			glyphs: page(
				text(40, 200, "CONCELHO"),
				text(100, 200, "CASOS"),
				text(40, 225, "Vila Nova"),
				text(120, 230, "4567"),
				text(40, 235, "de Gaia"),
			),
			want: [][]string{{"Vila Nova\rde Gaia", "4567"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := buildTable(tt.glyphs, tt.header)
			switch tbl := table.(type) {
			case NamedTable:
				assert.Equal(t, []string{"CONCELHO", "CASOS"}, tbl.Header)
				assert.Equal(t, tt.want, tbl.Rows)
			case PositionalTable:
				assert.Equal(t, tt.want, tbl.Rows)
			}
		})
	}
}

func TestBuildTable_NoCounts(t *testing.T) {
	glyphs := page(text(40, 200, "CONCELHO"), text(100, 200, "CASOS"))

	named := buildTable(glyphs, true).(NamedTable)
	assert.Equal(t, []string{"CONCELHO", "CASOS"}, named.Header)
	assert.Empty(t, named.Rows)
	assert.Equal(t, 0, buildTable(glyphs, false).Len())
}

func TestBuildTable_TrailingNameWithoutCount(t *testing.T) {
	glyphs := page(
		text(40, 225, "Abrantes"),
		text(120, 225, "123"),
		text(40, 235, "Zambujeira"),
	)

	pos := buildTable(glyphs, false).(PositionalTable)
	assert.Equal(t, [][]string{
		{"Abrantes", "123"},
		{"Zambujeira", ""},
	}, pos.Rows)
}

func TestBuildTable_Empty(t *testing.T) {
	assert.Equal(t, 0, buildTable(nil, false).Len())
	assert.Equal(t, 0, buildTable(nil, true).Len())
}

func TestSplitCells_WordSpacing(t *testing.T) {
	// "Vila" and "Real" separated by a gap of 3pt (no space glyph).
	line := page(text(40, 100, "Vila"), text(59, 100, "Real"), text(120, 100, "15"))

	cells := splitCells(line)
	require.Len(t, cells, 2)
	assert.Equal(t, "Vila Real", cells[0].Text)
	assert.Equal(t, "15", cells[1].Text)
	assert.Equal(t, 120.0, cells[1].X)
}

func TestGroupLines_BaselineTolerance(t *testing.T) {
	// Baselines within half a font size share a line.
	lines := groupLines(page(text(40, 100, "Beja"), text(120, 101.5, "12"), text(40, 110, "Braga")))

	require.Len(t, lines, 2)
	assert.Equal(t, []string{"Beja", "12"}, lines[0].texts())
	assert.Equal(t, 100.0, lines[0].Top)
	assert.Equal(t, fontSize, lines[0].Size)
	assert.Equal(t, []string{"Braga"}, lines[1].texts())
	assert.Equal(t, 110.0, lines[1].Top)
}

func TestTextLine_Beside(t *testing.T) {
	count := textLine{Top: 230, Size: 8, Cells: []textCell{{X: 120, Text: "4567"}}}

	for _, top := range []float64{224, 225, 230, 235, 236} {
		assert.True(t, textLine{Top: top}.beside(count), "top %v", top)
	}
	for _, top := range []float64{223.9, 236.1, 240, 215} {
		assert.False(t, textLine{Top: top}.beside(count), "top %v", top)
	}
}

func TestIsNumeric(t *testing.T) {
	for _, s := range []string{"0", "87", "1 234", "1.234", "12,5"} {
		assert.True(t, isNumeric(s), s)
	}
	for _, s := range []string{"", " ", "N/A", "12a", "Beja", "-"} {
		assert.False(t, isNumeric(s), s)
	}
}
