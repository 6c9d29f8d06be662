package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/dgs-reports/internal/config"
)

// fakeEngine returns canned tables and records what it was asked for.
type fakeEngine struct {
	tables []RegionTable
	err    error

	gotPath   string
	gotLayout config.Layout
}

func (f *fakeEngine) ExtractRegions(_ context.Context, path string, layout config.Layout) ([]RegionTable, error) {
	f.gotPath, f.gotLayout = path, layout
	return f.tables, f.err
}

func testLayout(regions int) config.Layout {
	l := config.Layout{Page: 3, PlaceColumn: "CONCELHO", CountColumn: "NÚMERO\rDE CASOS"}
	for i := 0; i < regions; i++ {
		left := float64(i * 100)
		l.Regions = append(l.Regions, config.Region{Top: 0, Left: left, Bottom: 100, Right: left + 90})
	}
	return l
}

func TestStem(t *testing.T) {
	tests := []struct{ path, want string }{
		{"/tmp/reports/relatorio20210115.pdf", "relatorio20210115"},
		{"relatorio.v2.pdf", "relatorio"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Stem(tt.path), tt.path)
	}
}

func TestExtract_WritesCSV(t *testing.T) {
	dir := t.TempDir()
	sizes := []int{3, 2, 4, 1, 2}

	engine := &fakeEngine{}
	var want []Record
	for region, n := range sizes {
		table := PositionalTable{}
		for row := 0; row < n; row++ {
			name := fmt.Sprintf("Concelho %d.%d", region+1, row+1)
			count := fmt.Sprint(region*10 + row)
			table.Rows = append(table.Rows, []string{name, count})
			want = append(want, Record{Concelho: name, Confirmados: count})
		}
		engine.tables = append(engine.tables, table)
	}

	layout := testLayout(len(sizes))
	pdfPath := filepath.Join(dir, "relatorio20210115.pdf")

	result, err := New(engine, layout, dir).Extract(context.Background(), pdfPath)
	require.NoError(t, err)

	assert.Equal(t, pdfPath, engine.gotPath)
	assert.Equal(t, layout, engine.gotLayout)
	assert.Equal(t, filepath.Join(dir, "relatorio20210115.csv"), result.CSVPath)
	assert.Equal(t, sizes, result.RegionRows)
	assert.Equal(t, want, result.Records)

	onDisk, err := ReadCSV(result.CSVPath)
	require.NoError(t, err)
	assert.Equal(t, want, onDisk)
}

func TestExtract_Errors(t *testing.T) {
	engineFailure := errors.New("boom")

	tests := []struct {
		name       string
		engine     *fakeEngine
		regions    int
		wantRegion int
		wantIs     error
	}{
		{
			name:    "engine failure",
			engine:  &fakeEngine{err: engineFailure},
			regions: 1,
			wantIs:  engineFailure,
		},
		{
			name:       "engine region failure keeps region",
			engine:     &fakeEngine{err: &ExtractionError{Region: 4, Err: engineFailure}},
			regions:    5,
			wantRegion: 4,
			wantIs:     engineFailure,
		},
		{
			name:    "table count mismatch",
			engine:  &fakeEngine{tables: []RegionTable{PositionalTable{}}},
			regions: 2,
		},
		{
			name: "header not found",
			engine: &fakeEngine{tables: []RegionTable{
				NamedTable{Header: []string{"A", "B"}, Rows: [][]string{{"x", "1"}}},
			}},
			regions:    1,
			wantRegion: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			pdfPath := filepath.Join(dir, "r.pdf")

			_, err := New(tt.engine, testLayout(tt.regions), dir).Extract(context.Background(), pdfPath)

			var ee *ExtractionError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, pdfPath, ee.Path)
			assert.Equal(t, 3, ee.Page)
			assert.Equal(t, tt.wantRegion, ee.Region)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			assert.NoFileExists(t, CSVPath(dir, "r"))
		})
	}
}

func TestPDFEngine_MissingFile(t *testing.T) {
	_, err := NewPDFEngine().ExtractRegions(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), testLayout(1))
	assert.Error(t, err)
}
