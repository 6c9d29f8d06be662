package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/dgs-reports/internal/config"
	"github.com/pfrederiksen/dgs-reports/internal/logger"
)

// Result describes one extraction.
type Result struct {
	CSVPath string
	Records []Record
	// RegionRows holds the number of rows read from each region, in layout order.
	RegionRows []int
}

// Extractor reads the municipality table of a report and saves it as CSV.
type Extractor struct {
	engine Engine
	layout config.Layout
	outDir string
}

// New creates an Extractor writing CSV files to outDir.
func New(engine Engine, layout config.Layout, outDir string) *Extractor {
	return &Extractor{
		engine: engine,
		layout: layout,
		outDir: outDir,
	}
}

// CSVPath returns where the CSV for the report stem is written.
func CSVPath(dir, stem string) string {
	return filepath.Join(dir, stem+".csv")
}

// Stem returns the file name of path up to its first ".".
func Stem(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return base
}

// Extract reads the layout regions of the report at pdfPath, normalizes them
// and writes <outDir>/<stem>.csv.
func (e *Extractor) Extract(ctx context.Context, pdfPath string) (*Result, error) {
	fail := func(err error) (*Result, error) {
		var ee *ExtractionError
		if errors.As(err, &ee) {
			ee.Path, ee.Page = pdfPath, e.layout.Page
			return nil, ee
		}
		return nil, &ExtractionError{Path: pdfPath, Page: e.layout.Page, Err: err}
	}

	tables, err := e.engine.ExtractRegions(ctx, pdfPath, e.layout)
	if err != nil {
		return fail(err)
	}
	if len(tables) != len(e.layout.Regions) {
		return fail(fmt.Errorf("engine returned %d tables for %d regions", len(tables), len(e.layout.Regions)))
	}

	regionRows := make([]int, len(tables))
	for i, t := range tables {
		regionRows[i] = t.Len()
		logger.Debug("Region extracted", logger.Fields{
			"path":   pdfPath,
			"region": i + 1,
			"rows":   t.Len(),
		})
	}

	records, err := Normalize(tables, Columns{Place: e.layout.PlaceColumn, Count: e.layout.CountColumn})
	if err != nil {
		return fail(err)
	}

	if err := os.MkdirAll(e.outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	path := CSVPath(e.outDir, Stem(pdfPath))
	if err := WriteCSV(path, records); err != nil {
		return nil, err
	}

	return &Result{
		CSVPath:    path,
		Records:    records,
		RegionRows: regionRows,
	}, nil
}
