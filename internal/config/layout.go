package config

import "fmt"

// Region is a rectangle on a PDF page in points, measured from the top-left
// corner of the page (the convention used by tabula and most PDF viewers).
type Region struct {
	Top    float64 `yaml:"top"`
	Left   float64 `yaml:"left"`
	Bottom float64 `yaml:"bottom"`
	Right  float64 `yaml:"right"`
}

// Contains reports whether the point (x, y) lies inside the region, edges included.
func (r Region) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// Layout describes where the municipality table lives in one version of the report.
type Layout struct {
	// Page is the 1-based page number holding the table.
	Page int `yaml:"page"`

	// Regions are read in order; their rows are concatenated in the same order.
	Regions []Region `yaml:"regions"`

	// Header is true when each region starts with a header row that should be
	// recovered as column names instead of being read as data.
	Header bool `yaml:"header"`

	// PlaceColumn and CountColumn are the header labels of the place-name and
	// case-count columns. Only used when Header is true.
	PlaceColumn string `yaml:"place_column"`
	CountColumn string `yaml:"count_column"`
}

func (l Layout) validate() error {
	if l.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidLayout, l.Page)
	}
	if len(l.Regions) == 0 {
		return fmt.Errorf("%w: no regions", ErrInvalidLayout)
	}
	for i, r := range l.Regions {
		if r.Bottom <= r.Top || r.Right <= r.Left {
			return fmt.Errorf("%w: region %d has inverted edges", ErrInvalidLayout, i)
		}
	}
	if l.Header && (l.PlaceColumn == "" || l.CountColumn == "") {
		return fmt.Errorf("%w: header layouts need place_column and count_column", ErrInvalidLayout)
	}
	return nil
}

// reportRegions2020 are the five municipality columns on page 3 of the 2020
// situation report, left to right.
var reportRegions2020 = []Region{
	{Top: 189.27165699005127, Left: 35.325751304626465, Bottom: 750.0214776992798, Right: 139.4437551498413},
	{Top: 189.27165699005127, Left: 143.1622552871704, Bottom: 750.0214776992798, Right: 247.28025913238525},
	{Top: 189.27165699005127, Left: 250.25505924224854, Bottom: 750.0214776992798, Right: 352.88566303253174},
	{Top: 189.27165699005127, Left: 355.1167631149292, Bottom: 750.0214776992798, Right: 453.2851667404175},
	{Top: 189.27165699005127, Left: 456.25996685028076, Bottom: 750.0214776992798, Right: 562.6090707778931},
}

// DefaultLayoutVersion is the layout used when none is configured.
const DefaultLayoutVersion = "v1"

// DefaultLayouts returns the built-in layouts. "v1" reads the header row of each
// region; "v1-positional" uses the same regions, drops the header lines and reads
// columns by position.
func DefaultLayouts() map[string]Layout {
	return map[string]Layout{
		"v1": {
			Page:        3,
			Regions:     append([]Region(nil), reportRegions2020...),
			Header:      true,
			PlaceColumn: "CONCELHO",
			CountColumn: "NÚMERO\rDE CASOS",
		},
		"v1-positional": {
			Page:    3,
			Regions: append([]Region(nil), reportRegions2020...),
		},
	}
}
