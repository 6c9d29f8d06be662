package extract

import (
	"fmt"
	"strings"
)

// Canonical column names of the extracted table.
const (
	ColumnPlace = "concelho"
	ColumnCount = "confirmados"
)

// Record is one municipality row of a report.
type Record struct {
	Concelho    string
	Confirmados string
}

// RegionTable is the raw table read from one layout region. It is one of
// NamedTable or PositionalTable.
type RegionTable interface {
	// Len returns the number of data rows.
	Len() int
	regionTable()
}

// NamedTable is a region whose first row was recovered as column names.
// Header cells may contain line breaks ("NÚMERO\rDE CASOS").
type NamedTable struct {
	Header []string
	Rows   [][]string
}

func (t NamedTable) Len() int   { return len(t.Rows) }
func (NamedTable) regionTable() {}

// PositionalTable is a region read without a header: column 0 holds the
// place name and column 1 the case count.
type PositionalTable struct {
	Rows [][]string
}

func (t PositionalTable) Len() int   { return len(t.Rows) }
func (PositionalTable) regionTable() {}

// Columns names the header labels that identify the place and count columns
// of a NamedTable.
type Columns struct {
	Place string
	Count string
}

// Normalize concatenates the region tables in order and maps each one to
// Records. Errors are *ExtractionError carrying the 1-based region index.
func Normalize(tables []RegionTable, cols Columns) ([]Record, error) {
	var records []Record
	for i, t := range tables {
		var (
			recs []Record
			err  error
		)
		switch t := t.(type) {
		case NamedTable:
			recs, err = normalizeNamed(t, cols)
		case PositionalTable:
			recs = normalizePositional(t)
		default:
			err = fmt.Errorf("unsupported region table %T", t)
		}
		if err != nil {
			return nil, &ExtractionError{Region: i + 1, Err: err}
		}
		records = append(records, recs...)
	}
	return records, nil
}

func normalizeNamed(t NamedTable, cols Columns) ([]Record, error) {
	place, count := -1, -1
	for i, h := range t.Header {
		switch headerKey(h) {
		case headerKey(cols.Place):
			if place < 0 {
				place = i
			}
		case headerKey(cols.Count):
			if count < 0 {
				count = i
			}
		}
	}
	if place < 0 || count < 0 {
		return nil, fmt.Errorf("header %q lacks %q or %q", t.Header, cols.Place, cols.Count)
	}

	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		records = append(records, Record{
			Concelho:    CleanPlace(cell(row, place)),
			Confirmados: strings.TrimSpace(cell(row, count)),
		})
	}
	return records, nil
}

func normalizePositional(t PositionalTable) []Record {
	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		records = append(records, Record{
			Concelho:    CleanPlace(cell(row, 0)),
			Confirmados: strings.TrimSpace(cell(row, 1)),
		})
	}
	return records
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// CleanPlace replaces every line break inside a place name with one space
// and trims the result.
func CleanPlace(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}

// headerKey folds a header label for comparison: line breaks and runs of
// whitespace become one space, case is ignored.
func headerKey(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
