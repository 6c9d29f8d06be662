package dataset

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// KeyColumn is the static column rows are joined on.
	KeyColumn = "concelho"

	// ColumnLayout formats a report date as a column label.
	ColumnLayout = "2006/01/02"
)

var dateColumn = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`)

// ColumnLabel returns the column label for a report date.
func ColumnLabel(day time.Time) string {
	return day.Format(ColumnLayout)
}

// IsDateColumn reports whether a header names a date column.
func IsDateColumn(header string) bool {
	return dateColumn.MatchString(header)
}

// Row is one place. Static is aligned with Dataset.Static and Counts with
// Dataset.Dates.
type Row struct {
	Static []string
	Counts []Count
}

// Dataset is the in-memory form of the workbook.
type Dataset struct {
	// Path and Sheet locate the workbook the dataset was loaded from.
	Path  string
	Sheet string

	// Static holds the names of the text columns, in sheet order.
	Static []string

	// Dates holds the date column labels, oldest first. New columns are
	// only ever appended.
	Dates []string

	Rows []Row
}

// KeyIndex returns the position of the concelho column in Static, or -1.
func (d *Dataset) KeyIndex() int {
	for i, name := range d.Static {
		if strings.EqualFold(strings.TrimSpace(name), KeyColumn) {
			return i
		}
	}
	return -1
}

// Place returns the concelho of row i.
func (d *Dataset) Place(i int) string {
	k := d.KeyIndex()
	if k < 0 || k >= len(d.Rows[i].Static) {
		return ""
	}
	return strings.TrimSpace(d.Rows[i].Static[k])
}

// HasDate reports whether label is one of the date columns.
func (d *Dataset) HasDate(label string) bool {
	return d.dateIndex(label) >= 0
}

func (d *Dataset) dateIndex(label string) int {
	for i, l := range d.Dates {
		if l == label {
			return i
		}
	}
	return -1
}

// Column returns the counts of the date column label, in row order.
func (d *Dataset) Column(label string) ([]Count, bool) {
	j := d.dateIndex(label)
	if j < 0 {
		return nil, false
	}
	out := make([]Count, len(d.Rows))
	for i, r := range d.Rows {
		if j < len(r.Counts) {
			out[i] = r.Counts[j]
		}
	}
	return out, true
}

// Header returns the column labels in the order they are written: static
// columns, then date columns.
func (d *Dataset) Header() []string {
	out := make([]string, 0, len(d.Static)+len(d.Dates))
	out = append(out, d.Static...)
	return append(out, d.Dates...)
}

// AppendDate adds label as the rightmost date column, with values in row order.
func (d *Dataset) AppendDate(label string, values []Count) error {
	if !IsDateColumn(label) {
		return fmt.Errorf("invalid date column %q", label)
	}
	if d.HasDate(label) {
		return fmt.Errorf("%w: %s", ErrColumnExists, label)
	}
	if len(values) != len(d.Rows) {
		return fmt.Errorf("column %s has %d values for %d rows", label, len(values), len(d.Rows))
	}

	n := len(d.Dates)
	d.Dates = append(d.Dates, label)
	for i := range d.Rows {
		// Pad rows that were short on disk so the new value lands in its column.
		for len(d.Rows[i].Counts) < n {
			d.Rows[i].Counts = append(d.Rows[i].Counts, Count{})
		}
		d.Rows[i].Counts = append(d.Rows[i].Counts[:n], values[i])
	}
	return nil
}
