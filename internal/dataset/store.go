package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pfrederiksen/dgs-reports/internal/logger"
)

const (
	// OrderSheet is the hidden sheet holding the date column order, one label
	// per row in column A.
	OrderSheet = "_date_columns"

	// DefaultSheet names the data sheet of a new workbook.
	DefaultSheet = "Sheet1"
)

// Store reads and writes the dataset workbook at a fixed path.
type Store struct {
	path  string
	sheet string
}

// NewStore creates a Store for the workbook at path. An empty sheet selects
// the first visible sheet on load.
func NewStore(path, sheet string) *Store {
	return &Store{path: path, sheet: sheet}
}

// Path returns the workbook path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the dataset. Errors are *MergeError.
func (s *Store) Load() (*Dataset, error) {
	ds, err := s.load()
	if err != nil {
		return nil, &MergeError{Path: s.path, Err: err}
	}
	return ds, nil
}

func (s *Store) load() (*Dataset, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet, err := s.dataSheet(f)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	ds := &Dataset{Path: s.path, Sheet: sheet}
	var staticCols []int
	dateCols := make(map[string]int)
	var headerDates []string
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if IsDateColumn(h) {
			if _, dup := dateCols[h]; dup {
				return nil, fmt.Errorf("date column %s appears twice", h)
			}
			dateCols[h] = i
			headerDates = append(headerDates, h)
			continue
		}
		staticCols = append(staticCols, i)
		ds.Static = append(ds.Static, h)
	}
	ds.Dates = dateOrder(readOrder(f), headerDates)

	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		r := Row{
			Static: make([]string, len(staticCols)),
			Counts: make([]Count, len(ds.Dates)),
		}
		for j, col := range staticCols {
			r.Static[j] = cellAt(row, col)
		}
		for j, label := range ds.Dates {
			raw := cellAt(row, dateCols[label])
			count, err := ParseCount(raw)
			if err != nil {
				logger.Warn("Unparseable count in dataset read as null", logger.Fields{
					"path":   s.path,
					"row":    n + 2,
					"column": label,
					"value":  raw,
				})
			}
			r.Counts[j] = count
		}
		ds.Rows = append(ds.Rows, r)
	}
	return ds, nil
}

// dataSheet returns the configured sheet, or the first visible sheet that is
// not the order sheet.
func (s *Store) dataSheet(f *excelize.File) (string, error) {
	if s.sheet != "" {
		if idx, err := f.GetSheetIndex(s.sheet); err != nil || idx < 0 {
			return "", fmt.Errorf("sheet %q not found", s.sheet)
		}
		return s.sheet, nil
	}
	for _, name := range f.GetSheetList() {
		if name == OrderSheet {
			continue
		}
		if visible, err := f.GetSheetVisible(name); err == nil && visible {
			return name, nil
		}
	}
	return "", errors.New("workbook has no visible sheet")
}

// readOrder returns the labels stored in the order sheet, or nil when the
// workbook has none.
func readOrder(f *excelize.File) []string {
	if idx, err := f.GetSheetIndex(OrderSheet); err != nil || idx < 0 {
		return nil
	}
	rows, err := f.GetRows(OrderSheet)
	if err != nil {
		return nil
	}
	var out []string
	for _, r := range rows {
		if label := strings.TrimSpace(cellAt(r, 0)); label != "" {
			out = append(out, label)
		}
	}
	return out
}

// dateOrder reconciles the stored order with the columns present in the
// header. Stored labels without a column are ignored; columns missing from the
// stored order follow in header order.
func dateOrder(stored, header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	out := make([]string, 0, len(header))
	used := make(map[string]bool, len(header))
	for _, label := range stored {
		if present[label] && !used[label] {
			out = append(out, label)
			used[label] = true
		}
	}
	for _, h := range header {
		if !used[h] {
			out = append(out, h)
		}
	}
	return out
}

// Save writes ds to a temporary file next to the workbook and renames it into
// place. A failed save leaves the previous workbook intact.
// Errors are *MergeError.
func (s *Store) Save(ds *Dataset) error {
	if err := s.save(ds); err != nil {
		return &MergeError{Path: s.path, Err: err}
	}
	return nil
}

func (s *Store) save(ds *Dataset) error {
	f, err := s.workbook(ds)
	if err != nil {
		return err
	}
	defer f.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating dataset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dataset-*.xlsx")
	if err != nil {
		return fmt.Errorf("creating temporary workbook: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing workbook: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing workbook: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("setting workbook permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing workbook: %w", err)
	}
	return nil
}

func (s *Store) workbook(ds *Dataset) (*excelize.File, error) {
	sheet := s.sheet
	if sheet == "" {
		sheet = ds.Sheet
	}
	if sheet == "" || sheet == OrderSheet {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	ok := false
	defer func() {
		if !ok {
			f.Close()
		}
	}()

	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return nil, fmt.Errorf("naming sheet: %w", err)
		}
	}

	header := make([]interface{}, 0, len(ds.Static)+len(ds.Dates))
	for _, h := range ds.Header() {
		header = append(header, h)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for i, r := range ds.Rows {
		values := make([]interface{}, 0, len(header))
		for j := range ds.Static {
			values = append(values, cellAt(r.Static, j))
		}
		for j := range ds.Dates {
			var c Count
			if j < len(r.Counts) {
				c = r.Counts[j]
			}
			if c.Valid {
				values = append(values, c.N)
			} else {
				values = append(values, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(OrderSheet); err != nil {
		return nil, fmt.Errorf("creating order sheet: %w", err)
	}
	for i, label := range ds.Dates {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStr(OrderSheet, cell, label); err != nil {
			return nil, fmt.Errorf("writing date order: %w", err)
		}
	}
	if err := f.SetSheetVisible(OrderSheet, false); err != nil {
		return nil, fmt.Errorf("hiding order sheet: %w", err)
	}

	ok = true
	return f, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
