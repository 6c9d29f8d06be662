package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// utf16 is the CSV encoding: little-endian UTF-16 with a byte order mark,
// which round-trips accented place names and opens cleanly in spreadsheets.
var utf16 = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)

// WriteCSV writes records with a concelho,confirmados header to path as UTF-16.
func WriteCSV(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}

	if err := encodeCSV(transform.NewWriter(f, utf16.NewEncoder()), records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeCSV(w io.WriteCloser, records []Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{ColumnPlace, ColumnCount}); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, r := range records {
		if err := writer.Write([]string{r.Concelho, r.Confirmados}); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	// Close flushes the encoder's pending bytes.
	return w.Close()
}

// ReadCSV reads a CSV produced by WriteCSV. The encoding is taken from the
// byte order mark (UTF-16 either endianness, or UTF-8); without one the file
// is read as UTF-8. Columns are found by header name.
func ReadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty CSV", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", path, err)
	}

	place, count := -1, -1
	for i, h := range header {
		switch h {
		case ColumnPlace:
			place = i
		case ColumnCount:
			count = i
		}
	}
	if place < 0 || count < 0 {
		return nil, fmt.Errorf("%s: header %q lacks %s or %s", path, header, ColumnPlace, ColumnCount)
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		records = append(records, Record{Concelho: cell(row, place), Confirmados: cell(row, count)})
	}
	return records, nil
}
