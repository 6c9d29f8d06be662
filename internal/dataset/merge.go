package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/dgs-reports/internal/extract"
	"github.com/pfrederiksen/dgs-reports/internal/logger"
)

// MergeResult describes what a merge did to the dataset.
type MergeResult struct {
	// Column is the label of the appended date column.
	Column string `json:"column"`

	// Matched is the number of dataset places found in the batch.
	Matched int `json:"matched"`

	// Unmatched lists dataset places absent from the batch. They got a null count.
	Unmatched []string `json:"unmatched"`

	// Dropped lists batch places absent from the dataset. They were not added.
	Dropped []string `json:"dropped"`

	// Invalid lists matched places whose batch value was not a count. They got
	// a null count.
	Invalid []string `json:"invalid"`
}

// ReadRecords loads a batch written by the extractor.
func ReadRecords(csvPath string) ([]extract.Record, error) {
	records, err := extract.ReadCSV(csvPath)
	if err != nil {
		return nil, fmt.Errorf("reading batch: %w", err)
	}
	return records, nil
}

// Merge left-joins records onto ds by concelho and appends their counts as the
// date column for day. Every dataset row is kept, in order. ds is left
// untouched when an error is returned.
func Merge(ds *Dataset, records []extract.Record, day time.Time) (*MergeResult, error) {
	label := ColumnLabel(day)
	fail := func(err error) (*MergeResult, error) {
		return nil, &MergeError{Path: ds.Path, Err: err}
	}

	if ds.HasDate(label) {
		return fail(fmt.Errorf("%w: %s", ErrColumnExists, label))
	}
	if ds.KeyIndex() < 0 {
		return fail(ErrMissingKeyColumn)
	}

	rowOf := make(map[string]int, len(ds.Rows))
	for i := range ds.Rows {
		place := ds.Place(i)
		if _, dup := rowOf[place]; dup {
			return fail(fmt.Errorf("%w in dataset: %q", ErrDuplicateKey, place))
		}
		rowOf[place] = i
	}

	result := &MergeResult{Column: label}
	values := make([]Count, len(ds.Rows))
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		place := strings.TrimSpace(r.Concelho)
		if place == "" {
			logger.Warn("Skipping batch row without concelho", logger.Fields{
				"column":      label,
				"confirmados": r.Confirmados,
			})
			continue
		}
		if seen[place] {
			return fail(fmt.Errorf("%w in batch: %q", ErrDuplicateKey, place))
		}
		seen[place] = true

		i, ok := rowOf[place]
		if !ok {
			result.Dropped = append(result.Dropped, place)
			continue
		}

		count, err := ParseCount(r.Confirmados)
		if err != nil {
			logger.Warn("Unparseable count stored as null", logger.Fields{
				"concelho": place,
				"column":   label,
				"value":    r.Confirmados,
			})
			result.Invalid = append(result.Invalid, place)
		}
		values[i] = count
		result.Matched++
	}

	for i := range ds.Rows {
		if place := ds.Place(i); !seen[place] {
			result.Unmatched = append(result.Unmatched, place)
		}
	}

	if err := ds.AppendDate(label, values); err != nil {
		return fail(err)
	}
	return result, nil
}
