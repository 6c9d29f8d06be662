package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateKey is returned when a concelho appears twice in the dataset
	// or in the batch being merged.
	ErrDuplicateKey = errors.New("duplicate concelho")

	// ErrColumnExists is returned when the date being merged already has a column.
	ErrColumnExists = errors.New("date column already exists")

	// ErrMissingKeyColumn is returned when the dataset has no concelho column.
	ErrMissingKeyColumn = errors.New("dataset has no concelho column")
)

// MergeError reports a failure to load, merge or save the dataset at Path.
type MergeError struct {
	Path string
	Err  error
}

func (e *MergeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("dataset: %v", e.Err)
	}
	return fmt.Sprintf("dataset %s: %v", e.Path, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}
