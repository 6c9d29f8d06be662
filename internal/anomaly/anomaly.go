package anomaly

import (
	"errors"

	"github.com/pfrederiksen/dgs-reports/internal/dataset"
)

// Finding is one flagged place.
type Finding struct {
	Concelho string        `json:"concelho"`
	Previous dataset.Count `json:"previous"`
	Current  dataset.Count `json:"current"`
}

// Report holds the findings of one check, in dataset row order. The columns
// are empty when the dataset has fewer than two dates.
type Report struct {
	PreviousColumn string    `json:"previous_column"`
	CurrentColumn  string    `json:"current_column"`
	Findings       []Finding `json:"findings"`
}

// Empty reports whether nothing was flagged.
func (r *Report) Empty() bool {
	return len(r.Findings) == 0
}

// Check compares the two most recent date columns of ds.
func Check(ds *dataset.Dataset) (*Report, error) {
	if ds == nil {
		return nil, errors.New("no dataset")
	}

	report := &Report{Findings: make([]Finding, 0)}
	if len(ds.Dates) < 2 {
		return report, nil
	}

	report.PreviousColumn = ds.Dates[len(ds.Dates)-2]
	report.CurrentColumn = ds.Dates[len(ds.Dates)-1]
	previous, _ := ds.Column(report.PreviousColumn)
	current, _ := ds.Column(report.CurrentColumn)

	for i := range ds.Rows {
		if Suspicious(previous[i], current[i]) {
			report.Findings = append(report.Findings, Finding{
				Concelho: ds.Place(i),
				Previous: previous[i],
				Current:  current[i],
			})
		}
	}
	return report, nil
}

// Suspicious reports whether a place went from a positive count to no value.
func Suspicious(previous, current dataset.Count) bool {
	return previous.Valid && previous.N > 0 && !current.Valid
}
