package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/dgs-reports/internal/anomaly"
	"github.com/pfrederiksen/dgs-reports/internal/dataset"
	"github.com/pfrederiksen/dgs-reports/internal/storage"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt     time.Time            `json:"checked_at"`
	Date          string               `json:"date,omitempty"`
	ReportURL     string               `json:"report_url,omitempty"`
	ReportPath    string               `json:"report_path,omitempty"`
	CSVPath       string               `json:"csv_path,omitempty"`
	RowsExtracted int                  `json:"rows_extracted,omitempty"`
	Merge         *dataset.MergeResult `json:"merge,omitempty"`
	Anomalies     *anomaly.Report      `json:"anomalies"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if m := result.Merge; m != nil {
		fmt.Fprintf(w, "\nMerged %s: %d matched, %d set to null, %d dropped\n",
			m.Column, m.Matched, len(m.Unmatched)+len(m.Invalid), len(m.Dropped))
		if verbose {
			writeList(w, "Missing from report", m.Unmatched)
			writeList(w, "Not a count", m.Invalid)
			writeList(w, "Not in dataset", m.Dropped)
		}
	}

	report := result.Anomalies
	if report == nil || report.CurrentColumn == "" {
		fmt.Fprintln(w, "Not enough date columns to check.")
		return nil
	}

	if report.Empty() {
		fmt.Fprintf(w, "No incongruities between %s and %s.\n", report.PreviousColumn, report.CurrentColumn)
		return nil
	}

	fmt.Fprintf(w, "\nIncongruities between %s and %s:\n", report.PreviousColumn, report.CurrentColumn)
	for _, f := range report.Findings {
		fmt.Fprintf(w, "  %s: %s -> %s\n", f.Concelho, f.Previous, f.Current)
	}
	fmt.Fprintf(w, "\nTotal: %d places\n", len(report.Findings))
	return nil
}

func writeList(w io.Writer, label string, places []string) {
	if len(places) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s (%d): %s\n", label, len(places), strings.Join(places, ", "))
}

// WriteHistory writes journal entries, newest first.
func WriteHistory(w io.Writer, runs []*storage.RunRecord, format OutputFormat) error {
	switch format {
	case FormatJSON:
		if runs == nil {
			runs = []*storage.RunRecord{}
		}
		return writeJSON(w, runs)
	case FormatText:
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		started := r.StartedAt.Local().Format("2006-01-02 15:04")
		if r.Status != storage.StatusOK {
			fmt.Fprintf(w, "#%d %s (run %s) %s at %s: %s\n", r.ID, r.RunDate, started, r.Status, r.Stage, r.Error)
			continue
		}
		fmt.Fprintf(w, "#%d %s (run %s) %s: %d rows, %d matched, %d null, %d dropped, %d anomalies\n",
			r.ID, r.RunDate, started, r.Status,
			r.RowsExtracted, r.RowsMatched, len(r.Unmatched), len(r.Dropped), len(r.Anomalies))
	}
	return nil
}
