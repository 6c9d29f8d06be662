package extract

import "fmt"

// ExtractionError reports a failure to read the table out of a report.
// Region is the 1-based layout region involved, or 0 when the failure is not
// tied to a single region.
type ExtractionError struct {
	Path   string
	Page   int
	Region int
	Err    error
}

func (e *ExtractionError) Error() string {
	where := e.Path
	if e.Page > 0 {
		where = fmt.Sprintf("%s page %d", where, e.Page)
	}
	if e.Region > 0 {
		where = fmt.Sprintf("%s region %d", where, e.Region)
	}
	return fmt.Sprintf("extracting table from %s: %v", where, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
