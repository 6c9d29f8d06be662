package scraper

import (
	"errors"
	"fmt"
)

// ErrReportNotFound is matched by every *NotFoundError.
var ErrReportNotFound = errors.New("report not found")

// TransportError reports that a page or document could not be retrieved:
// either the request itself failed (Err set) or the server answered with a
// non-success status (StatusCode set).
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NotFoundError reports that no anchor on the listing page carried the date token.
type NotFoundError struct {
	URL   string
	Token string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no report link containing %q on %s", e.Token, e.URL)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrReportNotFound
}
