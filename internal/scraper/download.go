package scraper

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReportStem derives the local file name of a report from its URL: the final
// "/"-delimited segment, cut at its first ".". A query string after an
// extension is therefore dropped with it.
func ReportStem(reportURL string) (string, error) {
	segment := reportURL
	if i := strings.LastIndex(segment, "/"); i >= 0 {
		segment = segment[i+1:]
	}
	if i := strings.Index(segment, "."); i >= 0 {
		segment = segment[:i]
	}
	if segment == "" {
		return "", fmt.Errorf("cannot derive a file name from %q", reportURL)
	}
	return segment, nil
}

// FetchReport downloads the document at reportURL to <reportsDir>/<stem>.pdf,
// overwriting any previous file, and returns the path. reportURL must be absolute.
func (s *Scraper) FetchReport(ctx context.Context, reportURL string) (string, error) {
	stem, err := ReportStem(reportURL)
	if err != nil {
		return "", err
	}

	body, err := s.get(ctx, reportURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if err := os.MkdirAll(s.reportsDir, 0755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}

	path := filepath.Join(s.reportsDir, stem+".pdf")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return "", &TransportError{URL: reportURL, Err: fmt.Errorf("reading body: %w", err)}
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing report file: %w", err)
	}

	return path, nil
}
